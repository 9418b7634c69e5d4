package clarix

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventRegisterSuccess       ActivityEventType = "auth.register.success"
	ActivityEventRegisterCompensated   ActivityEventType = "auth.register.compensated"
	ActivityEventLoginSuccess          ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure          ActivityEventType = "auth.login.failure"
	ActivityEventLogout                ActivityEventType = "auth.logout"
	ActivityEventPasswordResetRequest  ActivityEventType = "auth.password.reset.requested"
	ActivityEventPasswordResetComplete ActivityEventType = "auth.password.reset.completed"
	ActivityEventCustomerCreated       ActivityEventType = "billing.customer.created"
)

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     string
	Email      string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
// Sinks run best-effort: handlers log record failures and move on, so a slow
// or broken sink can never fail an auth flow.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(sinks []ActivitySink) ActivitySink {
	if len(sinks) == 0 || sinks[0] == nil {
		return noopActivitySink{}
	}
	return sinks[0]
}

// NewLogActivitySink returns a sink that writes events to the logger.
func NewLogActivitySink(logger Logger) ActivitySink {
	if logger == nil {
		logger = defLogger{}
	}
	return ActivitySinkFunc(func(ctx context.Context, event ActivityEvent) error {
		logger.Info("activity",
			"event", string(event.EventType),
			"user_id", event.UserID,
			"email", event.Email,
		)
		return nil
	})
}

func recordActivity(ctx context.Context, sink ActivitySink, logger Logger, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if err := sink.Record(ctx, event); err != nil && logger != nil {
		logger.Warn("activity sink record failed", "event", string(event.EventType), "error", err)
	}
}
