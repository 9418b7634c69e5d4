package clarix

import (
	"context"
	"time"
)

type LogoutMessage struct {
	AccessToken string `json:"-"`
}

func (m LogoutMessage) Type() string { return "session.logout" }

type LogoutResponse struct {
	Message string `json:"message"`
}

// LogoutHandler revokes the session behind an access token. Revocation is
// scoped to that session; the user's other devices stay signed in.
type LogoutHandler struct {
	backend  IdentityBackend
	logger   Logger
	activity ActivitySink
}

func NewLogoutHandler(backend IdentityBackend, logger Logger, sinks ...ActivitySink) *LogoutHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogoutHandler{
		backend:  backend,
		logger:   logger,
		activity: normalizeActivitySink(sinks),
	}
}

func (h *LogoutHandler) Execute(ctx context.Context, msg LogoutMessage) (*LogoutResponse, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		return h.execute(ctx, msg)
	}
}

func (h *LogoutHandler) execute(ctx context.Context, msg LogoutMessage) (*LogoutResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	// The backend rejects sign-out for sessions it no longer knows about, so
	// every failure here reads as an unusable token to the caller.
	if err := h.backend.SignOut(ctx, msg.AccessToken); err != nil {
		return nil, withSource(ErrTokenInvalid, err)
	}

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventLogout,
	})

	return &LogoutResponse{Message: "logout successful"}, nil
}
