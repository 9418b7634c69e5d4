package clarix

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

type InitializePasswordResetMessage struct {
	Email string `json:"email"`
}

func (m InitializePasswordResetMessage) Type() string { return "user.password_reset" }

func (m InitializePasswordResetMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Email, validation.Required, is.Email),
	)
}

type InitializePasswordResetResponse struct {
	Message string `json:"message"`
}

// InitializePasswordResetHandler asks the auth backend to email a recovery
// link. Unknown emails are rejected before touching the backend; this leaks
// account existence, which the product accepts in exchange for an actionable
// error on typos.
type InitializePasswordResetHandler struct {
	repo     RepositoryManager
	backend  IdentityBackend
	logger   Logger
	activity ActivitySink
}

func NewInitializePasswordResetHandler(repo RepositoryManager, backend IdentityBackend, logger Logger, sinks ...ActivitySink) *InitializePasswordResetHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &InitializePasswordResetHandler{
		repo:     repo,
		backend:  backend,
		logger:   logger,
		activity: normalizeActivitySink(sinks),
	}
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, msg InitializePasswordResetMessage) (*InitializePasswordResetResponse, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		return h.execute(ctx, msg)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, msg InitializePasswordResetMessage) (*InitializePasswordResetResponse, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*15)
	defer cancel()

	exists, err := h.repo.Users().EmailExists(ctx, msg.Email)
	if err != nil {
		return nil, withSource(ErrEmailNotFound, err)
	}
	if !exists {
		return nil, ErrEmailNotFound.Clone()
	}

	if err := h.backend.SendRecoveryEmail(ctx, msg.Email); err != nil {
		// The backend throttles repeat requests; surface those as-is so the
		// client can show a retry-later message.
		return nil, classifyBackendError(err, recoveryRules, ErrRecoverySend)
	}

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventPasswordResetRequest,
		Email:     msg.Email,
	})

	return &InitializePasswordResetResponse{
		Message: "password recovery email sent",
	}, nil
}
