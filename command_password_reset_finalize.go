package clarix

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

type FinalizePasswordResetMessage struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (m FinalizePasswordResetMessage) Type() string { return "user.password_reset_finalize" }

func (m FinalizePasswordResetMessage) Validate() error {
	if err := validation.ValidateStruct(&m,
		validation.Field(&m.Token, validation.Required),
		validation.Field(&m.NewPassword, validation.Required),
	); err != nil {
		return err
	}

	if len(m.NewPassword) < 6 {
		return ErrWeakPassword.Clone()
	}

	return nil
}

type FinalizePasswordResetResponse struct {
	Message string `json:"message"`
}

// FinalizePasswordResetHandler exchanges a recovery token for the identity it
// belongs to, then sets the new password through the admin API. The recovery
// token is single use; the backend burns it during verification, so a failed
// password update requires requesting a new email.
type FinalizePasswordResetHandler struct {
	backend  IdentityBackend
	logger   Logger
	activity ActivitySink
}

func NewFinalizePasswordResetHandler(backend IdentityBackend, logger Logger, sinks ...ActivitySink) *FinalizePasswordResetHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &FinalizePasswordResetHandler{
		backend:  backend,
		logger:   logger,
		activity: normalizeActivitySink(sinks),
	}
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, msg FinalizePasswordResetMessage) (*FinalizePasswordResetResponse, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		return h.execute(ctx, msg)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, msg FinalizePasswordResetMessage) (*FinalizePasswordResetResponse, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*15)
	defer cancel()

	identity, err := h.backend.VerifyRecoveryToken(ctx, msg.Token)
	if err != nil {
		return nil, withSource(ErrRecoveryTokenInvalid, err)
	}

	if identity == nil || identity.ID == "" {
		return nil, ErrRecoveryTokenInvalid.Clone()
	}

	if err := h.backend.AdminUpdatePassword(ctx, identity.ID, msg.NewPassword); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not update password").
			WithCode(goerrors.CodeInternal)
	}

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventPasswordResetComplete,
		UserID:    identity.ID,
		Email:     identity.Email,
	})

	return &FinalizePasswordResetResponse{
		Message: "password updated successfully",
	}, nil
}
