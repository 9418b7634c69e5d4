package clarix

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

type RefreshSessionMessage struct {
	RefreshToken string `json:"refresh_token"`
}

func (m RefreshSessionMessage) Type() string { return "session.refresh" }

func (m RefreshSessionMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.RefreshToken, validation.Required),
	)
}

type RefreshSessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// RefreshSessionHandler rotates a session through the auth backend. The new
// refresh token replaces the old one, which the backend invalidates.
type RefreshSessionHandler struct {
	backend IdentityBackend
	logger  Logger
}

func NewRefreshSessionHandler(backend IdentityBackend, logger Logger) *RefreshSessionHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &RefreshSessionHandler{
		backend: backend,
		logger:  logger,
	}
}

func (h *RefreshSessionHandler) Execute(ctx context.Context, msg RefreshSessionMessage) (*RefreshSessionResponse, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		return h.execute(ctx, msg)
	}
}

func (h *RefreshSessionHandler) execute(ctx context.Context, msg RefreshSessionMessage) (*RefreshSessionResponse, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	session, err := h.backend.RefreshSession(ctx, msg.RefreshToken)
	if err != nil {
		return nil, withSource(ErrInvalidRefreshToken, err)
	}

	if session == nil || session.AccessToken == "" {
		return nil, ErrInvalidRefreshToken.Clone()
	}

	if session.ExpiresIn <= 0 {
		session.ExpiresIn = DefaultSessionTTL
	}

	return &RefreshSessionResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    session.ExpiresIn,
	}, nil
}
