package clarix

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"github.com/goliatone/go-repository-bun"
)

// DefaultSessionTTL is used when the auth backend omits expires_in.
const DefaultSessionTTL = 3600

type LoginMessage struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (m LoginMessage) Type() string { return "user.login" }

func (m LoginMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Email, validation.Required, is.Email),
		validation.Field(&m.Password, validation.Required),
	)
}

// LoginResponse flattens the profile row and session tokens into the shape
// the mobile client expects.
type LoginResponse struct {
	ID                  int64     `json:"id"`
	UUID                uuid.UUID `json:"uuid"`
	Name                string    `json:"name"`
	Email               string    `json:"email"`
	AccessToken         string    `json:"access_token"`
	RefreshToken        string    `json:"refresh_token"`
	ExpiresIn           int       `json:"expires_in"`
	OnboardingCompleted bool      `json:"onboarding_completed"`
}

// LoginHandler exchanges credentials for a backend session and attaches the
// local profile row to the response. Credential failures collapse into a
// single generic rejection; only the unverified-email case is surfaced
// separately.
type LoginHandler struct {
	repo     RepositoryManager
	backend  IdentityBackend
	logger   Logger
	activity ActivitySink
}

func NewLoginHandler(repo RepositoryManager, backend IdentityBackend, logger Logger, sinks ...ActivitySink) *LoginHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &LoginHandler{
		repo:     repo,
		backend:  backend,
		logger:   logger,
		activity: normalizeActivitySink(sinks),
	}
}

func (h *LoginHandler) Execute(ctx context.Context, msg LoginMessage) (*LoginResponse, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		return h.execute(ctx, msg)
	}
}

func (h *LoginHandler) execute(ctx context.Context, msg LoginMessage) (*LoginResponse, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*15)
	defer cancel()

	session, err := h.backend.SignInWithPassword(ctx, msg.Email, msg.Password)
	if err != nil {
		recordActivity(ctx, h.activity, h.logger, ActivityEvent{
			EventType: ActivityEventLoginFailure,
			Email:     msg.Email,
		})
		return nil, classifyBackendError(err, signInRules, ErrInvalidCredentials)
	}

	// A sign-in that yields no session means the account exists but cannot
	// issue tokens yet, which for this backend is a pending confirmation.
	if session == nil || session.AccessToken == "" {
		return nil, ErrEmailUnverified.Clone()
	}

	if session.ExpiresIn <= 0 {
		session.ExpiresIn = DefaultSessionTTL
	}

	user, err := h.lookupProfile(ctx, session)
	if err != nil {
		return nil, err
	}

	completed, err := h.repo.Onboardings().IsCompleted(ctx, user.UUID)
	if err != nil {
		h.logger.Error("login onboarding lookup failed", "user_uuid", user.UUID, "error", err)
		completed = false
	}

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		UserID:    user.UUID.String(),
		Email:     user.Email,
	})

	return &LoginResponse{
		ID:                  user.ID,
		UUID:                user.UUID,
		Name:                user.Name,
		Email:               user.Email,
		AccessToken:         session.AccessToken,
		RefreshToken:        session.RefreshToken,
		ExpiresIn:           session.ExpiresIn,
		OnboardingCompleted: completed,
	}, nil
}

func (h *LoginHandler) lookupProfile(ctx context.Context, session *Session) (*User, error) {
	if session.User == nil {
		return nil, ErrProfileMissing.Clone()
	}

	userUUID, err := uuid.Parse(session.User.ID)
	if err != nil {
		return nil, withSource(ErrProfileMissing, err)
	}

	user, err := h.repo.Users().GetByUUID(ctx, userUUID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			h.logger.Error("login identity has no profile row", "identity_id", session.User.ID)
		}
		return nil, withSource(ErrProfileMissing, err)
	}

	return user, nil
}
