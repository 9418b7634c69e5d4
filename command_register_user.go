package clarix

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
)

// RegisterUserMessage carries a registration request. The alternate json
// names keep compatibility with the mobile client, which still sends cpf,
// whatsapp and activeBot.
type RegisterUserMessage struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone"`
	Whatsapp  string `json:"whatsapp"`
	TaxID     string `json:"taxId"`
	CPF       string `json:"cpf"`
	ActiveBot bool   `json:"activeBot"`
}

func (m RegisterUserMessage) Type() string { return "user.register" }

func (m RegisterUserMessage) Validate() error {
	if len(m.Password) < 6 {
		return ErrWeakPassword.Clone()
	}

	return validation.ValidateStruct(&m,
		validation.Field(&m.Name, validation.Required),
		validation.Field(&m.Email, validation.Required, is.Email),
		validation.Field(&m.Password, validation.Required),
	)
}

// phoneNumber returns the preferred phone value, `phone` winning over the
// legacy `whatsapp` alias.
func (m RegisterUserMessage) phoneNumber() string {
	if m.Phone != "" {
		return m.Phone
	}
	return m.Whatsapp
}

func (m RegisterUserMessage) taxID() string {
	if m.TaxID != "" {
		return m.TaxID
	}
	return m.CPF
}

// RegisteredUser is the slim projection returned on registration. The
// account is unusable until the verification email is confirmed, so only
// the email goes back to the client.
type RegisteredUser struct {
	Email string `json:"email"`
}

type RegisterUserResponse struct {
	User   RegisteredUser `json:"user"`
	Detail string         `json:"detail"`
}

// RegisterUserHandler creates the auth identity and its profile row. The
// identity backend owns credentials; the profile row is ours. When the
// profile insert fails after the identity exists, the identity is deleted
// best effort so the email can be retried.
type RegisterUserHandler struct {
	repo     RepositoryManager
	backend  IdentityBackend
	payments PaymentCustomers
	logger   Logger
	activity ActivitySink
}

func NewRegisterUserHandler(repo RepositoryManager, backend IdentityBackend, payments PaymentCustomers, logger Logger, sinks ...ActivitySink) *RegisterUserHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &RegisterUserHandler{
		repo:     repo,
		backend:  backend,
		payments: payments,
		logger:   logger,
		activity: normalizeActivitySink(sinks),
	}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, msg RegisterUserMessage) (*RegisterUserResponse, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		return h.execute(ctx, msg)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, msg RegisterUserMessage) (*RegisterUserResponse, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*30)
	defer cancel()

	taken, err := h.repo.Users().EmailExists(ctx, msg.Email)
	if err != nil {
		return nil, withSource(ErrAccountCreate, err)
	}
	if taken {
		return nil, ErrEmailTaken.Clone()
	}

	identity, err := h.backend.SignUp(ctx, msg.Email, msg.Password)
	if err != nil {
		return nil, classifyBackendError(err, signUpRules, ErrAccountCreate)
	}

	userUUID, err := uuid.Parse(identity.ID)
	if err != nil {
		return nil, withSource(ErrAccountCreate, err)
	}

	record := &User{
		UUID:      userUUID,
		Name:      msg.Name,
		Email:     msg.Email,
		Phone:     msg.phoneNumber(),
		TaxID:     msg.taxID(),
		ActiveBot: msg.ActiveBot,
	}

	user, err := h.repo.Users().Create(ctx, record)
	if err != nil {
		h.logger.Error("register profile insert failed, removing identity", "error", err)
		h.compensateIdentity(ctx, identity.ID)
		return nil, withSource(ErrProfileCreate, err)
	}

	h.enrollPaymentCustomer(user)

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventRegisterSuccess,
		UserID:    user.UUID.String(),
		Email:     user.Email,
	})

	return &RegisterUserResponse{
		User:   RegisteredUser{Email: user.Email},
		Detail: "email verification pending",
	}, nil
}

// compensateIdentity removes the orphaned auth identity after a failed
// profile insert. Failure here leaves an identity without a profile; we log
// and move on, the admin console can clean it up.
func (h *RegisterUserHandler) compensateIdentity(ctx context.Context, identityID string) {
	if err := h.backend.AdminDeleteUser(ctx, identityID); err != nil {
		h.logger.Error("register identity cleanup failed, orphaned identity", "identity_id", identityID, "error", err)
		return
	}

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventRegisterCompensated,
		UserID:    identityID,
	})
}

// enrollPaymentCustomer registers the billing customer in the background.
// Registration never waits on, or fails because of, the payment provider.
func (h *RegisterUserHandler) enrollPaymentCustomer(user *User) {
	if h.payments == nil || !h.payments.Enabled() {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
		defer cancel()

		// The provider wants the national display format; the profile keeps
		// the number as the client sent it.
		customerID, err := h.payments.CreateCustomer(ctx, CustomerRequest{
			Name:      user.Name,
			Email:     user.Email,
			Cellphone: FormatPhone(user.Phone),
			TaxID:     user.TaxID,
		})
		if err != nil {
			h.logger.Error("payment customer enrollment failed", "user_uuid", user.UUID, "error", err)
			return
		}

		if err := h.repo.Users().UpdateCustomerID(ctx, user.UUID, customerID); err != nil {
			h.logger.Error("could not store payment customer id", "customer_id", customerID, "user_uuid", user.UUID, "error", err)
			return
		}

		recordActivity(ctx, h.activity, h.logger, ActivityEvent{
			EventType: ActivityEventCustomerCreated,
			UserID:    user.UUID.String(),
			Email:     user.Email,
			Metadata:  map[string]any{"customer_id": customerID},
		})
	}()
}
