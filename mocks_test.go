package clarix

import (
	"context"
	"database/sql"
	"sync"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type stubUsers struct {
	repository.Repository[*User]

	emailExists    bool
	emailExistsErr error

	profile    *User
	profileErr error

	created   *User
	createErr error

	customerIDs       map[uuid.UUID]string
	customerIDErr     error
	customerIDUpdated chan struct{}
}

func newStubUsers() *stubUsers {
	return &stubUsers{
		customerIDs:       map[uuid.UUID]string{},
		customerIDUpdated: make(chan struct{}, 1),
	}
}

func (s *stubUsers) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.emailExists, s.emailExistsErr
}

func (s *stubUsers) EmailExistsTx(ctx context.Context, tx bun.IDB, email string) (bool, error) {
	return s.EmailExists(ctx, email)
}

func (s *stubUsers) GetByUUID(ctx context.Context, userUUID uuid.UUID) (*User, error) {
	return s.profile, s.profileErr
}

func (s *stubUsers) GetByUUIDTx(ctx context.Context, tx bun.IDB, userUUID uuid.UUID) (*User, error) {
	return s.GetByUUID(ctx, userUUID)
}

func (s *stubUsers) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	prepareUserDefaults(record)
	record.ID = 1
	s.created = record
	return record, nil
}

func (s *stubUsers) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return s.Create(ctx, record, criteria...)
}

func (s *stubUsers) UpdateCustomerID(ctx context.Context, userUUID uuid.UUID, customerID string) error {
	if s.customerIDErr == nil {
		s.customerIDs[userUUID] = customerID
	}
	select {
	case s.customerIDUpdated <- struct{}{}:
	default:
	}
	return s.customerIDErr
}

func (s *stubUsers) UpdateCustomerIDTx(ctx context.Context, tx bun.IDB, userUUID uuid.UUID, customerID string) error {
	return s.UpdateCustomerID(ctx, userUUID, customerID)
}

type stubOnboardings struct {
	repository.Repository[*Onboarding]

	record    *Onboarding
	recordErr error

	completed    bool
	completedErr error
}

func (s *stubOnboardings) GetByUserUUID(ctx context.Context, userUUID uuid.UUID) (*Onboarding, error) {
	if s.recordErr != nil {
		return nil, s.recordErr
	}
	if s.record == nil {
		return nil, repository.NewRecordNotFound()
	}
	return s.record, nil
}

func (s *stubOnboardings) GetByUserUUIDTx(ctx context.Context, tx bun.IDB, userUUID uuid.UUID) (*Onboarding, error) {
	return s.GetByUserUUID(ctx, userUUID)
}

func (s *stubOnboardings) IsCompleted(ctx context.Context, userUUID uuid.UUID) (bool, error) {
	return s.completed, s.completedErr
}

func (s *stubOnboardings) IsCompletedTx(ctx context.Context, tx bun.IDB, userUUID uuid.UUID) (bool, error) {
	return s.IsCompleted(ctx, userUUID)
}

type stubRepoManager struct {
	users       *stubUsers
	onboardings *stubOnboardings
}

func newStubRepoManager() *stubRepoManager {
	return &stubRepoManager{
		users:       newStubUsers(),
		onboardings: &stubOnboardings{},
	}
}

func (m *stubRepoManager) Validate() error { return nil }
func (m *stubRepoManager) MustValidate()   {}

func (m *stubRepoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (m *stubRepoManager) Users() Users             { return m.users }
func (m *stubRepoManager) Onboardings() Onboardings { return m.onboardings }

type stubBackend struct {
	signUpCalls int
	identity    *Identity
	signUpErr   error

	session   *Session
	signInErr error

	refreshed  *Session
	refreshErr error

	signOutTokens []string
	signOutErr    error

	recoveryEmails []string
	recoveryErr    error

	verified  *Identity
	verifyErr error

	updatedPasswords map[string]string
	updateErr        error

	deletedUsers []string
	deleteErr    error
}

func newStubBackend() *stubBackend {
	return &stubBackend{
		updatedPasswords: map[string]string{},
	}
}

func (s *stubBackend) SignUp(ctx context.Context, email, password string) (*Identity, error) {
	s.signUpCalls++
	return s.identity, s.signUpErr
}

func (s *stubBackend) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	return s.session, s.signInErr
}

func (s *stubBackend) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	return s.refreshed, s.refreshErr
}

func (s *stubBackend) SignOut(ctx context.Context, accessToken string) error {
	s.signOutTokens = append(s.signOutTokens, accessToken)
	return s.signOutErr
}

func (s *stubBackend) SendRecoveryEmail(ctx context.Context, email string) error {
	s.recoveryEmails = append(s.recoveryEmails, email)
	return s.recoveryErr
}

func (s *stubBackend) VerifyRecoveryToken(ctx context.Context, tokenHash string) (*Identity, error) {
	return s.verified, s.verifyErr
}

func (s *stubBackend) AdminUpdatePassword(ctx context.Context, userID, newPassword string) error {
	if s.updateErr == nil {
		s.updatedPasswords[userID] = newPassword
	}
	return s.updateErr
}

func (s *stubBackend) AdminDeleteUser(ctx context.Context, userID string) error {
	s.deletedUsers = append(s.deletedUsers, userID)
	return s.deleteErr
}

type stubPayments struct {
	mu         sync.Mutex
	enabled    bool
	customerID string
	createErr  error
	requests   []CustomerRequest
}

func (s *stubPayments) Enabled() bool { return s.enabled }

func (s *stubPayments) CreateCustomer(ctx context.Context, req CustomerRequest) (string, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	return s.customerID, s.createErr
}

func (s *stubPayments) requestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *stubPayments) lastRequest() CustomerRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return CustomerRequest{}
	}
	return s.requests[len(s.requests)-1]
}
