package clarix

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Logger is the minimal logging surface used across the package. Calls pass
// a message followed by alternating key/value pairs, the way glog and slog
// take them; glog.Logger satisfies this interface directly.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Identity is the subset of the auth backend's user record this service
// cares about. The ID is the stable external identifier joined against the
// local profile's uuid column.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session holds the ephemeral tokens issued by the auth backend. Sessions are
// never persisted here; they are forwarded to the client verbatim.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int       `json:"expires_in"`
	User         *Identity `json:"user,omitempty"`
}

// IdentityBackend is the auth backend surface used by the workflow handlers.
// Token issuance and password storage are delegated entirely to it.
type IdentityBackend interface {
	SignUp(ctx context.Context, email, password string) (*Identity, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	RefreshSession(ctx context.Context, refreshToken string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
	SendRecoveryEmail(ctx context.Context, email string) error
	VerifyRecoveryToken(ctx context.Context, tokenHash string) (*Identity, error)
	AdminUpdatePassword(ctx context.Context, userID, newPassword string) error
	AdminDeleteUser(ctx context.Context, userID string) error
}

// CustomerRequest is the payload for registering a billing customer with the
// payment provider.
type CustomerRequest struct {
	Name      string
	Email     string
	Cellphone string
	TaxID     string
}

// PaymentCustomers registers billing customers with the external payment
// provider. Implementations must be safe to call with a disabled client;
// callers treat every failure as non fatal.
type PaymentCustomers interface {
	Enabled() bool
	CreateCustomer(ctx context.Context, req CustomerRequest) (string, error)
}

// TokenVerifier validates bearer tokens issued by the auth backend and
// extracts claims without tying callers to a signing implementation.
type TokenVerifier interface {
	Verify(tokenString string) (AuthClaims, error)
}

// defLogger is the fallback when no logger is injected. It renders the
// key/value args as key=value pairs after the message.
type defLogger struct{}

var defLogOutput io.Writer = os.Stdout

func (d defLogger) Error(msg string, args ...any) { defLogPrint("ERR", msg, args) }

func (d defLogger) Warn(msg string, args ...any) { defLogPrint("WRN", msg, args) }

func (d defLogger) Info(msg string, args ...any) { defLogPrint("INF", msg, args) }

func (d defLogger) Debug(msg string, args ...any) { defLogPrint("DBG", msg, args) }

func defLogPrint(level, msg string, args []any) {
	var b strings.Builder
	b.WriteString("[" + level + "] CLARIX " + msg)

	i := 0
	for ; i+1 < len(args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	if i < len(args) {
		fmt.Fprintf(&b, " %v", args[i])
	}

	fmt.Fprintln(defLogOutput, b.String())
}
