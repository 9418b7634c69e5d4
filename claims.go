package clarix

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents the validated claims of a backend-issued token.
type AuthClaims interface {
	// UserID returns the subject claim, the auth identity's uuid.
	UserID() string
	Email() string
	Expires() time.Time
}

// SessionClaims is the concrete claim set carried by backend access tokens.
// Only the subject and email are interpreted by this service; the rest is
// kept so middleware can expose the full claim set to request handlers.
type SessionClaims struct {
	jwt.RegisteredClaims
	UserEmail string         `json:"email,omitempty"`
	Phone     string         `json:"phone,omitempty"`
	Role      string         `json:"role,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	Metadata  map[string]any `json:"user_metadata,omitempty"`
}

var _ AuthClaims = (*SessionClaims)(nil)

func (c *SessionClaims) UserID() string {
	return c.Subject
}

func (c *SessionClaims) Email() string {
	return c.UserEmail
}

// Expires returns the expiration time, zero when the claim is absent.
func (c *SessionClaims) Expires() time.Time {
	if c.ExpiresAt != nil {
		return c.ExpiresAt.Time
	}
	return time.Time{}
}
