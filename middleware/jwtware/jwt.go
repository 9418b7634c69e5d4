// Package jwtware guards fiber routes behind bearer token verification.
package jwtware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

const (
	// DefaultContextKey is where validated claims are stored on the request.
	DefaultContextKey = "auth_claims"
	// DefaultUserKey is where the authenticated user's id is stored on the
	// request.
	DefaultUserKey = "user_id"
)

var ErrJWTMissingOrMalformed = goerrors.New("missing or malformed token", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

var errMissingSubject = goerrors.New("missing subject", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// AuthClaims mirrors the root package's claim surface so this package does
// not depend on it.
type AuthClaims interface {
	UserID() string
	Email() string
	Expires() time.Time
}

// TokenVerifier validates a raw bearer token and returns its claims.
type TokenVerifier interface {
	Verify(tokenString string) (AuthClaims, error)
}

// VerifierFunc adapts a plain function, typically a closure over another
// package's verifier, into a TokenVerifier.
type VerifierFunc func(tokenString string) (AuthClaims, error)

func (f VerifierFunc) Verify(tokenString string) (AuthClaims, error) {
	return f(tokenString)
}

type Config struct {
	// Filter skips the middleware when it returns true.
	Filter func(*fiber.Ctx) bool

	// Verifier is required.
	Verifier TokenVerifier

	// ErrorHandler renders verification failures. Defaults to a 401 with a
	// detail body.
	ErrorHandler fiber.ErrorHandler

	// ContextKey is where claims are stored in request locals.
	ContextKey string

	// UserKey is where the subject is stored in request locals.
	UserKey string

	// AuthScheme is the expected Authorization scheme.
	AuthScheme string
}

func configDefault(config ...Config) Config {
	cfg := Config{}
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}

	if cfg.UserKey == "" {
		cfg.UserKey = DefaultUserKey
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}

	return cfg
}

// New creates a middleware that rejects requests without a verifiable bearer
// token. Claims and the subject are stored in request locals for handlers.
func New(config ...Config) fiber.Handler {
	cfg := configDefault(config...)

	if cfg.Verifier == nil {
		panic("jwtware: Verifier is required")
	}

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, err := TokenFromHeader(c, cfg.AuthScheme)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		claims, err := cfg.Verifier.Verify(raw)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		if claims.UserID() == "" {
			return cfg.ErrorHandler(c, errMissingSubject.Clone())
		}

		c.Locals(cfg.ContextKey, claims)
		c.Locals(cfg.UserKey, claims.UserID())

		return c.Next()
	}
}

// TokenFromHeader extracts the raw token from the Authorization header.
func TokenFromHeader(c *fiber.Ctx, scheme string) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", ErrJWTMissingOrMalformed.Clone()
	}

	prefix := scheme + " "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", ErrJWTMissingOrMalformed.Clone()
	}

	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", ErrJWTMissingOrMalformed.Clone()
	}

	return token, nil
}

// ClaimsFromContext returns the claims stored by the middleware, nil when the
// request was not authenticated.
func ClaimsFromContext(c *fiber.Ctx, key ...string) AuthClaims {
	k := DefaultContextKey
	if len(key) > 0 && key[0] != "" {
		k = key[0]
	}

	claims, _ := c.Locals(k).(AuthClaims)
	return claims
}

func defaultErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusUnauthorized
	detail := "invalid or missing token"

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		if rich.Code != 0 {
			status = rich.Code
		}
		if rich.Message != "" {
			detail = rich.Message
		}
	}

	return c.Status(status).JSON(fiber.Map{"detail": detail})
}
