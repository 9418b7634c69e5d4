package clarix

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodeTokenExpired marks bearer tokens past their expiry.
	TextCodeTokenExpired = "TOKEN_EXPIRED"
	// TextCodeEmailTaken marks registration attempts against an existing email.
	TextCodeEmailTaken = "EMAIL_ALREADY_REGISTERED"
	// TextCodeEmailUnverified marks sign-in attempts before email confirmation.
	TextCodeEmailUnverified = "EMAIL_NOT_VERIFIED"
)

// ErrWeakPassword is returned when a password fails the minimum length policy.
var ErrWeakPassword = goerrors.New("password must be at least 6 characters", goerrors.CategoryValidation).
	WithCode(422)

// ErrEmailTaken is returned when the registration email already has a profile.
var ErrEmailTaken = goerrors.New("email already registered", goerrors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(goerrors.CodeConflict)

// ErrInvalidCredentials is the generic sign-in rejection.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// ErrEmailUnverified is returned when the auth backend refuses a session
// because the email was never confirmed. The original behavior surfaces this
// as a server error rather than 401 so clients can distinguish it from bad
// credentials.
var ErrEmailUnverified = goerrors.New("requires email verification", goerrors.CategoryInternal).
	WithTextCode(TextCodeEmailUnverified).
	WithCode(goerrors.CodeInternal)

// ErrInvalidRefreshToken rejects refresh attempts with unusable tokens.
var ErrInvalidRefreshToken = goerrors.New("invalid or expired refresh token", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned by the verifier for expired bearer tokens.
var ErrTokenExpired = goerrors.New("token expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenInvalid covers every other verification failure: bad signature,
// malformed token, wrong audience.
var ErrTokenInvalid = goerrors.New("invalid token", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// ErrMissingSubject is returned for otherwise valid tokens without a subject claim.
var ErrMissingSubject = goerrors.New("missing subject", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// ErrEmailNotFound rejects recovery requests for unknown emails.
var ErrEmailNotFound = goerrors.New("email not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrRecoveryTokenInvalid rejects unusable password recovery tokens.
var ErrRecoveryTokenInvalid = goerrors.New("invalid or expired recovery token", goerrors.CategoryBadInput).
	WithCode(goerrors.CodeBadRequest)

// ErrRecoverySend is the generic failure for recovery email delivery.
var ErrRecoverySend = goerrors.New("could not send recovery email", goerrors.CategoryInternal).
	WithCode(goerrors.CodeInternal)

// ErrRecoveryThrottled is returned when the backend rate limits recovery emails.
var ErrRecoveryThrottled = goerrors.New("too many recovery requests, try again later", goerrors.CategoryRateLimit).
	WithCode(429)

// ErrOnboardingNotStarted is returned when no onboarding row exists for a user.
var ErrOnboardingNotStarted = goerrors.New("onboarding not started", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrAccountCreate is the generic failure for identity creation at the backend.
var ErrAccountCreate = goerrors.New("could not create account", goerrors.CategoryInternal).
	WithCode(goerrors.CodeInternal)

// ErrProfileCreate is the generic failure for profile row creation.
var ErrProfileCreate = goerrors.New("could not create user profile", goerrors.CategoryInternal).
	WithCode(goerrors.CodeInternal)

// ErrProfileMissing flags an auth identity without a matching profile row.
// This is a data-integrity fault, not a user error.
var ErrProfileMissing = goerrors.New("user profile not found", goerrors.CategoryInternal).
	WithCode(goerrors.CodeInternal)

// backendRule maps a known substring of an auth backend error message to an
// internal error kind. The backend does not expose structured error codes on
// these paths, so message matching is a compatibility shim; the rules live
// here, in one place, so a backend upgrade only touches this table.
// TODO: switch to the backend's error_code field once it ships on the
// signup/token endpoints.
type backendRule struct {
	contains string
	err      *goerrors.Error
}

var signUpRules = []backendRule{
	{contains: "already registered", err: ErrEmailTaken},
	{contains: "already been registered", err: ErrEmailTaken},
}

var signInRules = []backendRule{
	{contains: "not confirmed", err: ErrEmailUnverified},
}

var recoveryRules = []backendRule{
	{contains: "rate limit", err: ErrRecoveryThrottled},
	{contains: "security purposes", err: ErrRecoveryThrottled},
}

// classifyBackendError returns the internal error kind for a backend failure.
// Unmatched messages resolve to the fallback kind; the original cause is kept
// as the error source for logging.
func classifyBackendError(err error, rules []backendRule, fallback *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}

	msg := strings.ToLower(err.Error())
	for _, rule := range rules {
		if strings.Contains(msg, rule.contains) {
			return withSource(rule.err, err)
		}
	}

	return withSource(fallback, err)
}

func withSource(kind *goerrors.Error, cause error) *goerrors.Error {
	clone := kind.Clone()
	clone.Source = cause
	return clone.WithMetadata(map[string]any{
		"cause": cause.Error(),
	})
}
