package clarix

import (
	stderrors "errors"
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// ExpectedAudience is the audience claim the auth backend stamps on every
// session token.
const ExpectedAudience = "authenticated"

// jwksFetcher resolves a JWKS URL into a key resolution function. Split out
// so tests can inject fake key sets without an HTTP round trip.
type jwksFetcher func(jwksURL string) (jwt.Keyfunc, error)

func defaultJWKSFetcher(jwksURL string) (jwt.Keyfunc, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshTimeout: time.Second * 10,
	})
	if err != nil {
		return nil, err
	}
	return jwks.Keyfunc, nil
}

// Verifier validates backend-issued bearer tokens. HS256 tokens verify
// against the shared project secret; asymmetric tokens resolve their signing
// key from the backend's published key set, fetched lazily on first use and
// cached for the process lifetime. Key rotation therefore requires a process
// restart; Reset exists for tests and operational workarounds.
type Verifier struct {
	secret  []byte
	jwksURL string
	logger  Logger

	mu      sync.Mutex
	keyfn   jwt.Keyfunc
	fetcher jwksFetcher
}

var _ TokenVerifier = (*Verifier)(nil)

type VerifierOption func(*Verifier)

// WithVerifierLogger overrides the logger used by the verifier.
func WithVerifierLogger(logger Logger) VerifierOption {
	return func(v *Verifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithJWKSFetcher overrides how the key set is acquired. Tests use this to
// serve fake key sets.
func WithJWKSFetcher(fetcher jwksFetcher) VerifierOption {
	return func(v *Verifier) {
		if fetcher != nil {
			v.fetcher = fetcher
		}
	}
}

// NewVerifier creates a token verifier. jwksURL is the backend's key set
// discovery endpoint; secret is the project's shared HS256 secret.
func NewVerifier(secret, jwksURL string, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		secret:  []byte(secret),
		jwksURL: jwksURL,
		logger:  defLogger{},
		fetcher: defaultJWKSFetcher,
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Verify parses and validates a token string, returning its claims.
func (v *Verifier) Verify(tokenString string) (AuthClaims, error) {
	alg, err := tokenAlgorithm(tokenString)
	if err != nil {
		return nil, withSource(ErrTokenInvalid, err)
	}

	keyFn := v.secretKeyfunc
	if !strings.HasPrefix(alg, "HS") {
		keyFn, err = v.remoteKeyfunc()
		if err != nil {
			return nil, withSource(ErrTokenInvalid, err)
		}
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, keyFn,
		jwt.WithAudience(ExpectedAudience),
	)
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, withSource(ErrTokenExpired, err)
		}
		return nil, withSource(ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid.Clone()
	}

	return claims, nil
}

// Reset drops the cached key set; the next asymmetric verification fetches a
// fresh one.
func (v *Verifier) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.keyfn = nil
}

func (v *Verifier) secretKeyfunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, goerrors.New("unexpected signing method", goerrors.CategoryAuth)
	}
	return v.secret, nil
}

// remoteKeyfunc returns the cached key set, fetching it on first use. The
// mutex makes concurrent first calls race-free: one caller fetches, the rest
// wait and reuse the result.
func (v *Verifier) remoteKeyfunc() (jwt.Keyfunc, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.keyfn != nil {
		return v.keyfn, nil
	}

	keyFn, err := v.fetcher(v.jwksURL)
	if err != nil {
		v.logger.Error("verifier could not fetch key set", "url", v.jwksURL, "error", err)
		return nil, err
	}

	v.keyfn = keyFn
	return v.keyfn, nil
}

// tokenAlgorithm reads the declared signing algorithm from the token header
// without verifying the signature.
func tokenAlgorithm(tokenString string) (string, error) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return "", err
	}

	alg, _ := token.Header["alg"].(string)
	if alg == "" {
		return "", goerrors.New("token header missing algorithm", goerrors.CategoryAuth)
	}

	return alg, nil
}
