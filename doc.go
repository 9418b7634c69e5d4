// Package clarix implements the account API behind the Clarix apps: user
// registration, password login, session refresh, logout, password recovery
// and the onboarding status read used by the mobile client after sign in.
//
// Identity backend:
//   - Credentials, sessions and recovery tokens live in a managed auth
//     service (provider/supabase). The package owns the profile row that
//     mirrors each identity, keyed by the identity UUID, persisted via Bun.
//   - Registration is a two-step write: identity first, profile second. When
//     the profile insert fails the identity is deleted best-effort so the
//     email can be reused.
//
// Workflows:
//   - Each operation is a Message (validated input) plus a Handler with an
//     Execute(ctx, msg) method. Handlers return rich errors from
//     goliatone/go-errors; the HTTP layer maps their codes to statuses and
//     renders a single detail field.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter fed by the workflow
//     handlers (registrations, logins, logouts, password resets, billing
//     enrollment). Sinks run best-effort (errors are logged) so a slow or
//     broken sink never blocks authentication.
//
// Token verification:
//   - Verifier checks access tokens issued by the auth service, using the
//     shared HMAC secret or the service's JWKS endpoint depending on the
//     token's algorithm. middleware/jwtware turns it into a Fiber guard.
package clarix
