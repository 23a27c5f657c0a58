package middleware

import (
	"net/http"
	"strings"

	"github.com/MrEthical07/storeauth"
)

// Authenticate resolves the bearer access token into an [storeauth.Identity]
// and attaches it to the request context. Missing, malformed, or revoked
// credentials end the request with the engine's error code; handlers
// behind this middleware can assume IdentityFromRequest succeeds.
func Authenticate(engine *storeauth.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				WriteError(w, http.StatusUnauthorized, storeauth.ErrNoToken)
				return
			}
			identity, err := engine.ResolveAccess(r.Context(), token)
			if err != nil {
				WriteError(w, statusFor(err), err)
				return
			}
			ctx := storeauth.WithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches an identity when a valid bearer token is present
// and passes the request through untouched otherwise. Handlers distinguish
// the two via the ok result of IdentityFromRequest.
func OptionalAuth(engine *storeauth.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
				if identity, err := engine.ResolveAccess(r.Context(), token); err == nil {
					r = r.WithContext(storeauth.WithIdentity(r.Context(), identity))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFromRequest returns the identity attached by Authenticate or
// OptionalAuth.
func IdentityFromRequest(r *http.Request) (storeauth.Identity, bool) {
	return storeauth.IdentityFrom(r.Context())
}

// ClientIP attaches the remote address to the request context so the
// engine's rate limiter and audit events can key on it. Mount it outermost.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if i := strings.LastIndexByte(ip, ':'); i > 0 {
			ip = ip[:i]
		}
		next.ServeHTTP(w, r.WithContext(storeauth.WithClientIP(r.Context(), ip)))
	})
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}
	token := value[len(bearer):]
	if token == "" {
		return "", false
	}
	return token, true
}

func statusFor(err error) int {
	switch storeauth.ErrorCode(err) {
	case "NO_TOKEN", "INVALID_TOKEN", "TOKEN_REVOKED", "USER_NOT_FOUND", "INVALID_USER":
		return http.StatusUnauthorized
	case "ACCOUNT_BLOCKED", "ACCOUNT_INACTIVE", "INSUFFICIENT_PERMISSIONS":
		return http.StatusForbidden
	case "RATE_LIMITED":
		return http.StatusTooManyRequests
	case "INFRASTRUCTURE_ERROR":
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}
