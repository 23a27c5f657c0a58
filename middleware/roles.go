package middleware

import (
	"net/http"

	"github.com/MrEthical07/storeauth"
)

// AllowRoles admits only callers whose role is an exact member of the
// given set. Mount behind Authenticate.
func AllowRoles(roles ...storeauth.Role) func(http.Handler) http.Handler {
	allowed := make(map[storeauth.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	var highest storeauth.Role
	for _, r := range roles {
		if r > highest {
			highest = r
		}
	}
	return requireRole(func(actual storeauth.Role) bool {
		_, ok := allowed[actual]
		return ok
	}, highest)
}

// RequireMinimumRole admits callers at or above min in the hierarchy
// CUSTOMER < SUPPORT < ADMIN < SUPER_ADMIN.
func RequireMinimumRole(min storeauth.Role) func(http.Handler) http.Handler {
	return requireRole(func(actual storeauth.Role) bool {
		return actual.AtLeast(min)
	}, min)
}

// ExcludeRole rejects exactly one role and admits everything else.
func ExcludeRole(excluded storeauth.Role) func(http.Handler) http.Handler {
	return requireRole(func(actual storeauth.Role) bool {
		return actual != excluded
	}, excluded)
}

// requireRole builds the shared denial path. Denials carry the required
// and actual roles in the response body so operators can see which check
// fired; they are never silent.
func requireRole(admit func(storeauth.Role) bool, required storeauth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromRequest(r)
			if !ok {
				WriteError(w, http.StatusUnauthorized, storeauth.ErrNoToken)
				return
			}
			if !admit(identity.Role) {
				WriteError(w, http.StatusForbidden, &storeauth.RoleError{
					Required: required,
					Actual:   identity.Role,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
