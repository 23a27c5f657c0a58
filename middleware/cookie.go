package middleware

import (
	"net/http"
	"time"
)

// RefreshCookieName is the cookie carrying the refresh token.
const RefreshCookieName = "storeauth_refresh"

// SetRefreshCookie delivers a refresh token over the protected channel:
// HttpOnly always, Secure plus SameSite=Strict in production, Lax
// otherwise so local HTTP development keeps working.
func SetRefreshCookie(w http.ResponseWriter, token string, ttl time.Duration, production bool) {
	cookie := &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if production {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteStrictMode
	}
	http.SetCookie(w, cookie)
}

// ClearRefreshCookie expires the refresh cookie. Pair it with
// Engine.Logout.
func ClearRefreshCookie(w http.ResponseWriter, production bool) {
	SetRefreshCookie(w, "", -time.Second, production)
}

// RefreshTokenFromRequest reads the refresh token off the cookie, "" when
// absent.
func RefreshTokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
