package middleware

import (
	"net/http"

	"github.com/ebrown/guildhall/internal/auth"
)

// SessionCookieName is the cookie carrying the household session token.
const SessionCookieName = "guildhall_session"

// RequireSession gates requests behind the shared household passcode. When no
// passcode is configured the gate is disabled and requests pass through.
func RequireSession(sessions *auth.Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !sessions.Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || !sessions.Valid(cookie.Value) {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
