package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	// CartSessionCookie carries the anonymous cart identity.
	CartSessionCookie = "cart_session"

	cartSessionMaxAge = 30 * 24 * time.Hour
)

// CartSession binds the request to a cart session cookie, minting one when
// the browser shows up without it. The cookie is the only cart identity;
// there are no accounts.
func CartSession(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := ""
			if cookie, err := r.Cookie(CartSessionCookie); err == nil {
				if _, parseErr := uuid.Parse(cookie.Value); parseErr == nil {
					sessionID = cookie.Value
				}
			}

			if sessionID == "" {
				sessionID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     CartSessionCookie,
					Value:    sessionID,
					Path:     "/",
					MaxAge:   int(cartSessionMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sessionID)))
		})
	}
}
