package middleware

import (
	"net/http"

	"github.com/JonMunkholm/csvdash/internal/config"
	"github.com/JonMunkholm/csvdash/internal/session"
)

// Session attaches the browser's session id to the request context,
// issuing a new cookie when the request has none or an invalid one. The
// cookie is refreshed on every request so its lifetime follows the idle TTL.
func Session(cfg *config.SessionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(cfg.CookieName); err == nil && session.ValidID(c.Value) {
				id = c.Value
			} else {
				id = session.NewID()
			}

			http.SetCookie(w, &http.Cookie{
				Name:     cfg.CookieName,
				Value:    id,
				Path:     "/",
				MaxAge:   int(cfg.TTL.Seconds()),
				HttpOnly: true,
				Secure:   cfg.SecureCookie,
				SameSite: http.SameSiteLaxMode,
			})

			next.ServeHTTP(w, r.WithContext(session.ContextWithID(r.Context(), id)))
		})
	}
}
