package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/dukerupert/farthing/internal/auth"
	"github.com/dukerupert/farthing/internal/store"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "farthing_session"

// RequireAuth validates the session cookie and populates the auth context.
// Every persistence-touching route sits behind this middleware, so no data
// operation can run without an authenticated identity.
func RequireAuth(sessions *store.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			sess, err := sessions.GetByToken(cookie.Value)
			if err != nil || sess == nil {
				unauthorized(w)
				return
			}

			ac := auth.Context{
				UserID:    sess.UserID,
				SessionID: sess.ID,
			}

			ctx := auth.WithContext(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "authentication required"})
}
