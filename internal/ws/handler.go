package ws

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"github.com/dukerupert/farthing/internal/auth"
)

// FamilyResolver maps an authenticated user to the family they belong to.
type FamilyResolver func(ctx context.Context, userID int64) (int64, error)

// Handler returns an HTTP handler that upgrades connections to WebSocket and
// runs them as hub clients scoped to the caller's family. It must be mounted
// behind authentication middleware.
func Handler(hub *Hub, resolve FamilyResolver, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserID(r.Context())
		if userID == 0 {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}

		familyID, err := resolve(r.Context(), userID)
		if err != nil {
			http.Error(w, "no family", http.StatusForbidden)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true, // Same-host clients, origin check not useful
		})
		if err != nil {
			logger.Error("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn, familyID)
		client.Run(r.Context())
	}
}
