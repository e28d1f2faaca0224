package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/farthing/internal/auth"
	"github.com/dukerupert/farthing/internal/dates"
	"github.com/dukerupert/farthing/internal/model"
	"github.com/dukerupert/farthing/internal/store"
)

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// parseDateQuery reads a YYYY-MM-DD query parameter, defaulting to today
// when absent.
func parseDateQuery(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Now(), nil
	}
	return dates.Parse(raw)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// currentMember resolves the authenticated user's family member record, or
// nil when the user has not joined a family yet.
func currentMember(r *http.Request, members *store.FamilyMemberStore) (*model.FamilyMember, error) {
	userID := auth.UserID(r.Context())
	if userID == 0 {
		return nil, nil
	}
	return members.GetByUserID(userID)
}

// requireParent resolves the caller's member record and rejects the request
// unless the caller is a parent. It writes the error response itself and
// returns nil when the request should stop.
func requireParent(w http.ResponseWriter, r *http.Request, members *store.FamilyMemberStore) *model.FamilyMember {
	member, err := currentMember(r, members)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve member")
		return nil
	}
	if member == nil {
		writeError(w, http.StatusForbidden, "no family membership")
		return nil
	}
	if member.Role != model.RoleParent {
		writeError(w, http.StatusForbidden, "parent role required")
		return nil
	}
	return member
}
