package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/farthing/internal/auth"
	"github.com/dukerupert/farthing/internal/store"
	"github.com/dukerupert/farthing/internal/ws"
)

type FamilyHandler struct {
	families *store.FamilyStore
	members  *store.FamilyMemberStore
	users    *store.UserStore
	hub      *ws.Hub
	logger   *slog.Logger
}

func NewFamilyHandler(fs *store.FamilyStore, ms *store.FamilyMemberStore, us *store.UserStore, hub *ws.Hub, logger *slog.Logger) *FamilyHandler {
	return &FamilyHandler{families: fs, members: ms, users: us, hub: hub, logger: logger}
}

// Create makes a new family with the caller as owner. The owner's parent
// member record is created in the same transaction.
func (h *FamilyHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	existing, err := h.families.GetForUser(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check membership")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "you already belong to a family")
		return
	}

	user, err := h.users.GetByID(userID)
	if err != nil || user == nil {
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	family, err := h.families.Create(req.Name, userID, user.Name)
	if err != nil {
		h.logger.Error("create family", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create family")
		return
	}

	writeJSON(w, http.StatusCreated, family)
}

// Get returns the caller's family, or 404 if they have none.
func (h *FamilyHandler) Get(w http.ResponseWriter, r *http.Request) {
	family, err := h.families.GetForUser(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get family")
		return
	}
	if family == nil {
		writeError(w, http.StatusNotFound, "no family")
		return
	}
	writeJSON(w, http.StatusOK, family)
}

func (h *FamilyHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller := requireParent(w, r, h.members)
	if caller == nil {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	family, err := h.families.Update(caller.FamilyID, req.Name)
	if err != nil {
		h.logger.Error("update family", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update family")
		return
	}

	h.hub.Broadcast(family.ID, ws.NewEvent("family", "updated", family.ID))
	writeJSON(w, http.StatusOK, family)
}

func (h *FamilyHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	member, err := currentMember(r, h.members)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve member")
		return
	}
	if member == nil {
		writeError(w, http.StatusForbidden, "no family membership")
		return
	}

	settings, err := h.families.GetSettings(member.FamilyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get settings")
		return
	}
	if settings == nil {
		writeError(w, http.StatusNotFound, "settings not found")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// UpdateSettings replaces the family's cycle and vacation configuration.
// A null vacation_default_score means vacation days keep whatever score the
// caller supplies rather than forcing a default.
func (h *FamilyHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	caller := requireParent(w, r, h.members)
	if caller == nil {
		return
	}

	var req struct {
		BudgetCycleStartDay  int  `json:"budget_cycle_start_day"`
		VacationDefaultScore *int `json:"vacation_default_score"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.BudgetCycleStartDay < 1 || req.BudgetCycleStartDay > 31 {
		writeError(w, http.StatusBadRequest, "budget_cycle_start_day must be between 1 and 31")
		return
	}
	if req.VacationDefaultScore != nil && (*req.VacationDefaultScore < 1 || *req.VacationDefaultScore > 5) {
		writeError(w, http.StatusBadRequest, "vacation_default_score must be between 1 and 5")
		return
	}

	settings, err := h.families.UpdateSettings(caller.FamilyID, req.BudgetCycleStartDay, req.VacationDefaultScore)
	if err != nil {
		h.logger.Error("update settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update settings")
		return
	}

	h.hub.Broadcast(caller.FamilyID, ws.NewEvent("family_settings", "updated", caller.FamilyID))
	writeJSON(w, http.StatusOK, settings)
}
