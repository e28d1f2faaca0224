package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/farthing/internal/model"
	"github.com/dukerupert/farthing/internal/store"
	"github.com/dukerupert/farthing/internal/ws"
)

type FamilyMemberHandler struct {
	members *store.FamilyMemberStore
	hub     *ws.Hub
	logger  *slog.Logger
}

func NewFamilyMemberHandler(ms *store.FamilyMemberStore, hub *ws.Hub, logger *slog.Logger) *FamilyMemberHandler {
	return &FamilyMemberHandler{members: ms, hub: hub, logger: logger}
}

type memberRequest struct {
	Name          string           `json:"name"`
	Role          string           `json:"role"`
	BaseAllowance *decimal.Decimal `json:"base_allowance"`
}

// validate enforces the role and allowance pairing: children need a
// non-negative base allowance, parents must not have one.
func (req *memberRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name is required"
	}
	switch req.Role {
	case model.RoleParent:
		if req.BaseAllowance != nil {
			return "parents cannot have a base allowance"
		}
	case model.RoleChild:
		if req.BaseAllowance == nil {
			return "children require a base allowance"
		}
		if req.BaseAllowance.IsNegative() {
			return "base allowance cannot be negative"
		}
	default:
		return "role must be parent or child"
	}
	return ""
}

func (h *FamilyMemberHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, err := currentMember(r, h.members)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve member")
		return
	}
	if caller == nil {
		writeError(w, http.StatusForbidden, "no family membership")
		return
	}

	members, err := h.members.ListByFamily(caller.FamilyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	if members == nil {
		members = []model.FamilyMember{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *FamilyMemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller := requireParent(w, r, h.members)
	if caller == nil {
		return
	}

	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	member, err := h.members.Create(caller.FamilyID, req.Name, req.Role, req.BaseAllowance)
	if err != nil {
		h.logger.Error("create member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create member")
		return
	}

	h.hub.Broadcast(caller.FamilyID, ws.NewEvent("family_member", "created", member.ID))
	writeJSON(w, http.StatusCreated, member)
}

func (h *FamilyMemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	_, member := h.memberInCallerFamily(w, r)
	if member == nil {
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (h *FamilyMemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller := requireParent(w, r, h.members)
	if caller == nil {
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.members.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get member")
		return
	}
	if existing == nil || existing.FamilyID != caller.FamilyID {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}

	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	member, err := h.members.Update(id, req.Name, req.Role, req.BaseAllowance)
	if err != nil {
		h.logger.Error("update member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update member")
		return
	}

	h.hub.Broadcast(caller.FamilyID, ws.NewEvent("family_member", "updated", member.ID))
	writeJSON(w, http.StatusOK, member)
}

func (h *FamilyMemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller := requireParent(w, r, h.members)
	if caller == nil {
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if id == caller.ID {
		writeError(w, http.StatusBadRequest, "you cannot delete yourself")
		return
	}

	existing, err := h.members.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get member")
		return
	}
	if existing == nil || existing.FamilyID != caller.FamilyID {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}

	if err := h.members.Delete(id); err != nil {
		h.logger.Error("delete member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete member")
		return
	}

	h.hub.Broadcast(caller.FamilyID, ws.NewEvent("family_member", "deleted", id))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// memberInCallerFamily resolves the {id} member and checks it belongs to the
// caller's family. Both return values are nil after an error response has
// been written.
func (h *FamilyMemberHandler) memberInCallerFamily(w http.ResponseWriter, r *http.Request) (*model.FamilyMember, *model.FamilyMember) {
	caller, err := currentMember(r, h.members)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve member")
		return nil, nil
	}
	if caller == nil {
		writeError(w, http.StatusForbidden, "no family membership")
		return nil, nil
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, nil
	}

	member, err := h.members.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get member")
		return nil, nil
	}
	if member == nil || member.FamilyID != caller.FamilyID {
		writeError(w, http.StatusNotFound, "member not found")
		return nil, nil
	}
	return caller, member
}
