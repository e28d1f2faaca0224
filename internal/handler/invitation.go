package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/farthing/internal/auth"
	"github.com/dukerupert/farthing/internal/email"
	"github.com/dukerupert/farthing/internal/store"
	"github.com/dukerupert/farthing/internal/ws"
)

type InvitationHandler struct {
	invitations *store.InvitationStore
	members     *store.FamilyMemberStore
	families    *store.FamilyStore
	email       *email.Client
	hub         *ws.Hub
	logger      *slog.Logger
}

func NewInvitationHandler(
	is *store.InvitationStore,
	ms *store.FamilyMemberStore,
	fs *store.FamilyStore,
	ec *email.Client,
	hub *ws.Hub,
	logger *slog.Logger,
) *InvitationHandler {
	return &InvitationHandler{invitations: is, members: ms, families: fs, email: ec, hub: hub, logger: logger}
}

// Create issues an invitation linking the {id} member to whoever accepts
// the token. Only parents can invite, and only for unlinked members.
func (h *InvitationHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller := requireParent(w, r, h.members)
	if caller == nil {
		return
	}

	memberID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	member, err := h.members.GetByID(memberID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get member")
		return
	}
	if member == nil || member.FamilyID != caller.FamilyID {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}
	if member.UserID != nil {
		writeError(w, http.StatusConflict, "member is already linked to an account")
		return
	}

	var req struct {
		Email *string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Email != nil {
		trimmed := strings.ToLower(strings.TrimSpace(*req.Email))
		if trimmed == "" {
			req.Email = nil
		} else {
			req.Email = &trimmed
		}
	}

	userID := auth.UserID(r.Context())
	inv, err := h.invitations.Create(caller.FamilyID, member.ID, req.Email, member.Role, userID)
	if err != nil {
		h.logger.Error("create invitation", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create invitation")
		return
	}

	if req.Email != nil && h.email.Configured() {
		family, err := h.families.GetByID(caller.FamilyID)
		if err == nil && family != nil {
			if err := h.email.SendInvitation(*req.Email, inv.Token, family.Name, member.Name); err != nil {
				h.logger.Error("send invitation email", "error", err)
			}
		}
	}

	writeJSON(w, http.StatusCreated, inv)
}

// GetByToken is public: it lets an invitee preview who they are joining
// before signing up. Used or expired tokens read as gone.
func (h *InvitationHandler) GetByToken(w http.ResponseWriter, r *http.Request) {
	inv, err := h.invitations.GetByToken(r.PathValue("token"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get invitation")
		return
	}
	if inv == nil {
		writeError(w, http.StatusNotFound, "invitation not found")
		return
	}
	if !inv.Usable(time.Now()) {
		writeError(w, http.StatusGone, "invitation has expired or was already used")
		return
	}

	member, err := h.members.GetByID(inv.FamilyMemberID)
	if err != nil || member == nil {
		writeError(w, http.StatusNotFound, "invitation not found")
		return
	}
	family, err := h.families.GetByID(inv.FamilyID)
	if err != nil || family == nil {
		writeError(w, http.StatusNotFound, "invitation not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":       inv.Token,
		"family_name": family.Name,
		"member_name": member.Name,
		"role":        inv.Role,
		"expires_at":  inv.ExpiresAt,
	})
}

// Accept links the caller's account to the invited member record. The
// caller must be authenticated and not already in a family.
func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	inv, err := h.invitations.GetByToken(r.PathValue("token"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get invitation")
		return
	}
	if inv == nil {
		writeError(w, http.StatusNotFound, "invitation not found")
		return
	}
	if !inv.Usable(time.Now()) {
		writeError(w, http.StatusGone, "invitation has expired or was already used")
		return
	}

	existing, err := h.members.GetByUserID(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve member")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "you already belong to a family")
		return
	}

	if err := h.invitations.Accept(inv.ID, inv.FamilyMemberID, userID); err != nil {
		h.logger.Error("accept invitation", "error", err)
		writeError(w, http.StatusConflict, "invitation could not be accepted")
		return
	}

	member, err := h.members.GetByID(inv.FamilyMemberID)
	if err != nil || member == nil {
		writeError(w, http.StatusInternalServerError, "failed to load member")
		return
	}

	h.hub.Broadcast(inv.FamilyID, ws.NewEvent("family_member", "linked", member.ID))
	writeJSON(w, http.StatusOK, member)
}

// Regenerate replaces an unused invitation's token and restarts its expiry
// window.
func (h *InvitationHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	caller := requireParent(w, r, h.members)
	if caller == nil {
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.invitations.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get invitation")
		return
	}
	if existing == nil || existing.FamilyID != caller.FamilyID {
		writeError(w, http.StatusNotFound, "invitation not found")
		return
	}
	if existing.UsedAt != nil {
		writeError(w, http.StatusConflict, "invitation was already used")
		return
	}

	inv, err := h.invitations.Regenerate(id)
	if err != nil {
		h.logger.Error("regenerate invitation", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to regenerate invitation")
		return
	}

	writeJSON(w, http.StatusOK, inv)
}

// LatestForMember returns the newest invitation issued for the {id} member.
func (h *InvitationHandler) LatestForMember(w http.ResponseWriter, r *http.Request) {
	caller := requireParent(w, r, h.members)
	if caller == nil {
		return
	}

	memberID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	member, err := h.members.GetByID(memberID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get member")
		return
	}
	if member == nil || member.FamilyID != caller.FamilyID {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}

	inv, err := h.invitations.GetLatestForMember(memberID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get invitation")
		return
	}
	if inv == nil {
		writeError(w, http.StatusNotFound, "no invitation for member")
		return
	}
	writeJSON(w, http.StatusOK, inv)
}
