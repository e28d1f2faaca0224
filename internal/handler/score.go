package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/farthing/internal/allowance"
	"github.com/dukerupert/farthing/internal/dates"
	"github.com/dukerupert/farthing/internal/model"
	"github.com/dukerupert/farthing/internal/store"
	"github.com/dukerupert/farthing/internal/ws"
)

type ScoreHandler struct {
	svc     *allowance.Service
	members *store.FamilyMemberStore
	cycles  *store.BudgetCycleStore
	scores  *store.DailyScoreStore
	hub     *ws.Hub
	logger  *slog.Logger
}

func NewScoreHandler(
	svc *allowance.Service,
	ms *store.FamilyMemberStore,
	cs *store.BudgetCycleStore,
	ds *store.DailyScoreStore,
	hub *ws.Hub,
	logger *slog.Logger,
) *ScoreHandler {
	return &ScoreHandler{svc: svc, members: ms, cycles: cs, scores: ds, hub: hub, logger: logger}
}

// targetMember resolves the {id} path member and checks family scope. The
// return is nil after an error response has been written.
func (h *ScoreHandler) targetMember(w http.ResponseWriter, r *http.Request) *model.FamilyMember {
	caller, err := currentMember(r, h.members)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve member")
		return nil
	}
	if caller == nil {
		writeError(w, http.StatusForbidden, "no family membership")
		return nil
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil
	}

	member, err := h.members.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get member")
		return nil
	}
	if member == nil || member.FamilyID != caller.FamilyID {
		writeError(w, http.StatusNotFound, "member not found")
		return nil
	}
	return member
}

// List returns a member's scores over an inclusive date range.
func (h *ScoreHandler) List(w http.ResponseWriter, r *http.Request) {
	member := h.targetMember(w, r)
	if member == nil {
		return
	}

	start, err := dates.Parse(r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
		return
	}
	end, err := dates.Parse(r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "end must be YYYY-MM-DD")
		return
	}

	scores, err := h.svc.ScoresForRange(member.ID, start, end)
	if err != nil {
		if errors.Is(err, allowance.ErrInvalidRange) {
			writeError(w, http.StatusBadRequest, "end must not be before start")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to list scores")
		return
	}
	if scores == nil {
		scores = []model.DailyScore{}
	}
	writeJSON(w, http.StatusOK, scores)
}

// Save records or revises a member's score for one date. The day's budget
// cycle is resolved (and created if needed) as part of the write.
func (h *ScoreHandler) Save(w http.ResponseWriter, r *http.Request) {
	member := h.targetMember(w, r)
	if member == nil {
		return
	}

	date, err := dates.Parse(r.PathValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	var req struct {
		Score      int    `json:"score"`
		IsVacation bool   `json:"is_vacation"`
		Notes      string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	score, err := h.svc.SaveScore(member.ID, date, req.Score, req.IsVacation, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, allowance.ErrInvalidScore):
			writeError(w, http.StatusBadRequest, "score must be between 1 and 5")
		case errors.Is(err, allowance.ErrNoSettings):
			writeError(w, http.StatusConflict, "family settings are missing, configure the budget cycle first")
		case errors.Is(err, allowance.ErrMemberNotFound):
			writeError(w, http.StatusNotFound, "member not found")
		default:
			h.logger.Error("save score", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save score")
		}
		return
	}

	h.hub.Broadcast(member.FamilyID, ws.NewEvent("daily_score", "saved", score.ID))
	writeJSON(w, http.StatusOK, score)
}

func (h *ScoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, err := currentMember(r, h.members)
	if err != nil || caller == nil {
		writeError(w, http.StatusForbidden, "no family membership")
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	score, err := h.scores.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get score")
		return
	}
	if score == nil {
		writeError(w, http.StatusNotFound, "score not found")
		return
	}
	owner, err := h.members.GetByID(score.FamilyMemberID)
	if err != nil || owner == nil || owner.FamilyID != caller.FamilyID {
		writeError(w, http.StatusNotFound, "score not found")
		return
	}

	deleted, err := h.svc.DeleteScore(id)
	if err != nil {
		h.logger.Error("delete score", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete score")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "score not found")
		return
	}

	h.hub.Broadcast(caller.FamilyID, ws.NewEvent("daily_score", "deleted", id))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// BulkVacation flags or unflags every day in a range as vacation. Days fail
// independently; the response reports success and error counts.
func (h *ScoreHandler) BulkVacation(w http.ResponseWriter, r *http.Request) {
	member := h.targetMember(w, r)
	if member == nil {
		return
	}

	var req struct {
		StartDate  string `json:"start_date"`
		EndDate    string `json:"end_date"`
		IsVacation bool   `json:"is_vacation"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	start, err := dates.Parse(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		return
	}
	end, err := dates.Parse(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
		return
	}

	result, err := h.svc.SetVacationDays(member.ID, start, end, req.IsVacation)
	if err != nil {
		switch {
		case errors.Is(err, allowance.ErrInvalidRange):
			writeError(w, http.StatusBadRequest, "end_date must not be before start_date")
		case errors.Is(err, allowance.ErrRangeTooLarge):
			writeError(w, http.StatusBadRequest, "range cannot exceed 60 days")
		default:
			h.logger.Error("bulk vacation", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to update vacation days")
		}
		return
	}

	h.hub.Broadcast(member.FamilyID, ws.NewEvent("daily_score", "bulk_updated", member.ID))
	writeJSON(w, http.StatusOK, result)
}

// Summary reports a child's cycle average and earned allowance for the
// cycle containing the given date (default today).
func (h *ScoreHandler) Summary(w http.ResponseWriter, r *http.Request) {
	member := h.targetMember(w, r)
	if member == nil {
		return
	}

	date, err := parseDateQuery(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	summary, err := h.svc.SummarizeCycle(member.ID, date)
	if err != nil {
		switch {
		case errors.Is(err, allowance.ErrNotChild):
			writeError(w, http.StatusBadRequest, "member has no base allowance")
		case errors.Is(err, allowance.ErrNoSettings):
			writeError(w, http.StatusConflict, "family settings are missing, configure the budget cycle first")
		default:
			h.logger.Error("cycle summary", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to build summary")
		}
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ResolveCycle returns the budget cycle containing the given date for the
// caller's family, creating it on first touch.
func (h *ScoreHandler) ResolveCycle(w http.ResponseWriter, r *http.Request) {
	caller, err := currentMember(r, h.members)
	if err != nil || caller == nil {
		writeError(w, http.StatusForbidden, "no family membership")
		return
	}

	date, err := parseDateQuery(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	bc, err := h.svc.ResolveCycle(caller.FamilyID, date)
	if err != nil {
		if errors.Is(err, allowance.ErrNoSettings) {
			writeError(w, http.StatusConflict, "family settings are missing, configure the budget cycle first")
			return
		}
		h.logger.Error("resolve cycle", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve cycle")
		return
	}
	writeJSON(w, http.StatusOK, bc)
}

func (h *ScoreHandler) ListCycles(w http.ResponseWriter, r *http.Request) {
	caller, err := currentMember(r, h.members)
	if err != nil || caller == nil {
		writeError(w, http.StatusForbidden, "no family membership")
		return
	}

	cycles, err := h.cycles.ListByFamily(caller.FamilyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list cycles")
		return
	}
	if cycles == nil {
		cycles = []model.BudgetCycle{}
	}
	writeJSON(w, http.StatusOK, cycles)
}
