package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/dukerupert/farthing/internal/backup"
	"github.com/dukerupert/farthing/internal/model"
	"github.com/dukerupert/farthing/internal/store"
)

type BackupHandler struct {
	manager *backup.Manager
	backups *store.BackupStore
	members *store.FamilyMemberStore
	logger  *slog.Logger
}

func NewBackupHandler(m *backup.Manager, bs *store.BackupStore, ms *store.FamilyMemberStore, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: m, backups: bs, members: ms, logger: logger}
}

func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	if requireParent(w, r, h.members) == nil {
		return
	}
	writeJSON(w, http.StatusOK, h.manager.Status())
}

func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	caller := requireParent(w, r, h.members)
	if caller == nil {
		return
	}

	backups, err := h.backups.List(caller.FamilyID, 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list backups")
		return
	}
	if backups == nil {
		backups = []model.Backup{}
	}
	writeJSON(w, http.StatusOK, backups)
}

// Run triggers an immediate backup for the caller's family.
func (h *BackupHandler) Run(w http.ResponseWriter, r *http.Request) {
	caller := requireParent(w, r, h.members)
	if caller == nil {
		return
	}
	if !h.manager.Enabled() {
		writeError(w, http.StatusConflict, "backups are not configured")
		return
	}

	id, err := h.manager.RunNow(r.Context(), caller.FamilyID)
	if err != nil {
		h.logger.Error("run backup", "error", err)
		writeError(w, http.StatusInternalServerError, "backup failed")
		return
	}

	record, err := h.backups.GetByID(id)
	if err != nil || record == nil {
		writeError(w, http.StatusInternalServerError, "backup record missing")
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// Download streams the encrypted backup file. The payload stays encrypted;
// decryption happens wherever the passphrase lives.
func (h *BackupHandler) Download(w http.ResponseWriter, r *http.Request) {
	caller := requireParent(w, r, h.members)
	if caller == nil {
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	record, err := h.backups.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get backup")
		return
	}
	if record == nil || record.FamilyID != caller.FamilyID {
		writeError(w, http.StatusNotFound, "backup not found")
		return
	}

	body, size, err := h.manager.Download(r.Context(), id, caller.FamilyID)
	if err != nil {
		h.logger.Error("download backup", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to download backup")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", record.Filename))
	if size > 0 {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
	}
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Error("stream backup", "error", err)
	}
}
