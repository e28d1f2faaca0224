package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/farthing/internal/auth"
	"github.com/dukerupert/farthing/internal/email"
	"github.com/dukerupert/farthing/internal/middleware"
	"github.com/dukerupert/farthing/internal/store"
)

type AuthHandler struct {
	users    *store.UserStore
	sessions *store.SessionStore
	resets   *store.PasswordResetStore
	members  *store.FamilyMemberStore
	families *store.FamilyStore
	email    *email.Client
	limiter  *auth.LoginLimiter
	logger   *slog.Logger
}

func NewAuthHandler(
	us *store.UserStore,
	ss *store.SessionStore,
	rs *store.PasswordResetStore,
	ms *store.FamilyMemberStore,
	fs *store.FamilyStore,
	ec *email.Client,
	limiter *auth.LoginLimiter,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		users:    us,
		sessions: ss,
		resets:   rs,
		members:  ms,
		families: fs,
		email:    ec,
		limiter:  limiter,
		logger:   logger,
	}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := h.users.GetByEmail(req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check email")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "an account with that email already exists")
		return
	}

	user, err := h.users.Create(req.Email, req.Name, hash)
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	sess, err := h.sessions.Create(user.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	setSessionCookie(w, sess.Token, sess.ExpiresAt)
	writeJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	// The lockout check runs before any store access so a locked account
	// costs nothing to reject.
	if err := h.limiter.Check(req.Email); err != nil {
		if errors.Is(err, auth.ErrTooManyAttempts) {
			writeError(w, http.StatusTooManyRequests, "too many login attempts, try again later")
			return
		}
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	hash, err := h.users.GetPasswordHash(req.Email)
	if err != nil {
		h.logger.Error("get password hash", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if hash == "" || !auth.CheckPassword(hash, req.Password) {
		h.limiter.RecordFailure(req.Email)
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	h.limiter.Reset(req.Email)

	user, err := h.users.GetByEmail(req.Email)
	if err != nil || user == nil {
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	sess, err := h.sessions.Create(user.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	setSessionCookie(w, sess.Token, sess.ExpiresAt)
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if ac, ok := auth.FromContext(r.Context()); ok {
		if err := h.sessions.Delete(ac.SessionID); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me returns the authenticated user together with their family membership,
// which is null until they create or join a family.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	user, err := h.users.GetByID(userID)
	if err != nil || user == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	member, err := h.members.GetByUserID(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve member")
		return
	}

	resp := map[string]any{
		"user":   user,
		"member": member,
	}
	if member != nil {
		family, err := h.families.GetByID(member.FamilyID)
		if err == nil && family != nil {
			resp["family"] = family
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// RequestPasswordReset always responds 200 so callers cannot probe which
// emails have accounts.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	defer writeJSON(w, http.StatusOK, map[string]string{"status": "if the account exists, a reset email was sent"})

	user, err := h.users.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("reset lookup", "error", err)
		return
	}
	if user == nil {
		return
	}

	reset, err := h.resets.Create(user.ID)
	if err != nil {
		h.logger.Error("create password reset", "error", err)
		return
	}

	if h.email.Configured() {
		if err := h.email.SendPasswordReset(user.Email, reset.Token); err != nil {
			h.logger.Error("send password reset", "error", err)
		}
	} else {
		h.logger.Info("password reset requested without email configured", "user_id", user.ID)
	}
}

func (h *AuthHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	reset, err := h.resets.GetValidByToken(req.Token)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to validate token")
		return
	}
	if reset == nil {
		writeError(w, http.StatusBadRequest, "invalid or expired token")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.users.UpdatePassword(reset.UserID, hash); err != nil {
		h.logger.Error("update password", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update password")
		return
	}
	if err := h.resets.MarkUsed(reset.ID); err != nil {
		h.logger.Error("mark reset used", "error", err)
	}

	// Changing the password invalidates every existing session.
	if err := h.sessions.DeleteByUserID(reset.UserID); err != nil {
		h.logger.Error("delete sessions", "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}

func setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
