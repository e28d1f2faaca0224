package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/farthing/internal/allowance"
	"github.com/dukerupert/farthing/internal/auth"
	"github.com/dukerupert/farthing/internal/backup"
	"github.com/dukerupert/farthing/internal/email"
	"github.com/dukerupert/farthing/internal/handler"
	"github.com/dukerupert/farthing/internal/middleware"
	"github.com/dukerupert/farthing/internal/store"
	"github.com/dukerupert/farthing/internal/ws"
)

type Server struct {
	db  *sql.DB
	hub *ws.Hub

	authH       *handler.AuthHandler
	familyH     *handler.FamilyHandler
	memberH     *handler.FamilyMemberHandler
	scoreH      *handler.ScoreHandler
	invitationH *handler.InvitationHandler
	backupH     *handler.BackupHandler

	sessionStore    *store.SessionStore
	resetStore      *store.PasswordResetStore
	invitationStore *store.InvitationStore
	familyStore     *store.FamilyStore
	memberStore     *store.FamilyMemberStore

	loginLimiter  *auth.LoginLimiter
	rateLimiter   *middleware.RateLimiter
	backupManager *backup.Manager
	logger        *slog.Logger
}

func New(db *sql.DB, emailClient *email.Client, backupCfg backup.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	resetStore := store.NewPasswordResetStore(db)
	familyStore := store.NewFamilyStore(db)
	memberStore := store.NewFamilyMemberStore(db)
	cycleStore := store.NewBudgetCycleStore(db)
	scoreStore := store.NewDailyScoreStore(db)
	invitationStore := store.NewInvitationStore(db)
	backupStore := store.NewBackupStore(db)

	svc := allowance.NewService(familyStore, memberStore, cycleStore, scoreStore, logger.With("component", "allowance"))

	loginLimiter := auth.NewLoginLimiter()
	backupMgr := backup.NewManager(backupCfg, db, backupStore, logger.With("component", "backup"))

	return &Server{
		db:  db,
		hub: hub,

		authH:       handler.NewAuthHandler(userStore, sessionStore, resetStore, memberStore, familyStore, emailClient, loginLimiter, logger.With("component", "auth")),
		familyH:     handler.NewFamilyHandler(familyStore, memberStore, userStore, hub, logger.With("component", "family")),
		memberH:     handler.NewFamilyMemberHandler(memberStore, hub, logger.With("component", "family_member")),
		scoreH:      handler.NewScoreHandler(svc, memberStore, cycleStore, scoreStore, hub, logger.With("component", "score")),
		invitationH: handler.NewInvitationHandler(invitationStore, memberStore, familyStore, emailClient, hub, logger.With("component", "invitation")),
		backupH:     handler.NewBackupHandler(backupMgr, backupStore, memberStore, logger.With("component", "backup_handler")),

		sessionStore:    sessionStore,
		resetStore:      resetStore,
		invitationStore: invitationStore,
		familyStore:     familyStore,
		memberStore:     memberStore,

		loginLimiter:  loginLimiter,
		rateLimiter:   middleware.NewRateLimiter(),
		backupManager: backupMgr,
		logger:        logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// PasswordResetStore returns the password reset store for cleanup tasks.
func (s *Server) PasswordResetStore() *store.PasswordResetStore {
	return s.resetStore
}

// InvitationStore returns the invitation store for cleanup tasks.
func (s *Server) InvitationStore() *store.InvitationStore {
	return s.invitationStore
}

// LoginLimiter returns the login limiter for cleanup tasks.
func (s *Server) LoginLimiter() *auth.LoginLimiter {
	return s.loginLimiter
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("POST /api/signup", s.rateLimited(s.authH.Signup))
	outerMux.HandleFunc("POST /api/login", s.rateLimited(s.authH.Login))
	outerMux.HandleFunc("POST /api/password-resets", s.rateLimited(s.authH.RequestPasswordReset))
	outerMux.HandleFunc("POST /api/password-resets/confirm", s.rateLimited(s.authH.ConfirmPasswordReset))
	outerMux.HandleFunc("GET /api/invitations/{token}", s.invitationH.GetByToken)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes behind RequireAuth
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore)
	outerMux.Handle("/api/", authMiddleware(protectedMux))
	outerMux.Handle("GET /ws", authMiddleware(ws.Handler(s.hub, s.resolveFamily, s.logger.With("component", "websocket"))))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/me", s.authH.Me)

	// Family
	mux.HandleFunc("POST /api/family", s.familyH.Create)
	mux.HandleFunc("GET /api/family", s.familyH.Get)
	mux.HandleFunc("PUT /api/family", s.familyH.Update)
	mux.HandleFunc("GET /api/family/settings", s.familyH.GetSettings)
	mux.HandleFunc("PUT /api/family/settings", s.familyH.UpdateSettings)

	// Family members
	mux.HandleFunc("GET /api/members", s.memberH.List)
	mux.HandleFunc("POST /api/members", s.memberH.Create)
	mux.HandleFunc("GET /api/members/{id}", s.memberH.Get)
	mux.HandleFunc("PUT /api/members/{id}", s.memberH.Update)
	mux.HandleFunc("DELETE /api/members/{id}", s.memberH.Delete)

	// Scores and cycles
	mux.HandleFunc("GET /api/members/{id}/scores", s.scoreH.List)
	mux.HandleFunc("PUT /api/members/{id}/scores/{date}", s.scoreH.Save)
	mux.HandleFunc("DELETE /api/scores/{id}", s.scoreH.Delete)
	mux.HandleFunc("POST /api/members/{id}/vacation", s.scoreH.BulkVacation)
	mux.HandleFunc("GET /api/members/{id}/summary", s.scoreH.Summary)
	mux.HandleFunc("GET /api/cycles", s.scoreH.ListCycles)
	mux.HandleFunc("POST /api/cycles/resolve", s.scoreH.ResolveCycle)

	// Invitations
	mux.HandleFunc("POST /api/members/{id}/invitations", s.invitationH.Create)
	mux.HandleFunc("GET /api/members/{id}/invitations/latest", s.invitationH.LatestForMember)
	mux.HandleFunc("POST /api/invitations/{id}/regenerate", s.invitationH.Regenerate)
	mux.HandleFunc("POST /api/invitations/{token}/accept", s.invitationH.Accept)

	// Backups
	mux.HandleFunc("GET /api/backups/status", s.backupH.Status)
	mux.HandleFunc("GET /api/backups", s.backupH.List)
	mux.HandleFunc("POST /api/backups", s.backupH.Run)
	mux.HandleFunc("GET /api/backups/{id}/download", s.backupH.Download)
}

func (s *Server) resolveFamily(ctx context.Context, userID int64) (int64, error) {
	family, err := s.familyStore.GetForUser(userID)
	if err != nil {
		return 0, err
	}
	if family == nil {
		return 0, sql.ErrNoRows
	}
	return family.ID, nil
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(h).ServeHTTP(w, r)
	}
}
