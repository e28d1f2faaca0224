package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dukerupert/farthing/internal/backup"
	"github.com/dukerupert/farthing/internal/database"
	"github.com/dukerupert/farthing/internal/email"
	"github.com/dukerupert/farthing/internal/logging"
	"github.com/dukerupert/farthing/internal/server"
)

func main() {
	// A missing .env is fine; explicit environment always wins.
	godotenv.Load()

	logger := logging.Setup(os.Getenv("FARTHING_LOG_LEVEL"))

	port := os.Getenv("FARTHING_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("FARTHING_DB_PATH")
	if dbPath == "" {
		dbPath = "farthing.db"
	}

	baseURL := os.Getenv("FARTHING_BASE_URL")
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%s", port)
	}

	db, err := database.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	emailClient := email.NewClient(
		os.Getenv("FARTHING_POSTMARK_TOKEN"),
		os.Getenv("FARTHING_FROM_EMAIL"),
		baseURL,
	)

	backupCfg := backup.Config{
		S3: backup.S3Config{
			Endpoint:  os.Getenv("FARTHING_S3_ENDPOINT"),
			Bucket:    os.Getenv("FARTHING_S3_BUCKET"),
			Region:    envDefault("FARTHING_S3_REGION", "auto"),
			AccessKey: os.Getenv("FARTHING_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("FARTHING_S3_SECRET_KEY"),
		},
		DBPath:        dbPath,
		Passphrase:    os.Getenv("FARTHING_BACKUP_PASSPHRASE"),
		ScheduleHour:  envInt("FARTHING_BACKUP_HOUR", 3),
		RetentionDays: envInt("FARTHING_BACKUP_RETENTION_DAYS", 30),
	}

	srv := server.New(db, emailClient, backupCfg, logger)

	httpServer := &http.Server{
		Addr:              ":" + port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if srv.BackupManager().Enabled() {
		familyID := int64(envInt("FARTHING_BACKUP_FAMILY_ID", 1))
		srv.BackupManager().Start(context.Background(), familyID)
		defer srv.BackupManager().Stop()
	}

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					slog.Error("cleanup expired sessions", "error", err)
				} else if n > 0 {
					slog.Info("cleaned up expired sessions", "count", n)
				}
				if _, err := srv.PasswordResetStore().DeleteExpired(); err != nil {
					slog.Error("cleanup expired password resets", "error", err)
				}
				// Expired invitations get a day of grace so a surprised
				// invitee still sees a helpful "expired" page.
				grace := time.Now().AddDate(0, 0, -1)
				if _, err := srv.InvitationStore().DeleteExpiredUnused(grace); err != nil {
					slog.Error("cleanup expired invitations", "error", err)
				}
				srv.LoginLimiter().Cleanup()
				srv.RateLimiter().Cleanup()
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("farthing starting", "addr", ":"+port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cleanupCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
