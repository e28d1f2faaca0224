package store

import (
	"database/sql"
	"testing"

	"github.com/dukerupert/farthing/internal/database"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// seedFamily creates a user and their family (with settings and an owner
// parent member) and returns the pieces most tests need.
func seedFamily(t *testing.T, db *sql.DB) (userID, familyID int64) {
	t.Helper()
	us := NewUserStore(db)
	fs := NewFamilyStore(db)

	u, err := us.Create("owner@example.com", "Owner", "x")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	f, err := fs.Create("Test Family", u.ID, u.Name)
	if err != nil {
		t.Fatalf("create family: %v", err)
	}
	return u.ID, f.ID
}
