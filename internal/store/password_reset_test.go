package store

import (
	"testing"
)

func TestPasswordResetCreateAndLookup(t *testing.T) {
	db := setupTestDB(t)
	userID, _ := seedFamily(t, db)
	prs := NewPasswordResetStore(db)

	pr, err := prs.Create(userID)
	if err != nil {
		t.Fatalf("create reset: %v", err)
	}
	if len(pr.Token) != 64 {
		t.Errorf("token length = %d, want 64", len(pr.Token))
	}

	got, err := prs.GetValidByToken(pr.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got == nil || got.ID != pr.ID {
		t.Error("expected the reset entry back")
	}
}

func TestPasswordResetCreateInvalidatesPrevious(t *testing.T) {
	db := setupTestDB(t)
	userID, _ := seedFamily(t, db)
	prs := NewPasswordResetStore(db)

	first, _ := prs.Create(userID)
	second, _ := prs.Create(userID)

	if got, _ := prs.GetValidByToken(first.Token); got != nil {
		t.Error("first token should be invalidated by second request")
	}
	if got, _ := prs.GetValidByToken(second.Token); got == nil {
		t.Error("second token should be valid")
	}
}

func TestPasswordResetMarkUsed(t *testing.T) {
	db := setupTestDB(t)
	userID, _ := seedFamily(t, db)
	prs := NewPasswordResetStore(db)

	pr, _ := prs.Create(userID)
	if err := prs.MarkUsed(pr.ID); err != nil {
		t.Fatalf("mark used: %v", err)
	}
	if got, _ := prs.GetValidByToken(pr.Token); got != nil {
		t.Error("used token should not resolve")
	}
}

func TestPasswordResetDeleteExpired(t *testing.T) {
	db := setupTestDB(t)
	userID, _ := seedFamily(t, db)
	prs := NewPasswordResetStore(db)

	live, _ := prs.Create(userID)

	_, err := db.Exec(
		`INSERT INTO password_resets (token, user_id, expires_at)
		 VALUES ('expired-token', ?, datetime('now', '-1 hour'))`,
		userID,
	)
	if err != nil {
		t.Fatalf("insert expired reset: %v", err)
	}

	n, err := prs.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
	if got, _ := prs.GetValidByToken(live.Token); got == nil {
		t.Error("live token should survive")
	}
}
