package store

import "testing"

func TestUserCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)

	u, err := us.Create("alice@example.com", "Alice", "hash123")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Errorf("email = %q", u.Email)
	}
	if u.Name != "Alice" {
		t.Errorf("name = %q", u.Name)
	}

	got, err := us.GetByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got == nil || got.ID != u.ID {
		t.Fatal("expected user by email")
	}
}

func TestUserGetByEmailMissing(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)

	got, err := us.GetByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got != nil {
		t.Error("expected nil for missing email")
	}
}

func TestUserDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)

	if _, err := us.Create("alice@example.com", "Alice", "h"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := us.Create("alice@example.com", "Alice Again", "h"); err == nil {
		t.Fatal("expected unique constraint error")
	}
}

func TestUserPasswordHash(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)

	u, _ := us.Create("alice@example.com", "Alice", "original")

	hash, err := us.GetPasswordHash("alice@example.com")
	if err != nil {
		t.Fatalf("get password hash: %v", err)
	}
	if hash != "original" {
		t.Errorf("hash = %q", hash)
	}

	if err := us.UpdatePassword(u.ID, "rotated"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	hash, _ = us.GetPasswordHash("alice@example.com")
	if hash != "rotated" {
		t.Errorf("hash after update = %q", hash)
	}

	// Missing email reads as empty hash, not an error.
	hash, err = us.GetPasswordHash("nobody@example.com")
	if err != nil {
		t.Fatalf("get missing hash: %v", err)
	}
	if hash != "" {
		t.Errorf("expected empty hash, got %q", hash)
	}
}

func TestUserUpdate(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)

	u, _ := us.Create("alice@example.com", "Alice", "h")

	updated, err := us.Update(u.ID, "alice@new.example.com", "Alice B")
	if err != nil {
		t.Fatalf("update user: %v", err)
	}
	if updated.Email != "alice@new.example.com" || updated.Name != "Alice B" {
		t.Errorf("updated = %+v", updated)
	}
}
