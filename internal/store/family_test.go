package store

import (
	"testing"

	"github.com/dukerupert/farthing/internal/model"
)

func TestFamilyCreateSeedsSettingsAndOwner(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)
	fs := NewFamilyStore(db)
	ms := NewFamilyMemberStore(db)

	u, _ := us.Create("owner@example.com", "Owner", "h")
	f, err := fs.Create("Smiths", u.ID, u.Name)
	if err != nil {
		t.Fatalf("create family: %v", err)
	}
	if f.Name != "Smiths" || f.OwnerID != u.ID {
		t.Errorf("family = %+v", f)
	}

	settings, err := fs.GetSettings(f.ID)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if settings == nil {
		t.Fatal("expected settings row created with family")
	}
	if settings.BudgetCycleStartDay != DefaultCycleStartDay {
		t.Errorf("start day = %d, want %d", settings.BudgetCycleStartDay, DefaultCycleStartDay)
	}
	if settings.VacationDefaultScore == nil || *settings.VacationDefaultScore != DefaultVacationScore {
		t.Errorf("vacation default = %v, want %d", settings.VacationDefaultScore, DefaultVacationScore)
	}

	member, err := ms.GetByUserID(u.ID)
	if err != nil {
		t.Fatalf("get owner member: %v", err)
	}
	if member == nil {
		t.Fatal("expected owner member created with family")
	}
	if member.Role != model.RoleParent {
		t.Errorf("owner role = %q", member.Role)
	}
	if member.BaseAllowance != nil {
		t.Error("owner should have no base allowance")
	}
}

func TestFamilyGetForUser(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)
	fs := NewFamilyStore(db)

	u, _ := us.Create("owner@example.com", "Owner", "h")
	other, _ := us.Create("other@example.com", "Other", "h")
	f, _ := fs.Create("Smiths", u.ID, u.Name)

	got, err := fs.GetForUser(u.ID)
	if err != nil {
		t.Fatalf("get for user: %v", err)
	}
	if got == nil || got.ID != f.ID {
		t.Fatal("expected owner's family")
	}

	got, err = fs.GetForUser(other.ID)
	if err != nil {
		t.Fatalf("get for unlinked user: %v", err)
	}
	if got != nil {
		t.Error("expected nil for user without membership")
	}
}

func TestFamilyUpdateSettings(t *testing.T) {
	db := setupTestDB(t)
	_, familyID := seedFamily(t, db)
	fs := NewFamilyStore(db)

	// Null vacation default means "keep the caller's score on vacation
	// days".
	settings, err := fs.UpdateSettings(familyID, 1, nil)
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if settings.BudgetCycleStartDay != 1 {
		t.Errorf("start day = %d, want 1", settings.BudgetCycleStartDay)
	}
	if settings.VacationDefaultScore != nil {
		t.Errorf("vacation default = %v, want nil", settings.VacationDefaultScore)
	}

	score := 5
	settings, err = fs.UpdateSettings(familyID, 15, &score)
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if settings.VacationDefaultScore == nil || *settings.VacationDefaultScore != 5 {
		t.Errorf("vacation default = %v, want 5", settings.VacationDefaultScore)
	}
}

func TestFamilyGetSettingsMissing(t *testing.T) {
	db := setupTestDB(t)
	fs := NewFamilyStore(db)

	settings, err := fs.GetSettings(999)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if settings != nil {
		t.Error("expected nil settings for missing family")
	}
}
