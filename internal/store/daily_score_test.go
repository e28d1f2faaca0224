package store

import (
	"testing"

	"github.com/dukerupert/farthing/internal/model"
)

func seedScoreFixture(t *testing.T) (*DailyScoreStore, int64, int64) {
	t.Helper()
	db := setupTestDB(t)
	_, familyID := seedFamily(t, db)
	ms := NewFamilyMemberStore(db)
	cs := NewBudgetCycleStore(db)

	m, err := ms.Create(familyID, "Timmy", model.RoleChild, dec("10"))
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	bc, err := cs.CreateOrGet(familyID, "2025-01-25", "2025-02-24")
	if err != nil {
		t.Fatalf("create cycle: %v", err)
	}
	return NewDailyScoreStore(db), m.ID, bc.ID
}

func TestDailyScoreCreateAndGet(t *testing.T) {
	ds, memberID, cycleID := seedScoreFixture(t)

	score, err := ds.Create(memberID, cycleID, 4, "2025-02-01", false, "good day")
	if err != nil {
		t.Fatalf("create score: %v", err)
	}
	if score.Score != 4 || score.Date != "2025-02-01" || score.Notes != "good day" {
		t.Errorf("score = %+v", score)
	}

	got, err := ds.GetByMemberAndDate(memberID, "2025-02-01")
	if err != nil {
		t.Fatalf("get by member and date: %v", err)
	}
	if got == nil || got.ID != score.ID {
		t.Fatal("expected score by member and date")
	}
}

func TestDailyScoreUniquePerDay(t *testing.T) {
	ds, memberID, cycleID := seedScoreFixture(t)

	if _, err := ds.Create(memberID, cycleID, 4, "2025-02-01", false, ""); err != nil {
		t.Fatalf("create score: %v", err)
	}
	if _, err := ds.Create(memberID, cycleID, 5, "2025-02-01", false, ""); err == nil {
		t.Fatal("expected unique constraint on (member, date)")
	}
}

func TestDailyScoreUpdatePreservesCycle(t *testing.T) {
	ds, memberID, cycleID := seedScoreFixture(t)

	created, _ := ds.Create(memberID, cycleID, 3, "2025-02-01", false, "")

	updated, err := ds.Update(created.ID, 5, true, "Vacation day")
	if err != nil {
		t.Fatalf("update score: %v", err)
	}
	if updated.Score != 5 || !updated.IsVacation || updated.Notes != "Vacation day" {
		t.Errorf("updated = %+v", updated)
	}
	if updated.BudgetCycleID != cycleID {
		t.Error("update must not move the score to another cycle")
	}
	if updated.Date != "2025-02-01" {
		t.Error("update must not change the date")
	}
}

func TestDailyScoreListByMemberAndRange(t *testing.T) {
	ds, memberID, cycleID := seedScoreFixture(t)

	ds.Create(memberID, cycleID, 3, "2025-02-01", false, "")
	ds.Create(memberID, cycleID, 4, "2025-02-02", false, "")
	ds.Create(memberID, cycleID, 5, "2025-02-10", false, "")

	scores, err := ds.ListByMemberAndRange(memberID, "2025-02-01", "2025-02-05")
	if err != nil {
		t.Fatalf("list range: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("scores = %d, want 2", len(scores))
	}
	if scores[0].Date != "2025-02-01" || scores[1].Date != "2025-02-02" {
		t.Errorf("range order wrong: %s, %s", scores[0].Date, scores[1].Date)
	}
}

func TestDailyScoreDelete(t *testing.T) {
	ds, memberID, cycleID := seedScoreFixture(t)

	created, _ := ds.Create(memberID, cycleID, 3, "2025-02-01", false, "")

	deleted, err := ds.Delete(created.ID)
	if err != nil {
		t.Fatalf("delete score: %v", err)
	}
	if !deleted {
		t.Fatal("expected delete to report success")
	}

	deleted, err = ds.Delete(created.ID)
	if err != nil {
		t.Fatalf("delete again: %v", err)
	}
	if deleted {
		t.Error("second delete should report not found")
	}
}
