package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/farthing/internal/model"
)

type BudgetCycleStore struct {
	db *sql.DB
}

func NewBudgetCycleStore(db *sql.DB) *BudgetCycleStore {
	return &BudgetCycleStore{db: db}
}

func scanBudgetCycle(scanner interface{ Scan(...any) error }) (*model.BudgetCycle, error) {
	var c model.BudgetCycle
	err := scanner.Scan(&c.ID, &c.FamilyID, &c.StartDate, &c.EndDate, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const budgetCycleCols = `id, family_id, start_date, end_date, created_at, updated_at`

// FindForDate returns the cycle whose inclusive interval covers the given
// YYYY-MM-DD date, or nil if none exists. ISO date strings compare
// lexicographically in calendar order.
func (s *BudgetCycleStore) FindForDate(familyID int64, date string) (*model.BudgetCycle, error) {
	row := s.db.QueryRow(
		`SELECT `+budgetCycleCols+` FROM budget_cycles
		 WHERE family_id = ? AND start_date <= ? AND end_date >= ?`,
		familyID, date, date,
	)
	c, err := scanBudgetCycle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find cycle for date: %w", err)
	}
	return c, nil
}

// CreateOrGet inserts a cycle with the exact given bounds, or returns the
// existing one when another writer got there first. The insert ignores the
// (family_id, start_date, end_date) unique-key conflict and the follow-up
// select returns the winner, so concurrent resolution of the same date can
// never produce duplicate cycles.
func (s *BudgetCycleStore) CreateOrGet(familyID int64, startDate, endDate string) (*model.BudgetCycle, error) {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO budget_cycles (family_id, start_date, end_date) VALUES (?, ?, ?)`,
		familyID, startDate, endDate,
	)
	if err != nil {
		return nil, fmt.Errorf("insert budget cycle: %w", err)
	}

	row := s.db.QueryRow(
		`SELECT `+budgetCycleCols+` FROM budget_cycles
		 WHERE family_id = ? AND start_date = ? AND end_date = ?`,
		familyID, startDate, endDate,
	)
	c, err := scanBudgetCycle(row)
	if err != nil {
		return nil, fmt.Errorf("get budget cycle after insert: %w", err)
	}
	return c, nil
}

func (s *BudgetCycleStore) GetByID(id int64) (*model.BudgetCycle, error) {
	row := s.db.QueryRow(`SELECT `+budgetCycleCols+` FROM budget_cycles WHERE id = ?`, id)
	c, err := scanBudgetCycle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get budget cycle: %w", err)
	}
	return c, nil
}

func (s *BudgetCycleStore) ListByFamily(familyID int64) ([]model.BudgetCycle, error) {
	rows, err := s.db.Query(
		`SELECT `+budgetCycleCols+` FROM budget_cycles WHERE family_id = ? ORDER BY start_date`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list budget cycles: %w", err)
	}
	defer rows.Close()

	var cycles []model.BudgetCycle
	for rows.Next() {
		c, err := scanBudgetCycle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget cycle: %w", err)
		}
		cycles = append(cycles, *c)
	}
	return cycles, rows.Err()
}
