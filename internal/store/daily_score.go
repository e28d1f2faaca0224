package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/farthing/internal/model"
)

type DailyScoreStore struct {
	db *sql.DB
}

func NewDailyScoreStore(db *sql.DB) *DailyScoreStore {
	return &DailyScoreStore{db: db}
}

func scanDailyScore(scanner interface{ Scan(...any) error }) (*model.DailyScore, error) {
	var d model.DailyScore
	var isVacation int
	var notes sql.NullString

	err := scanner.Scan(&d.ID, &d.FamilyMemberID, &d.BudgetCycleID, &d.Score, &d.Date,
		&isVacation, &notes, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}

	d.IsVacation = isVacation != 0
	d.Notes = notes.String
	return &d, nil
}

const dailyScoreCols = `id, family_member_id, budget_cycle_id, score, date, is_vacation, notes, created_at, updated_at`

func (s *DailyScoreStore) Create(memberID, cycleID int64, score int, date string, isVacation bool, notes string) (*model.DailyScore, error) {
	var vac int
	if isVacation {
		vac = 1
	}
	result, err := s.db.Exec(
		`INSERT INTO daily_scores (family_member_id, budget_cycle_id, score, date, is_vacation, notes)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		memberID, cycleID, score, date, vac, notes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert daily score: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// Update rewrites the mutable fields of a score, preserving its identity and
// budget cycle linkage.
func (s *DailyScoreStore) Update(id int64, score int, isVacation bool, notes string) (*model.DailyScore, error) {
	var vac int
	if isVacation {
		vac = 1
	}
	_, err := s.db.Exec(
		`UPDATE daily_scores SET score = ?, is_vacation = ?, notes = ?, updated_at = datetime('now') WHERE id = ?`,
		score, vac, notes, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update daily score: %w", err)
	}
	return s.GetByID(id)
}

func (s *DailyScoreStore) GetByID(id int64) (*model.DailyScore, error) {
	row := s.db.QueryRow(`SELECT `+dailyScoreCols+` FROM daily_scores WHERE id = ?`, id)
	d, err := scanDailyScore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get daily score: %w", err)
	}
	return d, nil
}

// GetByMemberAndDate returns the single score for a member on a calendar
// date, or nil. At most one exists.
func (s *DailyScoreStore) GetByMemberAndDate(memberID int64, date string) (*model.DailyScore, error) {
	row := s.db.QueryRow(
		`SELECT `+dailyScoreCols+` FROM daily_scores WHERE family_member_id = ? AND date = ?`,
		memberID, date,
	)
	d, err := scanDailyScore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get daily score by member and date: %w", err)
	}
	return d, nil
}

// ListByMemberAndRange returns scores for a member between two YYYY-MM-DD
// dates inclusive, ascending by date.
func (s *DailyScoreStore) ListByMemberAndRange(memberID int64, startDate, endDate string) ([]model.DailyScore, error) {
	rows, err := s.db.Query(
		`SELECT `+dailyScoreCols+` FROM daily_scores
		 WHERE family_member_id = ? AND date >= ? AND date <= ?
		 ORDER BY date`,
		memberID, startDate, endDate,
	)
	if err != nil {
		return nil, fmt.Errorf("list daily scores: %w", err)
	}
	defer rows.Close()

	var scores []model.DailyScore
	for rows.Next() {
		d, err := scanDailyScore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan daily score: %w", err)
		}
		scores = append(scores, *d)
	}
	return scores, rows.Err()
}

// ListByCycle returns a member's scores within one budget cycle.
func (s *DailyScoreStore) ListByCycle(memberID, cycleID int64) ([]model.DailyScore, error) {
	rows, err := s.db.Query(
		`SELECT `+dailyScoreCols+` FROM daily_scores
		 WHERE family_member_id = ? AND budget_cycle_id = ?
		 ORDER BY date`,
		memberID, cycleID,
	)
	if err != nil {
		return nil, fmt.Errorf("list daily scores by cycle: %w", err)
	}
	defer rows.Close()

	var scores []model.DailyScore
	for rows.Next() {
		d, err := scanDailyScore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan daily score: %w", err)
		}
		scores = append(scores, *d)
	}
	return scores, rows.Err()
}

// Delete removes a score and reports whether a row was actually deleted.
// Deleting an id that does not exist is not an error.
func (s *DailyScoreStore) Delete(id int64) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM daily_scores WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete daily score: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return count > 0, nil
}
