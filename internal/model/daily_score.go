package model

import "time"

// DailyScore is a 1-5 rating for one family member on one calendar date.
// At most one score exists per (family_member_id, date). Date is the local
// calendar date in YYYY-MM-DD form, never a UTC-shifted instant.
type DailyScore struct {
	ID             int64     `json:"id"`
	FamilyMemberID int64     `json:"family_member_id"`
	BudgetCycleID  int64     `json:"budget_cycle_id"`
	Score          int       `json:"score"`
	Date           string    `json:"date"`
	IsVacation     bool      `json:"is_vacation"`
	Notes          string    `json:"notes"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
