package model

import "time"

// BudgetCycle is a contiguous date interval grouping daily scores for
// allowance calculation. Dates are calendar dates in YYYY-MM-DD form;
// both bounds are inclusive.
type BudgetCycle struct {
	ID        int64     `json:"id"`
	FamilyID  int64     `json:"family_id"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
