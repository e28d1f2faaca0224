package model

import "time"

type Family struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FamilySettings holds per-family configuration. Exactly one row exists per
// family; it is inserted in the same transaction that creates the family.
type FamilySettings struct {
	FamilyID             int64     `json:"family_id"`
	BudgetCycleStartDay  int       `json:"budget_cycle_start_day"`
	VacationDefaultScore *int      `json:"vacation_default_score"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}
