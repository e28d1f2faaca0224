package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleParent = "parent"
	RoleChild  = "child"
)

// FamilyMember is a person in a family. UserID stays nil until the member
// claims an invitation and links an account. BaseAllowance is required for
// children and must be nil for parents.
type FamilyMember struct {
	ID            int64            `json:"id"`
	UserID        *int64           `json:"user_id"`
	FamilyID      int64            `json:"family_id"`
	Name          string           `json:"name"`
	Role          string           `json:"role"`
	BaseAllowance *decimal.Decimal `json:"base_allowance"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}
