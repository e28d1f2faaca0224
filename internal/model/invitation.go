package model

import "time"

// Invitation is a time-limited token that lets an unlinked family member
// record be claimed by a user account.
type Invitation struct {
	ID             int64      `json:"id"`
	FamilyID       int64      `json:"family_id"`
	FamilyMemberID int64      `json:"family_member_id"`
	Token          string     `json:"token"`
	Email          *string    `json:"email"`
	Role           string     `json:"role"`
	CreatedAt      time.Time  `json:"created_at"`
	ExpiresAt      time.Time  `json:"expires_at"`
	UsedAt         *time.Time `json:"used_at"`
	CreatedBy      int64      `json:"created_by"`
}

// Expired reports whether the invitation's validity window has passed.
func (i *Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// Usable reports whether the invitation can still be accepted.
func (i *Invitation) Usable(now time.Time) bool {
	return i.UsedAt == nil && !i.Expired(now)
}
