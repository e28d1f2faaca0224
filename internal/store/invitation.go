package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/farthing/internal/model"
	"github.com/google/uuid"
)

// invitationTTL is how long a freshly issued invitation token stays valid.
const invitationTTL = 7 * 24 * time.Hour

type InvitationStore struct {
	db *sql.DB
}

func NewInvitationStore(db *sql.DB) *InvitationStore {
	return &InvitationStore{db: db}
}

func scanInvitation(scanner interface{ Scan(...any) error }) (*model.Invitation, error) {
	var inv model.Invitation
	var email sql.NullString
	var usedAt sql.NullTime

	err := scanner.Scan(&inv.ID, &inv.FamilyID, &inv.FamilyMemberID, &inv.Token, &email,
		&inv.Role, &inv.CreatedAt, &inv.ExpiresAt, &usedAt, &inv.CreatedBy)
	if err != nil {
		return nil, err
	}

	if email.Valid {
		inv.Email = &email.String
	}
	if usedAt.Valid {
		inv.UsedAt = &usedAt.Time
	}
	return &inv, nil
}

const invitationCols = `id, family_id, family_member_id, token, email, role, created_at, expires_at, used_at, created_by`

// Create issues a new invitation for an unclaimed member with a random UUID
// token and a 7-day expiry.
func (s *InvitationStore) Create(familyID, memberID int64, email *string, role string, createdBy int64) (*model.Invitation, error) {
	token := uuid.NewString()
	expiresAt := time.Now().UTC().Add(invitationTTL)

	var em sql.NullString
	if email != nil {
		em = sql.NullString{String: *email, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO invitations (family_id, family_member_id, token, email, role, expires_at, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		familyID, memberID, token, em, role, expiresAt, createdBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert invitation: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+invitationCols+` FROM invitations WHERE id = ?`, id)
	return scanInvitation(row)
}

func (s *InvitationStore) GetByID(id int64) (*model.Invitation, error) {
	row := s.db.QueryRow(`SELECT `+invitationCols+` FROM invitations WHERE id = ?`, id)
	inv, err := scanInvitation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	return inv, nil
}

func (s *InvitationStore) GetByToken(token string) (*model.Invitation, error) {
	row := s.db.QueryRow(`SELECT `+invitationCols+` FROM invitations WHERE token = ?`, token)
	inv, err := scanInvitation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get invitation by token: %w", err)
	}
	return inv, nil
}

// GetLatestForMember returns the most recently issued invitation for a
// member, or nil.
func (s *InvitationStore) GetLatestForMember(memberID int64) (*model.Invitation, error) {
	row := s.db.QueryRow(
		`SELECT `+invitationCols+` FROM invitations
		 WHERE family_member_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		memberID,
	)
	inv, err := scanInvitation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest invitation for member: %w", err)
	}
	return inv, nil
}

// Regenerate replaces an expired, unused invitation's token and pushes its
// expiry out by the standard TTL.
func (s *InvitationStore) Regenerate(id int64) (*model.Invitation, error) {
	token := uuid.NewString()
	expiresAt := time.Now().UTC().Add(invitationTTL)

	_, err := s.db.Exec(
		`UPDATE invitations SET token = ?, expires_at = ? WHERE id = ? AND used_at IS NULL`,
		token, expiresAt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("regenerate invitation: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+invitationCols+` FROM invitations WHERE id = ?`, id)
	return scanInvitation(row)
}

// Accept links the invited member record to a user account and stamps the
// invitation used, in one transaction. An invitation is accepted at most
// once: the guard on used_at makes a second accept report failure.
func (s *InvitationStore) Accept(id, memberID, userID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`UPDATE invitations SET used_at = datetime('now') WHERE id = ? AND used_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("mark invitation used: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("invitation already used")
	}

	_, err = tx.Exec(
		`UPDATE family_members SET user_id = ?, updated_at = datetime('now') WHERE id = ?`,
		userID, memberID,
	)
	if err != nil {
		return fmt.Errorf("link member to user: %w", err)
	}

	return tx.Commit()
}

func (s *InvitationStore) DeleteExpiredUnused(olderThan time.Time) (int64, error) {
	result, err := s.db.Exec(
		`DELETE FROM invitations WHERE used_at IS NULL AND expires_at <= ?`,
		olderThan.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired invitations: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
