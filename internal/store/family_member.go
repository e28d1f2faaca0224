package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/farthing/internal/model"
	"github.com/shopspring/decimal"
)

type FamilyMemberStore struct {
	db *sql.DB
}

func NewFamilyMemberStore(db *sql.DB) *FamilyMemberStore {
	return &FamilyMemberStore{db: db}
}

func scanFamilyMember(scanner interface{ Scan(...any) error }) (*model.FamilyMember, error) {
	var m model.FamilyMember
	var userID sql.NullInt64
	var allowance sql.NullString

	err := scanner.Scan(&m.ID, &userID, &m.FamilyID, &m.Name, &m.Role, &allowance, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		m.UserID = &userID.Int64
	}
	if allowance.Valid {
		d, err := decimal.NewFromString(allowance.String)
		if err != nil {
			return nil, fmt.Errorf("parse base allowance %q: %w", allowance.String, err)
		}
		m.BaseAllowance = &d
	}
	return &m, nil
}

const familyMemberCols = `id, user_id, family_id, name, role, base_allowance, created_at, updated_at`

func allowanceValue(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func (s *FamilyMemberStore) Create(familyID int64, name, role string, baseAllowance *decimal.Decimal) (*model.FamilyMember, error) {
	result, err := s.db.Exec(
		`INSERT INTO family_members (family_id, name, role, base_allowance) VALUES (?, ?, ?, ?)`,
		familyID, name, role, allowanceValue(baseAllowance),
	)
	if err != nil {
		return nil, fmt.Errorf("insert family member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *FamilyMemberStore) GetByID(id int64) (*model.FamilyMember, error) {
	row := s.db.QueryRow(`SELECT `+familyMemberCols+` FROM family_members WHERE id = ?`, id)
	m, err := scanFamilyMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family member: %w", err)
	}
	return m, nil
}

// GetByUserID returns the member record linked to a user account, or nil.
// Nil is the normal state for a fresh account that has not created or joined
// a family yet.
func (s *FamilyMemberStore) GetByUserID(userID int64) (*model.FamilyMember, error) {
	row := s.db.QueryRow(`SELECT `+familyMemberCols+` FROM family_members WHERE user_id = ?`, userID)
	m, err := scanFamilyMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family member by user: %w", err)
	}
	return m, nil
}

func (s *FamilyMemberStore) ListByFamily(familyID int64) ([]model.FamilyMember, error) {
	rows, err := s.db.Query(
		`SELECT `+familyMemberCols+` FROM family_members WHERE family_id = ? ORDER BY created_at, id`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list family members: %w", err)
	}
	defer rows.Close()

	var members []model.FamilyMember
	for rows.Next() {
		m, err := scanFamilyMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan family member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *FamilyMemberStore) Update(id int64, name, role string, baseAllowance *decimal.Decimal) (*model.FamilyMember, error) {
	_, err := s.db.Exec(
		`UPDATE family_members SET name = ?, role = ?, base_allowance = ?, updated_at = datetime('now') WHERE id = ?`,
		name, role, allowanceValue(baseAllowance), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update family member: %w", err)
	}
	return s.GetByID(id)
}

func (s *FamilyMemberStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM family_members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete family member: %w", err)
	}
	return nil
}
