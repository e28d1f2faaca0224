package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/farthing/internal/model"
)

const (
	// Defaults applied to a new family's settings row.
	DefaultCycleStartDay = 25
	DefaultVacationScore = 3
)

type FamilyStore struct {
	db *sql.DB
}

func NewFamilyStore(db *sql.DB) *FamilyStore {
	return &FamilyStore{db: db}
}

func scanFamily(scanner interface{ Scan(...any) error }) (*model.Family, error) {
	var f model.Family
	err := scanner.Scan(&f.ID, &f.Name, &f.OwnerID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func scanSettings(scanner interface{ Scan(...any) error }) (*model.FamilySettings, error) {
	var fs model.FamilySettings
	var vacScore sql.NullInt64
	err := scanner.Scan(&fs.FamilyID, &fs.BudgetCycleStartDay, &vacScore, &fs.CreatedAt, &fs.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if vacScore.Valid {
		v := int(vacScore.Int64)
		fs.VacationDefaultScore = &v
	}
	return &fs, nil
}

const familyCols = `id, name, owner_id, created_at, updated_at`
const settingsCols = `family_id, budget_cycle_start_day, vacation_default_score, created_at, updated_at`

// Create inserts a family, its settings row, and the owner's parent member in
// a single transaction. A family never exists without settings.
func (s *FamilyStore) Create(name string, ownerID int64, ownerName string) (*model.Family, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`INSERT INTO families (name, owner_id) VALUES (?, ?)`, name, ownerID)
	if err != nil {
		return nil, fmt.Errorf("insert family: %w", err)
	}
	familyID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO family_settings (family_id, budget_cycle_start_day, vacation_default_score) VALUES (?, ?, ?)`,
		familyID, DefaultCycleStartDay, DefaultVacationScore,
	)
	if err != nil {
		return nil, fmt.Errorf("insert family settings: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO family_members (user_id, family_id, name, role) VALUES (?, ?, ?, ?)`,
		ownerID, familyID, ownerName, model.RoleParent,
	)
	if err != nil {
		return nil, fmt.Errorf("insert owner member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return s.GetByID(familyID)
}

func (s *FamilyStore) GetByID(id int64) (*model.Family, error) {
	row := s.db.QueryRow(`SELECT `+familyCols+` FROM families WHERE id = ?`, id)
	f, err := scanFamily(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family: %w", err)
	}
	return f, nil
}

func (s *FamilyStore) GetByOwnerID(ownerID int64) (*model.Family, error) {
	row := s.db.QueryRow(`SELECT `+familyCols+` FROM families WHERE owner_id = ?`, ownerID)
	f, err := scanFamily(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family by owner: %w", err)
	}
	return f, nil
}

// GetForUser returns the family the user belongs to through a linked member
// record, or nil if the user has not joined a family yet.
func (s *FamilyStore) GetForUser(userID int64) (*model.Family, error) {
	row := s.db.QueryRow(
		`SELECT f.id, f.name, f.owner_id, f.created_at, f.updated_at
		 FROM families f
		 JOIN family_members m ON m.family_id = f.id
		 WHERE m.user_id = ?
		 LIMIT 1`,
		userID,
	)
	f, err := scanFamily(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family for user: %w", err)
	}
	return f, nil
}

func (s *FamilyStore) Update(id int64, name string) (*model.Family, error) {
	_, err := s.db.Exec(
		`UPDATE families SET name = ?, updated_at = datetime('now') WHERE id = ?`,
		name, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update family: %w", err)
	}
	return s.GetByID(id)
}

// GetSettings returns the family's settings row, or nil if the family does
// not exist. A missing row for an existing family is a data fault the caller
// treats as missing configuration.
func (s *FamilyStore) GetSettings(familyID int64) (*model.FamilySettings, error) {
	row := s.db.QueryRow(`SELECT `+settingsCols+` FROM family_settings WHERE family_id = ?`, familyID)
	fs, err := scanSettings(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family settings: %w", err)
	}
	return fs, nil
}

func (s *FamilyStore) UpdateSettings(familyID int64, cycleStartDay int, vacationDefaultScore *int) (*model.FamilySettings, error) {
	var vac sql.NullInt64
	if vacationDefaultScore != nil {
		vac = sql.NullInt64{Int64: int64(*vacationDefaultScore), Valid: true}
	}
	_, err := s.db.Exec(
		`UPDATE family_settings
		 SET budget_cycle_start_day = ?, vacation_default_score = ?, updated_at = datetime('now')
		 WHERE family_id = ?`,
		cycleStartDay, vac, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("update family settings: %w", err)
	}
	return s.GetSettings(familyID)
}
