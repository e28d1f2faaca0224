// Package allowance implements the budget-cycle-aware daily score logic:
// resolving (or synthesizing) the budget cycle that encloses a calendar
// date, reconciling score records against it, and the bulk vacation
// operation built on top.
package allowance

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/farthing/internal/cycle"
	"github.com/dukerupert/farthing/internal/dates"
	"github.com/dukerupert/farthing/internal/model"
	"github.com/dukerupert/farthing/internal/store"
)

// maxVacationRangeDays caps a single bulk vacation request. It bounds the
// per-day write fan-out a single UI action can trigger.
const maxVacationRangeDays = 60

// vacationNotes is written on days a bulk operation marks as vacation.
const vacationNotes = "Vacation day"

type Service struct {
	families *store.FamilyStore
	members  *store.FamilyMemberStore
	cycles   *store.BudgetCycleStore
	scores   *store.DailyScoreStore
	logger   *slog.Logger
}

func NewService(families *store.FamilyStore, members *store.FamilyMemberStore,
	cycles *store.BudgetCycleStore, scores *store.DailyScoreStore, logger *slog.Logger) *Service {
	return &Service{
		families: families,
		members:  members,
		cycles:   cycles,
		scores:   scores,
		logger:   logger,
	}
}

// ResolveCycle returns the budget cycle of familyID that covers date,
// creating it if necessary. Resolution is idempotent: an existing covering
// cycle is returned untouched, and the insert path lands on the cycle
// table's unique key, so two concurrent resolutions of the same date agree
// on a single row.
func (s *Service) ResolveCycle(familyID int64, date time.Time) (*model.BudgetCycle, error) {
	day := dates.Format(date)

	existing, err := s.cycles.FindForDate(familyID, day)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	settings, err := s.families.GetSettings(familyID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, ErrNoSettings
	}

	start, end, err := cycle.Bounds(date, settings.BudgetCycleStartDay)
	if err != nil {
		return nil, fmt.Errorf("compute cycle bounds: %w", err)
	}

	created, err := s.cycles.CreateOrGet(familyID, dates.Format(start), dates.Format(end))
	if err != nil {
		return nil, err
	}

	s.logger.Info("created budget cycle",
		"family_id", familyID,
		"start_date", created.StartDate,
		"end_date", created.EndDate)
	return created, nil
}

// SaveScore records a 1-5 score for a member on a calendar date, creating or
// updating the single record for that (member, date) pair. The enclosing
// budget cycle is resolved first; any resolver failure aborts the save.
//
// Vacation days take the family's configured vacation default score instead
// of the submitted value whenever that setting is present. That override is
// a business rule, not a validation step: the submitted score must still be
// in range.
func (s *Service) SaveScore(memberID int64, date time.Time, score int, isVacation bool, notes string) (*model.DailyScore, error) {
	if score < 1 || score > 5 {
		return nil, ErrInvalidScore
	}

	member, err := s.members.GetByID(memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}

	bc, err := s.ResolveCycle(member.FamilyID, date)
	if err != nil {
		return nil, err
	}

	if isVacation {
		settings, err := s.families.GetSettings(member.FamilyID)
		if err != nil {
			return nil, err
		}
		if settings != nil && settings.VacationDefaultScore != nil {
			score = *settings.VacationDefaultScore
		}
	}

	day := dates.Format(date)
	existing, err := s.scores.GetByMemberAndDate(memberID, day)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.scores.Update(existing.ID, score, isVacation, notes)
	}
	return s.scores.Create(memberID, bc.ID, score, day, isVacation, notes)
}

// DeleteScore removes a score by id. It reports false for an id that does
// not exist; callers surface that as a failed delete, not a crash.
func (s *Service) DeleteScore(scoreID int64) (bool, error) {
	return s.scores.Delete(scoreID)
}

// ScoresForRange is the calendar read path: a member's scores between two
// dates inclusive.
func (s *Service) ScoresForRange(memberID int64, start, end time.Time) ([]model.DailyScore, error) {
	if dates.DayCount(start, end) == 0 {
		return nil, ErrInvalidRange
	}
	return s.scores.ListByMemberAndRange(memberID, dates.Format(start), dates.Format(end))
}

// BulkResult aggregates the outcome of a bulk vacation operation.
type BulkResult struct {
	SuccessCount int `json:"success_count"`
	ErrorCount   int `json:"error_count"`
}

// SetVacationDays applies the vacation flag to every day in the inclusive
// range. Validation happens before any write: an inverted range or one over
// 60 days is rejected with no side effects.
//
// Days are processed independently and sequentially; a failure on one day is
// counted and the rest of the range continues. There is no rollback of
// earlier days, the result simply reports how many days succeeded and how
// many failed. Setting vacation applies the family's configured default
// score to every day, the same override a single-day save applies; existing
// values survive only when no default is configured. Days without a score
// get the default, falling back to 3. Unsetting keeps each day's score and
// notes as they are.
func (s *Service) SetVacationDays(memberID int64, start, end time.Time, isVacation bool) (BulkResult, error) {
	count := dates.DayCount(start, end)
	if count == 0 {
		return BulkResult{}, ErrInvalidRange
	}
	if count > maxVacationRangeDays {
		return BulkResult{}, ErrRangeTooLarge
	}

	member, err := s.members.GetByID(memberID)
	if err != nil {
		return BulkResult{}, err
	}
	if member == nil {
		return BulkResult{}, ErrMemberNotFound
	}

	defaultScore := store.DefaultVacationScore
	if settings, err := s.families.GetSettings(member.FamilyID); err == nil && settings != nil && settings.VacationDefaultScore != nil {
		defaultScore = *settings.VacationDefaultScore
	}

	var result BulkResult
	for _, day := range dates.Range(start, end) {
		if err := s.applyVacationDay(memberID, day, isVacation, defaultScore); err != nil {
			s.logger.Warn("vacation day failed",
				"member_id", memberID,
				"date", dates.Format(day),
				"error", err)
			result.ErrorCount++
			continue
		}
		result.SuccessCount++
	}
	return result, nil
}

func (s *Service) applyVacationDay(memberID int64, day time.Time, isVacation bool, defaultScore int) error {
	existing, err := s.scores.GetByMemberAndDate(memberID, dates.Format(day))
	if err != nil {
		return err
	}

	score := defaultScore
	notes := ""
	if isVacation {
		notes = vacationNotes
	}
	if existing != nil {
		score = existing.Score
		if !isVacation {
			notes = existing.Notes
		}
	}

	_, err = s.SaveScore(memberID, day, score, isVacation, notes)
	return err
}
