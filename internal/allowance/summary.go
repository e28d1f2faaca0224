package allowance

import (
	"errors"
	"time"

	"github.com/dukerupert/farthing/internal/model"
	"github.com/shopspring/decimal"
)

// ErrNotChild is returned when an allowance summary is requested for a
// member without a base allowance (parents).
var ErrNotChild = errors.New("member has no base allowance")

// CycleSummary reports a child's performance over one budget cycle and the
// allowance it has earned so far.
type CycleSummary struct {
	Cycle         model.BudgetCycle `json:"cycle"`
	ScoredDays    int               `json:"scored_days"`
	VacationDays  int               `json:"vacation_days"`
	AverageScore  decimal.Decimal   `json:"average_score"`
	BaseAllowance decimal.Decimal   `json:"base_allowance"`
	EarnedSoFar   decimal.Decimal   `json:"earned_so_far"`
}

var five = decimal.NewFromInt(5)

// SummarizeCycle resolves the cycle containing date and computes the child's
// earned allowance: base allowance scaled by the mean score over the cycle's
// scored days, as a fraction of the maximum score. Vacation days count with
// whatever score they carry. All arithmetic is exact decimal, rounded to two
// places at the end.
func (s *Service) SummarizeCycle(memberID int64, date time.Time) (*CycleSummary, error) {
	member, err := s.members.GetByID(memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	if member.BaseAllowance == nil {
		return nil, ErrNotChild
	}

	bc, err := s.ResolveCycle(member.FamilyID, date)
	if err != nil {
		return nil, err
	}

	scores, err := s.scores.ListByCycle(memberID, bc.ID)
	if err != nil {
		return nil, err
	}

	summary := &CycleSummary{
		Cycle:         *bc,
		BaseAllowance: *member.BaseAllowance,
		AverageScore:  decimal.Zero,
		EarnedSoFar:   decimal.Zero,
	}

	if len(scores) == 0 {
		return summary, nil
	}

	total := decimal.Zero
	for _, sc := range scores {
		total = total.Add(decimal.NewFromInt(int64(sc.Score)))
		if sc.IsVacation {
			summary.VacationDays++
		}
	}
	summary.ScoredDays = len(scores)

	avg := total.Div(decimal.NewFromInt(int64(len(scores))))
	summary.AverageScore = avg.Round(2)
	summary.EarnedSoFar = member.BaseAllowance.Mul(avg).Div(five).Round(2)
	return summary, nil
}
