package allowance

import "errors"

var (
	// ErrInvalidScore rejects scores outside 1-5 before any I/O happens.
	ErrInvalidScore = errors.New("score must be between 1 and 5")

	// ErrInvalidRange rejects ranges whose end precedes their start.
	ErrInvalidRange = errors.New("end date is before start date")

	// ErrRangeTooLarge rejects bulk vacation ranges longer than the cap.
	ErrRangeTooLarge = errors.New("date range exceeds the maximum of 60 days")

	// ErrNoSettings means a budget cycle had to be synthesized but the
	// family has no settings row to take the cycle start day from. The save
	// path treats this as a hard error, not as "no score".
	ErrNoSettings = errors.New("family settings not found")

	// ErrMemberNotFound means the referenced family member does not exist.
	ErrMemberNotFound = errors.New("family member not found")
)
