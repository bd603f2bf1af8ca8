package domain

import "fmt"

// Status is the outcome class of parsing one file.
type Status int

const (
	// Accepted means the file produced a profile.
	Accepted Status = iota
	// Skipped means the file was intentionally excluded: deny-listed, not
	// allow-listed, a decoy, a down-cast, or lacking required columns.
	Skipped
	// Failed means the file was malformed or unreadable.
	Failed
)

func (s Status) String() string {
	switch s {
	case Accepted:
		return "accepted"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Skip reasons, used as log fields and metric labels.
const (
	ReasonDenyListed   = "deny_listed"
	ReasonNotAllowed   = "not_allowed"
	ReasonWrongKind    = "wrong_file_kind"
	ReasonBadFilename  = "unusable_filename"
	ReasonNoColumns    = "missing_columns"
	ReasonDownCast     = "down_cast"
	ReasonTooFewPoints = "too_few_points"
)

// Result is the tri-state outcome of parsing one file.
type Result struct {
	Status  Status
	Profile Profile
	Reason  string
	Err     error
}

// Accept wraps a parsed profile.
func Accept(p Profile) Result {
	return Result{Status: Accepted, Profile: p}
}

// Skip records an intentional exclusion.
func Skip(reason string) Result {
	return Result{Status: Skipped, Reason: reason}
}

// Fail records a malformed file.
func Fail(err error) Result {
	return Result{Status: Failed, Err: err}
}
