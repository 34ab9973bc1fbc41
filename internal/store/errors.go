package store

import "fmt"

// ConstraintError is returned by the convenience wrappers when the catalog
// rejects a rating, play or playlist entry.
type ConstraintError struct {
	Op     string
	Reason string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Op, e.Reason)
}

// AddOutcome is the result of adding a song to a playlist.
type AddOutcome int

const (
	Added AddOutcome = iota
	AlreadyPresent
	Rejected // playlist or song does not exist
)

func (o AddOutcome) String() string {
	switch o {
	case Added:
		return "added"
	case AlreadyPresent:
		return "already present"
	case Rejected:
		return "rejected"
	}
	return fmt.Sprintf("AddOutcome(%d)", int(o))
}
