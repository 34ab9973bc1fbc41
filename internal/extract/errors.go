package extract

import "fmt"

// SkipReason explains why a page fragment produced no record.
type SkipReason string

const (
	SkipNone      SkipReason = ""
	SkipNoLink    SkipReason = "no-link"
	SkipAmbiguous SkipReason = "ambiguous"
	SkipSeen      SkipReason = "seen"
)

// ExtractionError wraps an unexpected failure that aborts a run.
type ExtractionError struct {
	Stage string // harvest, enrich, output
	Tab   string
	Cause error
}

func (e *ExtractionError) Error() string {
	if e.Tab != "" {
		return fmt.Sprintf("extraction failed during %s of tab %q: %v", e.Stage, e.Tab, e.Cause)
	}
	return fmt.Sprintf("extraction failed during %s: %v", e.Stage, e.Cause)
}

func (e *ExtractionError) Unwrap() error { return e.Cause }
