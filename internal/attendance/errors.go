// v0
// internal/attendance/errors.go
package attendance

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRange reports a date window whose start falls after its end.
	ErrInvalidRange = errors.New("range start falls after range end")
	// ErrInvalidArgument reports a caller-contract violation such as a
	// non-positive leaderboard size or smoothing window. Calls failing with
	// this error performed no work.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidInput reports malformed data values, e.g. non-finite samples.
	ErrInvalidInput = errors.New("invalid input")
)

// DayError describes a single date value that could not be parsed. It is
// collected per record so one bad cell never voids a whole report.
type DayError struct {
	Raw    string
	Reason string
}

func (e *DayError) Error() string {
	return fmt.Sprintf("invalid date %q: %s", e.Raw, e.Reason)
}
