// v0
// internal/attendance/record.go
package attendance

import "strings"

// Status classifies one person's outcome for one event. Absent covers both
// an explicit absent mark and the lack of any record for a known event.
type Status int

const (
	StatusAbsent Status = iota
	StatusPresent
	StatusFTR
	StatusExcused
)

func (s Status) String() string {
	switch s {
	case StatusPresent:
		return "Present"
	case StatusFTR:
		return "FTR"
	case StatusExcused:
		return "Excused"
	default:
		return "Absent"
	}
}

// statusMarks maps the mark vocabulary tolerated by the roster sheet
// onto statuses. Lookups are lowercase.
var statusMarks = map[string]Status{
	"p":         StatusPresent,
	"present":   StatusPresent,
	"✔":         StatusPresent,
	"✓":         StatusPresent,
	"x":         StatusPresent,
	"1":         StatusPresent,
	"ftr":       StatusFTR,
	"unexcused": StatusFTR,
	"u":         StatusFTR,
	"no":        StatusFTR,
	"-":         StatusFTR,
	"0":         StatusFTR,
	"e":         StatusExcused,
	"excused":   StatusExcused,
	"a":         StatusAbsent,
	"absent":    StatusAbsent,
}

// ParseStatus resolves a raw sheet mark. Blank marks resolve to Absent, the
// meaning of an empty cell in the roster sheet. The boolean reports whether
// the mark belongs to the known vocabulary.
func ParseStatus(mark string) (Status, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(mark))
	if trimmed == "" {
		return StatusAbsent, true
	}
	status, ok := statusMarks[trimmed]
	return status, ok
}

// Record is one person's outcome for one event date as it arrives from the
// sync stream. Date stays raw so aggregation can report unparseable values
// per record instead of rejecting whole batches.
type Record struct {
	PersonID string
	Cohort   string
	Date     string
	Status   Status
}

// Member ties a roster entry to its cohort label.
type Member struct {
	PersonID string
	Cohort   string
}
