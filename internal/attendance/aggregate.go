// v1
// internal/attendance/aggregate.go
package attendance

import (
	"fmt"
	"sort"
	"time"
)

// Totals aggregates one person's outcomes over a date range. The counters
// always satisfy Present+FTR+Excused+Absent == Sessions.
type Totals struct {
	PersonID string
	Cohort   string
	Present  int
	FTR      int
	Excused  int
	Absent   int
	Sessions int
}

// SkippedRecord is a per-record diagnostic emitted when aggregation drops
// an input value instead of failing the whole call.
type SkippedRecord struct {
	PersonID string
	Date     string
	Err      error
}

// Result carries per-person totals plus the diagnostics for inputs the
// aggregation had to skip.
type Result struct {
	Totals  []Totals
	Skipped []SkippedRecord
}

// Aggregate reduces per-event records into per-person totals over the
// inclusive [from, to] window. The event calendar supplied in eventDates
// defines the sessions counted for every roster member: a member without a
// record for a calendar day is counted absent for that day. Records whose
// date cannot be parsed are collected as diagnostics and aggregation
// continues; an inverted window aborts with ErrInvalidRange.
//
// When the same (person, date) pair appears more than once the last record
// wins, preserving the one-status-per-pair invariant.
func Aggregate(records []Record, from, to time.Time, roster []Member, eventDates []string) (Result, error) {
	from, to = DayOf(from), DayOf(to)
	if from.After(to) {
		return Result{}, fmt.Errorf("aggregate window %s..%s: %w", FormatDay(from), FormatDay(to), ErrInvalidRange)
	}

	var res Result

	calendar := make(map[time.Time]struct{})
	for _, raw := range eventDates {
		day, err := ParseDay(raw)
		if err != nil {
			res.Skipped = append(res.Skipped, SkippedRecord{Date: raw, Err: err})
			continue
		}
		if day.Before(from) || day.After(to) {
			continue
		}
		calendar[day] = struct{}{}
	}
	sessions := len(calendar)
	if sessions == 0 {
		return res, nil
	}

	cohorts := make(map[string]string, len(roster))
	order := make([]string, 0, len(roster))
	for _, m := range roster {
		if _, seen := cohorts[m.PersonID]; !seen {
			order = append(order, m.PersonID)
		}
		cohorts[m.PersonID] = m.Cohort
	}

	marks := make(map[string]map[time.Time]Status)
	for _, rec := range records {
		day, err := ParseDay(rec.Date)
		if err != nil {
			res.Skipped = append(res.Skipped, SkippedRecord{PersonID: rec.PersonID, Date: rec.Date, Err: err})
			continue
		}
		if day.Before(from) || day.After(to) {
			continue
		}
		if _, known := calendar[day]; !known {
			res.Skipped = append(res.Skipped, SkippedRecord{
				PersonID: rec.PersonID,
				Date:     rec.Date,
				Err:      &DayError{Raw: rec.Date, Reason: "no event on this date"},
			})
			continue
		}
		if _, seen := cohorts[rec.PersonID]; !seen {
			// The roster may lag behind the stream; keep the person using
			// the cohort carried by the record.
			cohorts[rec.PersonID] = rec.Cohort
			order = append(order, rec.PersonID)
		}
		byDay, ok := marks[rec.PersonID]
		if !ok {
			byDay = make(map[time.Time]Status)
			marks[rec.PersonID] = byDay
		}
		byDay[day] = rec.Status
	}

	sort.Strings(order)
	res.Totals = make([]Totals, 0, len(order))
	for _, personID := range order {
		t := Totals{PersonID: personID, Cohort: cohorts[personID], Sessions: sessions}
		byDay := marks[personID]
		for day := range calendar {
			switch byDay[day] {
			case StatusPresent:
				t.Present++
			case StatusFTR:
				t.FTR++
			case StatusExcused:
				t.Excused++
			default:
				t.Absent++
			}
		}
		res.Totals = append(res.Totals, t)
	}
	return res, nil
}
