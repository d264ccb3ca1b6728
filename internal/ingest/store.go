// v1
// internal/ingest/store.go
package ingest

import (
	"sort"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"rotctools/attendance/internal/attendance"
)

// Mark is one accepted attendance outcome keyed by person and day.
type Mark struct {
	PersonID string
	Cohort   string
	Day      time.Time
	Status   attendance.Status
}

// RecordStore keeps the latest mark per (person, day) together with the
// roster and the event calendar implied by the stream. It is safe for
// concurrent use by multiple goroutines.
type RecordStore struct {
	mu      sync.RWMutex
	marks   map[string]map[time.Time]attendance.Status
	cohorts map[string]string
	order   []string
	days    mapset.Set[time.Time]
}

// NewRecordStore initializes an empty store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		marks:   make(map[string]map[time.Time]attendance.Status),
		cohorts: make(map[string]string),
		days:    mapset.NewSet[time.Time](),
	}
}

// Put registers a mark, replacing any previous status for the same person
// and day so the one-status-per-pair invariant holds. It reports whether
// an existing mark was replaced.
func (s *RecordStore) Put(m Mark) bool {
	if m.PersonID == "" {
		return false
	}
	day := attendance.DayOf(m.Day)

	s.mu.Lock()
	defer s.mu.Unlock()

	byDay, exists := s.marks[m.PersonID]
	if !exists {
		byDay = make(map[time.Time]attendance.Status)
		s.marks[m.PersonID] = byDay
		s.order = append(s.order, m.PersonID)
	}
	s.cohorts[m.PersonID] = m.Cohort
	s.days.Add(day)

	_, replaced := byDay[day]
	byDay[day] = m.Status
	return replaced
}

// Size returns the number of known persons and event days, used for
// instrumentation.
func (s *RecordStore) Size() (persons, days int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.marks), s.days.Cardinality()
}

// EventDays returns the sorted event calendar observed so far.
func (s *RecordStore) EventDays() []time.Time {
	s.mu.RLock()
	out := s.days.ToSlice()
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// DayMarks returns the marks recorded for a single day sorted by person.
// Persons with no mark for the day are omitted; the caller fills absences
// against the roster.
func (s *RecordStore) DayMarks(day time.Time) []Mark {
	day = attendance.DayOf(day)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Mark
	for _, personID := range s.order {
		status, ok := s.marks[personID][day]
		if !ok {
			continue
		}
		out = append(out, Mark{PersonID: personID, Cohort: s.cohorts[personID], Day: day, Status: status})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PersonID < out[j].PersonID })
	return out
}

// Snapshot returns defensive copies of all marks as aggregation inputs,
// the roster, and the event calendar. Records are ordered by person then
// day so downstream consumers observe deterministic input.
func (s *RecordStore) Snapshot() ([]attendance.Record, []attendance.Member, []string) {
	s.mu.RLock()

	persons := make([]string, len(s.order))
	copy(persons, s.order)
	sort.Strings(persons)

	records := make([]attendance.Record, 0, len(persons))
	members := make([]attendance.Member, 0, len(persons))
	for _, personID := range persons {
		members = append(members, attendance.Member{PersonID: personID, Cohort: s.cohorts[personID]})
		byDay := s.marks[personID]
		days := make([]time.Time, 0, len(byDay))
		for day := range byDay {
			days = append(days, day)
		}
		sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
		for _, day := range days {
			records = append(records, attendance.Record{
				PersonID: personID,
				Cohort:   s.cohorts[personID],
				Date:     attendance.FormatDay(day),
				Status:   byDay[day],
			})
		}
	}

	calendar := s.days.ToSlice()
	s.mu.RUnlock()

	sort.Slice(calendar, func(i, j int) bool { return calendar[i].Before(calendar[j]) })
	dates := make([]string, 0, len(calendar))
	for _, day := range calendar {
		dates = append(dates, attendance.FormatDay(day))
	}
	return records, members, dates
}
