// v0
// internal/ingest/store_test.go
package ingest

import (
	"testing"
	"time"

	"rotctools/attendance/internal/attendance"
)

func day(t *testing.T, raw string) time.Time {
	t.Helper()
	parsed, err := attendance.ParseDay(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return parsed
}

func TestRecordStorePutLastWriteWins(t *testing.T) {
	store := NewRecordStore()

	if replaced := store.Put(Mark{PersonID: "Adams Avery", Cohort: "MS1", Day: day(t, "2024-07-09"), Status: attendance.StatusFTR}); replaced {
		t.Fatalf("first put should not report replacement")
	}
	if replaced := store.Put(Mark{PersonID: "Adams Avery", Cohort: "MS1", Day: day(t, "2024-07-09"), Status: attendance.StatusPresent}); !replaced {
		t.Fatalf("second put for same person and day should report replacement")
	}

	marks := store.DayMarks(day(t, "2024-07-09"))
	if len(marks) != 1 {
		t.Fatalf("expected one mark, got %d", len(marks))
	}
	if marks[0].Status != attendance.StatusPresent {
		t.Fatalf("expected the newer status to win, got %v", marks[0].Status)
	}
}

func TestRecordStoreIgnoresEmptyPerson(t *testing.T) {
	store := NewRecordStore()
	store.Put(Mark{PersonID: "", Day: day(t, "2024-07-09"), Status: attendance.StatusPresent})

	persons, days := store.Size()
	if persons != 0 || days != 0 {
		t.Fatalf("expected empty store, got %d persons and %d days", persons, days)
	}
}

func TestRecordStoreEventDaysSorted(t *testing.T) {
	store := NewRecordStore()
	store.Put(Mark{PersonID: "a", Day: day(t, "2024-07-16"), Status: attendance.StatusPresent})
	store.Put(Mark{PersonID: "a", Day: day(t, "2024-07-09"), Status: attendance.StatusPresent})
	store.Put(Mark{PersonID: "b", Day: day(t, "2024-07-09"), Status: attendance.StatusFTR})

	got := store.EventDays()
	if len(got) != 2 {
		t.Fatalf("expected two event days, got %d", len(got))
	}
	if !got[0].Before(got[1]) {
		t.Fatalf("expected sorted days, got %v", got)
	}
	if attendance.FormatDay(got[0]) != "2024-07-09" {
		t.Fatalf("unexpected first day: %v", got[0])
	}
}

func TestRecordStoreSnapshotDeterministic(t *testing.T) {
	store := NewRecordStore()
	store.Put(Mark{PersonID: "Baker Blair", Cohort: "MS3", Day: day(t, "2024-07-11"), Status: attendance.StatusFTR})
	store.Put(Mark{PersonID: "Adams Avery", Cohort: "MS1", Day: day(t, "2024-07-11"), Status: attendance.StatusPresent})
	store.Put(Mark{PersonID: "Adams Avery", Cohort: "MS1", Day: day(t, "2024-07-09"), Status: attendance.StatusPresent})

	records, members, dates := store.Snapshot()

	if len(members) != 2 || members[0].PersonID != "Adams Avery" || members[1].PersonID != "Baker Blair" {
		t.Fatalf("expected roster sorted by person, got %+v", members)
	}
	if len(records) != 3 {
		t.Fatalf("expected three records, got %d", len(records))
	}
	if records[0].PersonID != "Adams Avery" || records[0].Date != "2024-07-09" {
		t.Fatalf("expected person-then-day ordering, got %+v", records[0])
	}
	if len(dates) != 2 || dates[0] != "2024-07-09" || dates[1] != "2024-07-11" {
		t.Fatalf("unexpected calendar: %v", dates)
	}

	// Snapshots feed straight into aggregation.
	result, err := attendance.Aggregate(records, day(t, "2024-07-01"), day(t, "2024-07-31"), members, dates)
	if err != nil {
		t.Fatalf("aggregate snapshot: %v", err)
	}
	if len(result.Totals) != 2 {
		t.Fatalf("expected totals for both persons, got %d", len(result.Totals))
	}
}

func TestRecordStoreDayMarksFiltersOtherDays(t *testing.T) {
	store := NewRecordStore()
	store.Put(Mark{PersonID: "a", Cohort: "MS1", Day: day(t, "2024-07-09"), Status: attendance.StatusPresent})
	store.Put(Mark{PersonID: "b", Cohort: "MS2", Day: day(t, "2024-07-16"), Status: attendance.StatusExcused})

	marks := store.DayMarks(day(t, "2024-07-16"))
	if len(marks) != 1 || marks[0].PersonID != "b" {
		t.Fatalf("unexpected marks for day: %+v", marks)
	}
	if marks[0].Status != attendance.StatusExcused {
		t.Fatalf("unexpected status: %v", marks[0].Status)
	}
}
