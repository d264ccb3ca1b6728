// v0
// internal/journal/journal_test.go
package journal

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rotctools/attendance/internal/attendance"
	"rotctools/attendance/internal/ingest"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestJournalAppendReplayRoundTrip(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(dir, testLogger())
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer j.Close()

	marks := []ingest.Mark{
		{PersonID: "Adams Avery", Cohort: "MS1", Day: time.Date(2024, 7, 9, 0, 0, 0, 0, time.UTC), Status: attendance.StatusPresent},
		{PersonID: "Baker Blair", Cohort: "MS3", Day: time.Date(2024, 7, 11, 0, 0, 0, 0, time.UTC), Status: attendance.StatusFTR},
		{PersonID: "Adams Avery", Cohort: "MS1", Day: time.Date(2024, 7, 11, 0, 0, 0, 0, time.UTC), Status: attendance.StatusExcused},
	}
	for _, m := range marks {
		if err := j.Append(m); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	store := ingest.NewRecordStore()
	restored, err := j.Replay(store)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if restored != len(marks) {
		t.Fatalf("expected %d restored marks, got %d", len(marks), restored)
	}

	persons, days := store.Size()
	if persons != 2 || days != 2 {
		t.Fatalf("expected 2 persons over 2 days, got %d/%d", persons, days)
	}
	dayMarks := store.DayMarks(time.Date(2024, 7, 11, 0, 0, 0, 0, time.UTC))
	if len(dayMarks) != 2 {
		t.Fatalf("expected two marks on the second day, got %d", len(dayMarks))
	}
	if dayMarks[0].Status != attendance.StatusExcused {
		t.Fatalf("unexpected replayed status: %v", dayMarks[0].Status)
	}
}

func TestJournalReplaySkipsCorruptLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "marks.jsonl")
	raw := `{"personId":"Adams Avery","cohort":"MS1","date":"2024-07-09","status":"Present"}
not json at all
{"personId":"Baker Blair","cohort":"MS3","date":"garbage","status":"FTR"}
{"personId":"Carter Casey","cohort":"MS2","date":"2024-07-09","status":"nonsense"}
{"personId":"Dana Drew","cohort":"MS4","date":"2024-07-09","status":"Excused"}
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("seed journal file: %v", err)
	}

	j, err := Open(dir, testLogger())
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer j.Close()

	store := ingest.NewRecordStore()
	restored, err := j.Replay(store)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if restored != 2 {
		t.Fatalf("expected 2 restored marks, got %d", restored)
	}
	persons, _ := store.Size()
	if persons != 2 {
		t.Fatalf("expected 2 persons, got %d", persons)
	}
}

func TestJournalAppendAfterReplayAppends(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(dir, testLogger())
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}

	mark := ingest.Mark{PersonID: "a", Cohort: "MS1", Day: time.Date(2024, 7, 9, 0, 0, 0, 0, time.UTC), Status: attendance.StatusPresent}
	if err := j.Append(mark); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := j.Replay(ingest.NewRecordStore()); err != nil {
		t.Fatalf("replay: %v", err)
	}
	// Replay seeks to the start; a later append must still land at the end.
	mark.Day = time.Date(2024, 7, 16, 0, 0, 0, 0, time.UTC)
	if err := j.Append(mark); err != nil {
		t.Fatalf("append after replay: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(dir, testLogger())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	store := ingest.NewRecordStore()
	restored, err := reopened.Replay(store)
	if err != nil {
		t.Fatalf("replay reopened: %v", err)
	}
	if restored != 2 {
		t.Fatalf("expected both appends to survive, got %d", restored)
	}
}
