// v0
// internal/journal/journal.go
package journal

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"rotctools/attendance/internal/attendance"
	"rotctools/attendance/internal/ingest"
)

// Journal is an append-only JSON-lines log of accepted marks. On startup it
// is replayed into the in-memory store so a restart does not lose the state
// accumulated from the stream.
type Journal struct {
	mu   sync.Mutex
	f    *os.File
	path string
	log  *slog.Logger
}

// entry is the on-disk shape of one mark. Status is stored as its display
// word so the file stays greppable.
type entry struct {
	PersonID string `json:"personId"`
	Cohort   string `json:"cohort"`
	Date     string `json:"date"`
	Status   string `json:"status"`
}

// Open creates the journal directory if needed and opens (or creates) the
// marks file for appending.
func Open(dir string, log *slog.Logger) (*Journal, error) {
	if log == nil {
		return nil, errors.New("logger must not be nil")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir journal dir: %w", err)
	}
	path := filepath.Join(dir, "marks.jsonl")

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return &Journal{f: f, path: path, log: log}, nil
}

// Path returns the location of the journal file.
func (j *Journal) Path() string {
	return j.path
}

// Append writes one mark as a single JSON line and syncs it to disk.
func (j *Journal) Append(m ingest.Mark) error {
	enc, err := json.Marshal(entry{
		PersonID: m.PersonID,
		Cohort:   m.Cohort,
		Date:     attendance.FormatDay(m.Day),
		Status:   m.Status.String(),
	})
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := j.f.Seek(0, os.SEEK_END); err != nil {
		return err
	}
	if _, err := j.f.Write(append(enc, '\n')); err != nil {
		return err
	}
	return j.f.Sync()
}

// Replay feeds every journaled mark back into the store. Corrupt lines are
// logged and skipped so one bad write never blocks startup. It returns the
// number of marks restored.
func (j *Journal) Replay(store *ingest.RecordStore) (int, error) {
	if store == nil {
		return 0, errors.New("store must not be nil")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := j.f.Seek(0, 0); err != nil {
		return 0, err
	}

	restored := 0
	scanner := bufio.NewScanner(j.f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e entry
		if err := json.Unmarshal(line, &e); err != nil {
			j.log.Warn("journal_skip_bad_line", slog.Any("err", err))
			continue
		}
		day, err := attendance.ParseDay(e.Date)
		if err != nil {
			j.log.Warn("journal_skip_bad_date", slog.String("date", e.Date), slog.Any("err", err))
			continue
		}
		status, known := attendance.ParseStatus(e.Status)
		if !known {
			j.log.Warn("journal_skip_bad_status", slog.String("status", e.Status))
			continue
		}
		store.Put(ingest.Mark{PersonID: e.PersonID, Cohort: e.Cohort, Day: day, Status: status})
		restored++
	}
	if err := scanner.Err(); err != nil {
		return restored, err
	}
	return restored, nil
}

// Close flushes and closes the file.
func (j *Journal) Close() error {
	return j.f.Close()
}
