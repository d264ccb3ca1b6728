// v0
// internal/attendance/record_test.go
package attendance

import (
	"errors"
	"testing"
	"time"
)

func TestParseStatusVocabulary(t *testing.T) {
	cases := []struct {
		mark  string
		want  Status
		known bool
	}{
		{mark: "p", want: StatusPresent, known: true},
		{mark: "Present", want: StatusPresent, known: true},
		{mark: "✓", want: StatusPresent, known: true},
		{mark: "1", want: StatusPresent, known: true},
		{mark: "FTR", want: StatusFTR, known: true},
		{mark: "unexcused", want: StatusFTR, known: true},
		{mark: "-", want: StatusFTR, known: true},
		{mark: "e", want: StatusExcused, known: true},
		{mark: "Excused", want: StatusExcused, known: true},
		{mark: "a", want: StatusAbsent, known: true},
		{mark: "", want: StatusAbsent, known: true},
		{mark: "  ", want: StatusAbsent, known: true},
		{mark: "maybe", want: StatusAbsent, known: false},
	}
	for _, tc := range cases {
		got, ok := ParseStatus(tc.mark)
		if got != tc.want || ok != tc.known {
			t.Fatalf("mark %q: expected (%v, %v), got (%v, %v)", tc.mark, tc.want, tc.known, got, ok)
		}
	}
}

func TestParseDayLayouts(t *testing.T) {
	want := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{"2024-01-15", "01/15/2024", "1/15/2024", " 2024-01-15 "} {
		got, err := ParseDay(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if !got.Equal(want) {
			t.Fatalf("parse %q: expected %v, got %v", raw, want, got)
		}
	}
}

func TestParseDayRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "yesterday", "2024-13-40"} {
		_, err := ParseDay(raw)
		if err == nil {
			t.Fatalf("expected error for %q", raw)
		}
		var dayErr *DayError
		if !errors.As(err, &dayErr) {
			t.Fatalf("expected DayError for %q, got %v", raw, err)
		}
	}
}
