// v0
// internal/leaderboard/render_test.go
package leaderboard

import (
	"strings"
	"testing"
	"time"

	"rotctools/attendance/internal/attendance"
)

func TestRenderTextFormats(t *testing.T) {
	totals := []attendance.Totals{
		{PersonID: "Adams Avery", Cohort: "MS1", Present: 3, Sessions: 4},
		{PersonID: "Carter Casey", Cohort: "MS3", Present: 2, FTR: 1, Sessions: 4},
	}
	board, err := Rank(totals, 10, time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := RenderText(board)
	if !strings.Contains(text, "MS1 — Top 1 (highest Present)") {
		t.Fatalf("missing junior header in:\n%s", text)
	}
	if !strings.Contains(text, "1. Adams Avery  (3 Present; Sessions: 4)") {
		t.Fatalf("missing junior row in:\n%s", text)
	}
	if !strings.Contains(text, "MS3 — Top 1 (fewest FTR)") {
		t.Fatalf("missing senior header in:\n%s", text)
	}
	if !strings.Contains(text, "1. Carter Casey  (1 FTR; 2 Present; Sessions: 4)") {
		t.Fatalf("missing senior row in:\n%s", text)
	}
}
