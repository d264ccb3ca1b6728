// v1
// internal/leaderboard/rank.go
package leaderboard

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"rotctools/attendance/internal/attendance"
)

// Cohort labels the military-science year groups used for grouping.
type Cohort string

const (
	MS1 Cohort = "MS1"
	MS2 Cohort = "MS2"
	MS3 Cohort = "MS3"
	MS4 Cohort = "MS4"
	MS5 Cohort = "MS5"
)

// DefaultTopN is the leaderboard size used when the caller does not ask
// for a specific one.
const DefaultTopN = 10

var displayOrder = []Cohort{MS1, MS2, MS3, MS4, MS5}

// DisplayOrder returns a copy of the fixed cohort rendering order so the
// API serves sections in a stable sequence.
func DisplayOrder() []Cohort {
	out := make([]Cohort, len(displayOrder))
	copy(out, displayOrder)
	return out
}

// junior reports whether a cohort ranks by attendance volume rather than
// by fewest failures to report.
func junior(c Cohort) bool {
	return c == MS1 || c == MS2
}

// NormalizeCohort maps raw labels ("ms3", "MS 4", "2") onto the known
// cohort set. Unrecognized labels coerce to MS1, matching the roster
// sheet's historical treatment of blank year columns.
func NormalizeCohort(raw string) Cohort {
	trimmed := strings.ToUpper(strings.TrimSpace(raw))
	trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "MS"))
	switch trimmed {
	case "1":
		return MS1
	case "2":
		return MS2
	case "3":
		return MS3
	case "4":
		return MS4
	case "5":
		return MS5
	default:
		return MS1
	}
}

// Entry is one ranked row in a cohort section.
type Entry struct {
	Rank     int
	PersonID string
	Cohort   Cohort
	Score    int
	Present  int
	FTR      int
	Excused  int
	Absent   int
	Sessions int
}

// CohortBoard is the ordered section for a single cohort.
type CohortBoard struct {
	Cohort  Cohort
	Entries []Entry
}

// Board is the full per-cohort leaderboard snapshot. Sections appear in
// the fixed display order even when empty.
type Board struct {
	GeneratedAt time.Time
	TopN        int
	Cohorts     []CohortBoard
}

// Rank normalizes cohort labels, groups the totals, and delegates to
// RankGroups. It is the entry point used by the HTTP layer.
func Rank(totals []attendance.Totals, topN int, now time.Time) (Board, error) {
	groups := make(map[Cohort][]attendance.Totals)
	for _, t := range totals {
		c := NormalizeCohort(t.Cohort)
		groups[c] = append(groups[c], t)
	}
	return RankGroups(groups, topN, now)
}

// RankGroups orders each cohort section by its cohort-specific policy and
// truncates it to topN entries.
//
// Junior cohorts (MS1, MS2) rank by descending presence, then descending
// sessions, then ascending person id. Senior cohorts (MS3..MS5) rank by
// ascending FTR, then descending presence, then ascending person id. Rank
// numbers restart at 1 per cohort. A cohort missing from the input yields
// an empty section, never an error; topN <= 0 aborts the call.
func RankGroups(byCohort map[Cohort][]attendance.Totals, topN int, now time.Time) (Board, error) {
	if topN <= 0 {
		return Board{}, fmt.Errorf("leaderboard size %d: %w", topN, attendance.ErrInvalidArgument)
	}

	board := Board{GeneratedAt: now.UTC(), TopN: topN}
	for _, cohort := range displayOrder {
		rows := append([]attendance.Totals(nil), byCohort[cohort]...)
		if junior(cohort) {
			sort.SliceStable(rows, func(i, j int) bool {
				if rows[i].Present != rows[j].Present {
					return rows[i].Present > rows[j].Present
				}
				if rows[i].Sessions != rows[j].Sessions {
					return rows[i].Sessions > rows[j].Sessions
				}
				return rows[i].PersonID < rows[j].PersonID
			})
		} else {
			sort.SliceStable(rows, func(i, j int) bool {
				if rows[i].FTR != rows[j].FTR {
					return rows[i].FTR < rows[j].FTR
				}
				if rows[i].Present != rows[j].Present {
					return rows[i].Present > rows[j].Present
				}
				return rows[i].PersonID < rows[j].PersonID
			})
		}
		if len(rows) > topN {
			rows = rows[:topN]
		}

		entries := make([]Entry, 0, len(rows))
		for idx, row := range rows {
			entries = append(entries, Entry{
				Rank:     idx + 1,
				PersonID: row.PersonID,
				Cohort:   cohort,
				Score:    score(cohort, row),
				Present:  row.Present,
				FTR:      row.FTR,
				Excused:  row.Excused,
				Absent:   row.Absent,
				Sessions: row.Sessions,
			})
		}
		board.Cohorts = append(board.Cohorts, CohortBoard{Cohort: cohort, Entries: entries})
	}
	return board, nil
}

// score favours raw attendance for junior cohorts and inverts the FTR
// penalty for senior cohorts so a higher score always reads as better.
func score(c Cohort, t attendance.Totals) int {
	if junior(c) {
		return t.Present
	}
	return t.Sessions - t.FTR
}
