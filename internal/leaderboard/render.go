// v0
// internal/leaderboard/render.go
package leaderboard

import (
	"fmt"
	"strings"
)

// RenderText formats a board for plain-text posting: one block per
// cohort, junior blocks showing raw presence and senior blocks leading
// with the FTR count.
func RenderText(board Board) string {
	blocks := make([]string, 0, len(board.Cohorts))
	for _, section := range board.Cohorts {
		var b strings.Builder
		if junior(section.Cohort) {
			fmt.Fprintf(&b, "%s — Top %d (highest Present)", section.Cohort, len(section.Entries))
		} else {
			fmt.Fprintf(&b, "%s — Top %d (fewest FTR)", section.Cohort, len(section.Entries))
		}
		for _, entry := range section.Entries {
			b.WriteByte('\n')
			if junior(section.Cohort) {
				fmt.Fprintf(&b, "   %d. %s  (%d Present; Sessions: %d)",
					entry.Rank, entry.PersonID, entry.Present, entry.Sessions)
			} else {
				fmt.Fprintf(&b, "   %d. %s  (%d FTR; %d Present; Sessions: %d)",
					entry.Rank, entry.PersonID, entry.FTR, entry.Present, entry.Sessions)
			}
		}
		blocks = append(blocks, b.String())
	}
	return strings.TrimSpace(strings.Join(blocks, "\n\n"))
}
