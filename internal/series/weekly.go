// v0
// internal/series/weekly.go
package series

import (
	"fmt"
	"sort"
	"time"

	"rotctools/attendance/internal/attendance"
	"rotctools/attendance/internal/leaderboard"
)

// WeeklyReport carries Monday-anchored weekly attendance totals plus the
// per-cohort presence counts the dashboard charts by year group. Only
// weeks that held at least one event appear; labels are the ISO dates of
// the week starts in chronological order.
type WeeklyReport struct {
	Bundle   Bundle
	ByCohort map[string][]float64
}

// WeekStart returns the Monday anchor for a day.
func WeekStart(day time.Time) time.Time {
	day = attendance.DayOf(day)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

type weekBucket struct {
	present  float64
	ftr      float64
	excused  float64
	byCohort map[leaderboard.Cohort]float64
}

// WeeklyTotals buckets records into Monday-anchored weeks over the
// inclusive [from, to] window. Records with unparseable dates are skipped,
// since one stray row should not blank the chart; an inverted window aborts with
// ErrInvalidRange.
func WeeklyTotals(records []attendance.Record, from, to time.Time) (WeeklyReport, error) {
	from, to = attendance.DayOf(from), attendance.DayOf(to)
	if from.After(to) {
		return WeeklyReport{}, fmt.Errorf("weekly window %s..%s: %w",
			attendance.FormatDay(from), attendance.FormatDay(to), attendance.ErrInvalidRange)
	}

	buckets := make(map[time.Time]*weekBucket)
	for _, rec := range records {
		day, err := attendance.ParseDay(rec.Date)
		if err != nil {
			continue
		}
		if day.Before(from) || day.After(to) {
			continue
		}
		anchor := WeekStart(day)
		b, ok := buckets[anchor]
		if !ok {
			b = &weekBucket{byCohort: make(map[leaderboard.Cohort]float64)}
			buckets[anchor] = b
		}
		switch rec.Status {
		case attendance.StatusPresent:
			b.present++
			b.byCohort[leaderboard.NormalizeCohort(rec.Cohort)]++
		case attendance.StatusFTR:
			b.ftr++
		case attendance.StatusExcused:
			b.excused++
		}
	}

	anchors := make([]time.Time, 0, len(buckets))
	for anchor := range buckets {
		anchors = append(anchors, anchor)
	}
	sort.Slice(anchors, func(i, j int) bool { return anchors[i].Before(anchors[j]) })

	report := WeeklyReport{ByCohort: make(map[string][]float64)}
	for _, cohort := range leaderboard.DisplayOrder() {
		report.ByCohort[string(cohort)] = make([]float64, 0, len(anchors))
	}
	for _, anchor := range anchors {
		b := buckets[anchor]
		report.Bundle.Labels = append(report.Bundle.Labels, attendance.FormatDay(anchor))
		report.Bundle.Present = append(report.Bundle.Present, b.present)
		report.Bundle.FTR = append(report.Bundle.FTR, b.ftr)
		report.Bundle.Excused = append(report.Bundle.Excused, b.excused)
		for _, cohort := range leaderboard.DisplayOrder() {
			report.ByCohort[string(cohort)] = append(report.ByCohort[string(cohort)], b.byCohort[cohort])
		}
	}
	return report, nil
}
