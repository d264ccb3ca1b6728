// v1
// internal/httpserver/handlers.go
package httpserver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rotctools/attendance/internal/attendance"
	"rotctools/attendance/internal/cache"
	"rotctools/attendance/internal/ingest"
	"rotctools/attendance/internal/leaderboard"
	"rotctools/attendance/internal/series"
)

// snapshotSource exposes the subset of the record store used by the HTTP
// handlers. A small interface keeps the handlers testable without Kafka.
type snapshotSource interface {
	Snapshot() ([]attendance.Record, []attendance.Member, []string)
	EventDays() []time.Time
	DayMarks(day time.Time) []ingest.Mark
}

// Handlers computes attendance views on demand from the store snapshot,
// memoizing responses for the configured TTL.
type Handlers struct {
	Log          *slog.Logger
	Source       snapshotSource
	Unit         string
	API          APIConfig
	SmoothWindow int

	boards *cache.Cache[leaderboardResponse]
	days   *cache.Cache[dayResponse]
	weekly *cache.Cache[weeklyResponse]

	now func() time.Time
}

// NewHandlers wires the handler set with per-view response caches sharing
// one TTL and one observer.
func NewHandlers(log *slog.Logger, source snapshotSource, unit string, api APIConfig, smoothWindow int, ttl time.Duration, obs cache.Observer) *Handlers {
	if smoothWindow < 1 {
		smoothWindow = 1
	}
	return &Handlers{
		Log:          log,
		Source:       source,
		Unit:         unit,
		API:          api,
		SmoothWindow: smoothWindow,
		boards:       cache.New[leaderboardResponse](ttl, obs),
		days:         cache.New[dayResponse](ttl, obs),
		weekly:       cache.New[weeklyResponse](ttl, obs),
		now:          time.Now,
	}
}

type leaderboardResponse struct {
	GeneratedAt string            `json:"generatedAt"`
	Unit        string            `json:"unit"`
	From        string            `json:"from"`
	To          string            `json:"to"`
	Top         int               `json:"top"`
	Cohorts     []cohortSection   `json:"cohorts"`
	Text        string            `json:"text"`
	Skipped     []skippedDocument `json:"skipped,omitempty"`
}

type cohortSection struct {
	Cohort  string     `json:"cohort"`
	Entries []boardRow `json:"entries"`
}

type boardRow struct {
	Rank     int    `json:"rank"`
	PersonID string `json:"personId"`
	Score    int    `json:"score"`
	Present  int    `json:"present"`
	FTR      int    `json:"ftr"`
	Excused  int    `json:"excused"`
	Absent   int    `json:"absent"`
	Sessions int    `json:"sessions"`
}

type skippedDocument struct {
	PersonID string `json:"personId"`
	Date     string `json:"date"`
	Reason   string `json:"reason"`
}

type dayResponse struct {
	Date    string   `json:"date"`
	Present int      `json:"present"`
	FTR     int      `json:"ftr"`
	Excused int      `json:"excused"`
	Absent  int      `json:"absent"`
	Rows    []dayRow `json:"rows"`
}

type dayRow struct {
	PersonID string `json:"personId"`
	Cohort   string `json:"cohort"`
	Status   string `json:"status"`
}

type weeklyResponse struct {
	From     string               `json:"from"`
	To       string               `json:"to"`
	Window   int                  `json:"window"`
	Labels   []string             `json:"labels"`
	Present  []float64            `json:"present"`
	FTR      []float64            `json:"ftr"`
	Excused  []float64            `json:"excused"`
	ByCohort map[string][]float64 `json:"byCohort"`
}

type rosterEntry struct {
	PersonID string `json:"personId"`
	Cohort   string `json:"cohort"`
}

// Leaderboard serves the per-cohort ranking over an inclusive day window.
// Missing window bounds default to the observed event calendar.
func (h *Handlers) Leaderboard(w http.ResponseWriter, r *http.Request) {
	unit := strings.TrimSpace(r.URL.Query().Get("unit"))
	if unit == "" {
		unit = h.Unit
	}

	top, err := h.parseTop(r)
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}
	from, to, err := h.parseDayWindow(r)
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}

	key := cache.LeaderboardKey(unit, from, to, top)
	if v, ok := h.boards.Get(key); ok {
		h.Log.Info("cache_hit", slog.String("endpoint", "leaderboard"), slog.String("unit", unit))
		writeJSON(w, http.StatusOK, v)
		return
	}

	records, members, dates := h.Source.Snapshot()
	result, err := attendance.Aggregate(records, from, to, members, dates)
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}
	board, err := leaderboard.Rank(result.Totals, top, h.now())
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}

	resp := leaderboardResponse{
		GeneratedAt: board.GeneratedAt.Format(time.RFC3339),
		Unit:        unit,
		From:        attendance.FormatDay(from),
		To:          attendance.FormatDay(to),
		Top:         board.TopN,
		Text:        leaderboard.RenderText(board),
	}
	for _, section := range board.Cohorts {
		rows := make([]boardRow, 0, len(section.Entries))
		for _, e := range section.Entries {
			rows = append(rows, boardRow{
				Rank:     e.Rank,
				PersonID: e.PersonID,
				Score:    e.Score,
				Present:  e.Present,
				FTR:      e.FTR,
				Excused:  e.Excused,
				Absent:   e.Absent,
				Sessions: e.Sessions,
			})
		}
		resp.Cohorts = append(resp.Cohorts, cohortSection{Cohort: string(section.Cohort), Entries: rows})
	}
	for _, skip := range result.Skipped {
		resp.Skipped = append(resp.Skipped, skippedDocument{
			PersonID: skip.PersonID,
			Date:     skip.Date,
			Reason:   skip.Err.Error(),
		})
	}

	h.boards.Set(key, resp)
	h.Log.Info("leaderboard_computed",
		slog.String("unit", unit),
		slog.String("from", resp.From),
		slog.String("to", resp.To),
		slog.Int("top", top),
		slog.Int("skipped", len(resp.Skipped)),
	)
	writeJSON(w, http.StatusOK, resp)
}

// Day serves the roll call for a single event date. Dates the calendar
// never saw return 404 so clients can distinguish "no event" from "all
// absent".
func (h *Handlers) Day(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		h.badRequest(w, "date is required")
		return
	}
	day, err := attendance.ParseDay(raw)
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}
	if !h.isEventDay(day) {
		h.Log.Info("day_not_found", slog.String("date", attendance.FormatDay(day)))
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no event on this date"})
		return
	}

	key := cache.DayKey(day)
	if v, ok := h.days.Get(key); ok {
		h.Log.Info("cache_hit", slog.String("endpoint", "day"))
		writeJSON(w, http.StatusOK, v)
		return
	}

	marks := h.Source.DayMarks(day)
	marked := make(map[string]attendance.Status, len(marks))
	cohorts := make(map[string]string, len(marks))
	for _, m := range marks {
		marked[m.PersonID] = m.Status
		cohorts[m.PersonID] = m.Cohort
	}

	_, members, _ := h.Source.Snapshot()
	resp := dayResponse{Date: attendance.FormatDay(day)}
	for _, member := range members {
		status, ok := marked[member.PersonID]
		if !ok {
			status = attendance.StatusAbsent
		}
		cohort := cohorts[member.PersonID]
		if cohort == "" {
			cohort = member.Cohort
		}
		resp.Rows = append(resp.Rows, dayRow{
			PersonID: member.PersonID,
			Cohort:   string(leaderboard.NormalizeCohort(cohort)),
			Status:   status.String(),
		})
		switch status {
		case attendance.StatusPresent:
			resp.Present++
		case attendance.StatusFTR:
			resp.FTR++
		case attendance.StatusExcused:
			resp.Excused++
		default:
			resp.Absent++
		}
	}

	h.days.Set(key, resp)
	h.Log.Info("day_computed",
		slog.String("date", resp.Date),
		slog.Int("present", resp.Present),
		slog.Int("ftr", resp.FTR),
	)
	writeJSON(w, http.StatusOK, resp)
}

// Events lists the observed event calendar in chronological order.
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	days := h.Source.EventDays()
	dates := make([]string, 0, len(days))
	for _, day := range days {
		dates = append(dates, attendance.FormatDay(day))
	}
	writeJSON(w, http.StatusOK, map[string]any{"dates": dates})
}

// Roster lists every known person with their normalized cohort.
func (h *Handlers) Roster(w http.ResponseWriter, r *http.Request) {
	_, members, _ := h.Source.Snapshot()
	entries := make([]rosterEntry, 0, len(members))
	for _, member := range members {
		entries = append(entries, rosterEntry{
			PersonID: member.PersonID,
			Cohort:   string(leaderboard.NormalizeCohort(member.Cohort)),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": entries})
}

// WeeklyChart serves Monday-anchored weekly totals smoothed by a trailing
// moving average.
func (h *Handlers) WeeklyChart(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.parseDayWindow(r)
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}
	window := h.SmoothWindow
	if raw := strings.TrimSpace(r.URL.Query().Get("window")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.badRequest(w, "window must be a positive integer")
			return
		}
		window = parsed
	}

	key := cache.WeeklyKey(from, to, window)
	if v, ok := h.weekly.Get(key); ok {
		h.Log.Info("cache_hit", slog.String("endpoint", "weekly"))
		writeJSON(w, http.StatusOK, v)
		return
	}

	records, _, _ := h.Source.Snapshot()
	report, err := series.WeeklyTotals(records, from, to)
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}
	smoothed, err := report.Bundle.Smooth(window)
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}

	resp := weeklyResponse{
		From:     attendance.FormatDay(from),
		To:       attendance.FormatDay(to),
		Window:   window,
		Labels:   smoothed.Labels,
		Present:  smoothed.Present,
		FTR:      smoothed.FTR,
		Excused:  smoothed.Excused,
		ByCohort: make(map[string][]float64, len(report.ByCohort)),
	}
	for cohort, values := range report.ByCohort {
		line, err := series.MovingAverage(values, window)
		if err != nil {
			h.badRequest(w, err.Error())
			return
		}
		resp.ByCohort[cohort] = line
	}

	h.weekly.Set(key, resp)
	h.Log.Info("weekly_computed",
		slog.String("from", resp.From),
		slog.String("to", resp.To),
		slog.Int("window", window),
		slog.Int("weeks", len(resp.Labels)),
	)
	writeJSON(w, http.StatusOK, resp)
}

// parseTop resolves the requested leaderboard size against the configured
// default and cap.
func (h *Handlers) parseTop(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("top"))
	if raw == "" {
		return h.API.DefaultTop, nil
	}
	top, err := strconv.Atoi(raw)
	if err != nil || top < 1 {
		return 0, fmt.Errorf("top must be a positive integer")
	}
	if top > h.API.MaxTop {
		return 0, fmt.Errorf("top %d exceeds maximum of %d", top, h.API.MaxTop)
	}
	return top, nil
}

// parseDayWindow extracts the inclusive [from, to] day window. Bounds the
// client omits default to the edges of the observed event calendar, or to
// today when no events exist yet.
func (h *Handlers) parseDayWindow(r *http.Request) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error

	qs := r.URL.Query()
	if raw := strings.TrimSpace(qs.Get("from")); raw != "" {
		from, err = attendance.ParseDay(raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if raw := strings.TrimSpace(qs.Get("to")); raw != "" {
		to, err = attendance.ParseDay(raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	if from.IsZero() || to.IsZero() {
		calendar := h.Source.EventDays()
		if len(calendar) == 0 {
			today := attendance.DayOf(h.now())
			if from.IsZero() {
				from = today
			}
			if to.IsZero() {
				to = today
			}
		} else {
			if from.IsZero() {
				from = calendar[0]
			}
			if to.IsZero() {
				to = calendar[len(calendar)-1]
			}
		}
	}

	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("window %s..%s: %w",
			attendance.FormatDay(from), attendance.FormatDay(to), attendance.ErrInvalidRange)
	}
	return from, to, nil
}

func (h *Handlers) isEventDay(day time.Time) bool {
	for _, d := range h.Source.EventDays() {
		if d.Equal(day) {
			return true
		}
	}
	return false
}

func (h *Handlers) badRequest(w http.ResponseWriter, msg string) {
	h.Log.Warn("bad_request", slog.String("error", msg))
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
