// v1
// internal/httpserver/handlers_test.go
package httpserver

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rotctools/attendance/internal/attendance"
	"rotctools/attendance/internal/ingest"
	"rotctools/attendance/internal/metrics"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func day(t *testing.T, raw string) time.Time {
	t.Helper()
	parsed, err := attendance.ParseDay(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return parsed
}

func seededStore(t *testing.T) *ingest.RecordStore {
	t.Helper()
	store := ingest.NewRecordStore()
	marks := []ingest.Mark{
		{PersonID: "Adams Avery", Cohort: "MS1", Day: day(t, "2024-07-09"), Status: attendance.StatusPresent},
		{PersonID: "Adams Avery", Cohort: "MS1", Day: day(t, "2024-07-11"), Status: attendance.StatusPresent},
		{PersonID: "Baker Blair", Cohort: "MS1", Day: day(t, "2024-07-09"), Status: attendance.StatusPresent},
		{PersonID: "Baker Blair", Cohort: "MS1", Day: day(t, "2024-07-11"), Status: attendance.StatusFTR},
		{PersonID: "Carter Casey", Cohort: "MS3", Day: day(t, "2024-07-09"), Status: attendance.StatusExcused},
		{PersonID: "Carter Casey", Cohort: "MS3", Day: day(t, "2024-07-11"), Status: attendance.StatusFTR},
		{PersonID: "Dana Drew", Cohort: "MS3", Day: day(t, "2024-07-09"), Status: attendance.StatusPresent},
	}
	for _, m := range marks {
		store.Put(m)
	}
	return store
}

func testServer(t *testing.T, store *ingest.RecordStore) *httptest.Server {
	t.Helper()
	logger := testLogger()
	handlers := NewHandlers(logger, store, "gsu", APIConfig{DefaultTop: 10, MaxTop: 100}, 1, time.Minute, nil)
	health := NewHealthState()
	health.SetReady(true)
	router := NewRouter(logger, health, handlers, metrics.NewMetrics())
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, wantStatus int, out any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("GET %s: expected %d, got %d (%s)", url, wantStatus, resp.StatusCode, body)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
}

func TestLeaderboardEndpointRanksCohorts(t *testing.T) {
	srv := testServer(t, seededStore(t))

	var resp leaderboardResponse
	getJSON(t, srv.URL+"/api/attendance/leaderboard?from=2024-07-01&to=2024-07-31", http.StatusOK, &resp)

	if resp.Unit != "gsu" || resp.Top != 10 {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
	if len(resp.Cohorts) != 5 {
		t.Fatalf("expected all five cohort sections, got %d", len(resp.Cohorts))
	}

	ms1 := resp.Cohorts[0]
	if ms1.Cohort != "MS1" || len(ms1.Entries) != 2 {
		t.Fatalf("unexpected MS1 section: %+v", ms1)
	}
	if ms1.Entries[0].PersonID != "Adams Avery" || ms1.Entries[0].Score != 2 {
		t.Fatalf("expected Adams Avery on top with score 2, got %+v", ms1.Entries[0])
	}
	if ms1.Entries[1].PersonID != "Baker Blair" || ms1.Entries[1].FTR != 1 {
		t.Fatalf("unexpected second MS1 entry: %+v", ms1.Entries[1])
	}
	if ms1.Entries[0].Sessions != 2 {
		t.Fatalf("expected 2 sessions, got %d", ms1.Entries[0].Sessions)
	}

	ms3 := resp.Cohorts[2]
	if ms3.Cohort != "MS3" || len(ms3.Entries) != 2 {
		t.Fatalf("unexpected MS3 section: %+v", ms3)
	}
	// Senior cohorts rank by fewest FTR.
	if ms3.Entries[0].PersonID != "Dana Drew" || ms3.Entries[0].Score != 2 {
		t.Fatalf("expected Dana Drew first with score 2, got %+v", ms3.Entries[0])
	}
	if ms3.Entries[1].PersonID != "Carter Casey" || ms3.Entries[1].Score != 1 {
		t.Fatalf("expected Carter Casey second with score 1, got %+v", ms3.Entries[1])
	}
	// Dana Drew has no mark on the second event day, which counts absent.
	if ms3.Entries[0].Absent != 1 {
		t.Fatalf("expected one filled absence for Dana Drew, got %d", ms3.Entries[0].Absent)
	}

	if resp.Text == "" {
		t.Fatalf("expected rendered text alongside the JSON board")
	}
}

func TestLeaderboardEndpointDefaultsWindowToCalendar(t *testing.T) {
	srv := testServer(t, seededStore(t))

	var resp leaderboardResponse
	getJSON(t, srv.URL+"/api/attendance/leaderboard", http.StatusOK, &resp)
	if resp.From != "2024-07-09" || resp.To != "2024-07-11" {
		t.Fatalf("expected window to default to the event calendar, got %s..%s", resp.From, resp.To)
	}
}

func TestLeaderboardEndpointRejectsBadParams(t *testing.T) {
	srv := testServer(t, seededStore(t))

	cases := map[string]string{
		"zero top":       "/api/attendance/leaderboard?top=0",
		"negative top":   "/api/attendance/leaderboard?top=-3",
		"huge top":       "/api/attendance/leaderboard?top=5000",
		"inverted range": "/api/attendance/leaderboard?from=2024-07-31&to=2024-07-01",
		"garbage from":   "/api/attendance/leaderboard?from=someday",
	}
	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			getJSON(t, srv.URL+path, http.StatusBadRequest, nil)
		})
	}
}

func TestDayEndpointReportsRollCall(t *testing.T) {
	srv := testServer(t, seededStore(t))

	var resp dayResponse
	getJSON(t, srv.URL+"/api/attendance/day?date=2024-07-11", http.StatusOK, &resp)

	if resp.Date != "2024-07-11" {
		t.Fatalf("unexpected date: %s", resp.Date)
	}
	if resp.Present != 1 || resp.FTR != 2 || resp.Excused != 0 || resp.Absent != 1 {
		t.Fatalf("unexpected counts: %+v", resp)
	}
	if len(resp.Rows) != 4 {
		t.Fatalf("expected a row per roster member, got %d", len(resp.Rows))
	}
	// Dana Drew never got a mark for this date and must be filled absent.
	last := resp.Rows[len(resp.Rows)-1]
	if last.PersonID != "Dana Drew" || last.Status != "Absent" {
		t.Fatalf("expected Dana Drew filled absent, got %+v", last)
	}
}

func TestDayEndpointRejectsMissingAndUnknownDates(t *testing.T) {
	srv := testServer(t, seededStore(t))

	getJSON(t, srv.URL+"/api/attendance/day", http.StatusBadRequest, nil)
	getJSON(t, srv.URL+"/api/attendance/day?date=nonsense", http.StatusBadRequest, nil)
	getJSON(t, srv.URL+"/api/attendance/day?date=2024-07-10", http.StatusNotFound, nil)
}

func TestEventsAndRosterEndpoints(t *testing.T) {
	srv := testServer(t, seededStore(t))

	var events struct {
		Dates []string `json:"dates"`
	}
	getJSON(t, srv.URL+"/api/attendance/events", http.StatusOK, &events)
	if len(events.Dates) != 2 || events.Dates[0] != "2024-07-09" || events.Dates[1] != "2024-07-11" {
		t.Fatalf("unexpected event calendar: %v", events.Dates)
	}

	var roster struct {
		Members []rosterEntry `json:"members"`
	}
	getJSON(t, srv.URL+"/api/attendance/roster", http.StatusOK, &roster)
	if len(roster.Members) != 4 {
		t.Fatalf("expected four members, got %d", len(roster.Members))
	}
	if roster.Members[0].PersonID != "Adams Avery" || roster.Members[0].Cohort != "MS1" {
		t.Fatalf("unexpected first member: %+v", roster.Members[0])
	}
}

func TestWeeklyChartEndpointSmooths(t *testing.T) {
	store := ingest.NewRecordStore()
	// Two event weeks: 2 present in the first, 4 in the second.
	for _, spec := range []struct {
		person string
		date   string
	}{
		{"a", "2024-07-09"}, {"b", "2024-07-09"},
		{"a", "2024-07-16"}, {"b", "2024-07-16"}, {"c", "2024-07-16"}, {"d", "2024-07-16"},
	} {
		store.Put(ingest.Mark{PersonID: spec.person, Cohort: "MS1", Day: day(t, spec.date), Status: attendance.StatusPresent})
	}
	srv := testServer(t, store)

	var resp weeklyResponse
	getJSON(t, srv.URL+"/api/charts/weekly?window=2", http.StatusOK, &resp)

	if len(resp.Labels) != 2 || resp.Labels[0] != "2024-07-08" || resp.Labels[1] != "2024-07-15" {
		t.Fatalf("unexpected week labels: %v", resp.Labels)
	}
	if resp.Present[0] != 2 || resp.Present[1] != 3 {
		t.Fatalf("expected smoothed presence [2 3], got %v", resp.Present)
	}
	if resp.ByCohort["MS1"][1] != 3 {
		t.Fatalf("expected smoothed cohort presence, got %v", resp.ByCohort["MS1"])
	}
}

func TestWeeklyChartEndpointRejectsBadWindow(t *testing.T) {
	srv := testServer(t, seededStore(t))
	getJSON(t, srv.URL+"/api/charts/weekly?window=0", http.StatusBadRequest, nil)
	getJSON(t, srv.URL+"/api/charts/weekly?window=x", http.StatusBadRequest, nil)
}

func TestHealthEndpoints(t *testing.T) {
	logger := testLogger()
	store := ingest.NewRecordStore()
	handlers := NewHandlers(logger, store, "gsu", LoadAPIConfig(), 1, time.Minute, nil)
	health := NewHealthState()
	router := NewRouter(logger, health, handlers, metrics.NewMetrics())
	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health/ready")
	if err != nil {
		t.Fatalf("GET ready: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before readiness, got %d", resp.StatusCode)
	}

	health.SetReady(true)
	resp, err = http.Get(srv.URL + "/health/ready")
	if err != nil {
		t.Fatalf("GET ready: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 after readiness, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/health/live")
	if err != nil {
		t.Fatalf("GET live: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected live 200, got %d", resp.StatusCode)
	}
}

func TestRequestIDHeaderIsEchoed(t *testing.T) {
	srv := testServer(t, seededStore(t))

	// The access-log middleware wraps the router in the app layer; here we
	// exercise it directly.
	wrapped := httptest.NewServer(WrapWithLogging(testLogger(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))
	defer wrapped.Close()

	req, _ := http.NewRequest(http.MethodGet, wrapped.URL, nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "fixed-id" {
		t.Fatalf("expected request id echoed, got %q", got)
	}

	resp, err = http.Get(srv.URL + "/api/attendance/events")
	if err != nil {
		t.Fatalf("GET events: %v", err)
	}
	resp.Body.Close()
}
