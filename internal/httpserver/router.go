// v1
// internal/httpserver/router.go
package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"rotctools/attendance/internal/metrics"
)

// NewRouter wires all HTTP routes exposed by the attendance service. Every
// API route passes through the metrics wrapper so request counts and
// latencies are recorded per route.
func NewRouter(logger *slog.Logger, health *HealthState, handlers *Handlers, m *metrics.Metrics) *mux.Router {
	r := mux.NewRouter()

	r.Handle("/health", healthLiveHandler()).Methods(http.MethodGet)
	r.Handle("/health/live", healthLiveHandler()).Methods(http.MethodGet)
	r.Handle("/health/ready", healthReadyHandler(health)).Methods(http.MethodGet)

	r.Handle("/api/attendance/leaderboard",
		m.WrapHandler("leaderboard", http.HandlerFunc(handlers.Leaderboard))).Methods(http.MethodGet)
	r.Handle("/api/attendance/day",
		m.WrapHandler("day", http.HandlerFunc(handlers.Day))).Methods(http.MethodGet)
	r.Handle("/api/attendance/events",
		m.WrapHandler("events", http.HandlerFunc(handlers.Events))).Methods(http.MethodGet)
	r.Handle("/api/attendance/roster",
		m.WrapHandler("roster", http.HandlerFunc(handlers.Roster))).Methods(http.MethodGet)
	r.Handle("/api/charts/weekly",
		m.WrapHandler("weekly", http.HandlerFunc(handlers.WeeklyChart))).Methods(http.MethodGet)

	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		if _, err := w.Write([]byte("not found")); err != nil {
			logger.Error("write_response_failed", slog.Any("err", err))
		}
	})

	return r
}

func healthLiveHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

func healthReadyHandler(health *HealthState) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if !health.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("NOT_READY"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}
