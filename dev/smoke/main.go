// v0
// dev/smoke/main.go
//
// Small operator tool that exercises the public HTTP surface of a running
// attendance service and reports whether the responses look sane. It only
// reads; mark traffic stays on the Kafka topic owned by the sync job.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"
)

type leaderboardResponse struct {
	Unit    string `json:"unit"`
	From    string `json:"from"`
	To      string `json:"to"`
	Top     int    `json:"top"`
	Cohorts []struct {
		Cohort  string `json:"cohort"`
		Entries []struct {
			Rank     int    `json:"rank"`
			PersonID string `json:"personId"`
			Score    int    `json:"score"`
		} `json:"entries"`
	} `json:"cohorts"`
	Text string `json:"text"`
}

type eventsResponse struct {
	Dates []string `json:"dates"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	base := strings.TrimRight(envOr("ATTENDANCE_BASE_URL", "http://localhost:8087"), "/")
	client := &http.Client{Timeout: 10 * time.Second}

	if err := run(ctx, logger, client, base); err != nil {
		logger.Error("smoke_failed", slog.Any("err", err))
		os.Exit(1)
	}
	logger.Info("smoke_passed")
}

func run(ctx context.Context, logger *slog.Logger, client *http.Client, base string) error {
	if err := expectStatus(ctx, client, base+"/health/live", http.StatusOK); err != nil {
		return fmt.Errorf("liveness: %w", err)
	}
	if err := expectStatus(ctx, client, base+"/health/ready", http.StatusOK); err != nil {
		return fmt.Errorf("readiness: %w", err)
	}
	logger.Info("health_ok")

	var events eventsResponse
	if err := getJSON(ctx, client, base+"/api/attendance/events", &events); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	logger.Info("events_ok", slog.Int("dates", len(events.Dates)))

	var board leaderboardResponse
	if err := getJSON(ctx, client, base+"/api/attendance/leaderboard", &board); err != nil {
		return fmt.Errorf("leaderboard: %w", err)
	}
	if len(board.Cohorts) != 5 {
		return fmt.Errorf("leaderboard: expected five cohort sections, got %d", len(board.Cohorts))
	}
	for _, section := range board.Cohorts {
		for idx, entry := range section.Entries {
			if entry.Rank != idx+1 {
				return fmt.Errorf("leaderboard: %s ranks not contiguous at %d", section.Cohort, idx)
			}
		}
	}
	logger.Info("leaderboard_ok",
		slog.String("window", board.From+".."+board.To),
		slog.Int("top", board.Top),
	)

	if len(events.Dates) > 0 {
		target := base + "/api/attendance/day?date=" + events.Dates[len(events.Dates)-1]
		if err := expectStatus(ctx, client, target, http.StatusOK); err != nil {
			return fmt.Errorf("day report: %w", err)
		}
		logger.Info("day_ok", slog.String("date", events.Dates[len(events.Dates)-1]))
	}

	if err := expectStatus(ctx, client, base+"/api/charts/weekly?window=3", http.StatusOK); err != nil {
		return fmt.Errorf("weekly chart: %w", err)
	}
	logger.Info("weekly_ok")

	// A date the calendar never saw must 404, not serve an empty report.
	if err := expectStatus(ctx, client, base+"/api/attendance/day?date=1999-01-01", http.StatusNotFound); err != nil {
		return fmt.Errorf("day miss: %w", err)
	}
	return nil
}

func expectStatus(ctx context.Context, client *http.Client, url string, want int) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: expected %d, got %d (%s)", url, want, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: http %d (%s)", url, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
