// v0
// internal/cache/keys.go
package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// LeaderboardKey builds the cache key for leaderboard responses ensuring
// that equivalent parameter sets produce the same hash.
func LeaderboardKey(unit string, from, to time.Time, top int) string {
	return makeKey(
		"leaderboard",
		canonicalUnit(unit),
		canonicalDay(from),
		canonicalDay(to),
		fmt.Sprintf("%d", top),
	)
}

// DayKey builds the cache key for single-day report responses.
func DayKey(day time.Time) string {
	return makeKey("day", canonicalDay(day))
}

// WeeklyKey builds the cache key for weekly chart responses capturing the
// smoothing window alongside the date range.
func WeeklyKey(from, to time.Time, window int) string {
	return makeKey(
		"weekly",
		canonicalDay(from),
		canonicalDay(to),
		fmt.Sprintf("%d", window),
	)
}

func canonicalUnit(unit string) string {
	return strings.ToLower(strings.TrimSpace(unit))
}

func canonicalDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func makeKey(parts ...string) string {
	joined := strings.Join(parts, "|")
	h := sha1.Sum([]byte(joined))
	return hex.EncodeToString(h[:])
}
