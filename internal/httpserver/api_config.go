// v0
// internal/httpserver/api_config.go
package httpserver

import (
	"os"
	"strconv"
	"strings"
)

// APIConfig captures HTTP layer environment toggles separate from the
// service-wide configuration so the API contract can evolve on its own.
type APIConfig struct {
	// DefaultTop is the leaderboard size used when the client omits the
	// top parameter.
	DefaultTop int
	// MaxTop caps the requested leaderboard size to bound response cost.
	MaxTop int
}

const (
	defaultTop = 10
	maxTop     = 100
)

// LoadAPIConfig inspects environment variables dedicated to the HTTP
// surface. Missing or malformed values fall back to sensible defaults to
// ensure the server can boot even in incomplete environments.
func LoadAPIConfig() APIConfig {
	top := defaultTop
	if raw, ok := lookupEnvTrimmed("ATTENDANCE_DEFAULT_TOP"); ok {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			top = parsed
		}
	}

	limit := maxTop
	if raw, ok := lookupEnvTrimmed("ATTENDANCE_MAX_TOP"); ok {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if top > limit {
		top = limit
	}

	return APIConfig{DefaultTop: top, MaxTop: limit}
}

func lookupEnvTrimmed(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(value), true
}
