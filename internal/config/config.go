// v1
// internal/config/config.go
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config captures all runtime settings required by the attendance
// service. Values can be provided by environment variables, a
// properties file, or fall back to sensible defaults so the service can
// boot with minimal setup.
type Config struct {
	// ListenAddress defines the TCP address used by the HTTP server.
	ListenAddress string
	// LogFilePath is the absolute or relative path to the log file.
	LogFilePath string
	// HTTPReadTimeout bounds the time to read incoming requests.
	HTTPReadTimeout time.Duration
	// HTTPWriteTimeout bounds the time to write responses.
	HTTPWriteTimeout time.Duration
	// ShutdownTimeout limits graceful shutdown attempts.
	ShutdownTimeout time.Duration
	// PropertiesPath records the path used to load property values.
	PropertiesPath string
	// KafkaBrokers lists the bootstrap brokers used to join the mark topic.
	KafkaBrokers []string
	// MarkTopic identifies the stream carrying attendance marks from the
	// roster sync job.
	MarkTopic string
	// MarkGroupID is the consumer group identifier used for checkpointing.
	MarkGroupID string
	// MarkPollTimeout bounds the duration spent waiting for Kafka messages.
	MarkPollTimeout time.Duration
	// JournalDir is the directory holding the mark journal replayed on boot.
	JournalDir string
	// CacheTTL bounds how long computed leaderboard and chart responses
	// are served before recomputation.
	CacheTTL time.Duration
	// SeedBaseURL, when set, points at the sync service snapshot endpoint
	// used to prime the store on startup. Empty disables seeding.
	SeedBaseURL string
	// Unit is the default unit identifier used for snapshot fetches and
	// leaderboard queries.
	Unit string
	// SmoothWindow is the default moving-average window for weekly charts.
	SmoothWindow int
}

const (
	defaultListenAddress = ":8087"
	defaultLogFile       = "logs/attendance.log"
	defaultReadTimeout   = 5 * time.Second
	defaultWriteTimeout  = 10 * time.Second
	defaultShutdown      = 5 * time.Second
	defaultPropsPath     = "attendance.properties"
	defaultKafkaBrokers  = "kafka:9092"
	defaultMarkTopic     = "attendance.marks"
	defaultMarkGroup     = "attendance-insights"
	defaultPollTimeout   = 5 * time.Second
	defaultJournalDir    = "data"
	defaultCacheTTL      = 15 * time.Minute
	defaultUnit          = "gsu"
	defaultSmoothWindow  = 1
)

// Load resolves configuration by layering defaults, an optional
// properties file, and finally environment variables. The properties
// file location can be overridden with ATTENDANCE_PROPERTIES_PATH.
func Load() (Config, error) {
	cfg := Config{
		ListenAddress:    defaultListenAddress,
		LogFilePath:      filepath.Clean(defaultLogFile),
		HTTPReadTimeout:  defaultReadTimeout,
		HTTPWriteTimeout: defaultWriteTimeout,
		ShutdownTimeout:  defaultShutdown,
		KafkaBrokers:     splitAndTrim(defaultKafkaBrokers),
		MarkTopic:        defaultMarkTopic,
		MarkGroupID:      defaultMarkGroup,
		MarkPollTimeout:  defaultPollTimeout,
		JournalDir:       defaultJournalDir,
		CacheTTL:         defaultCacheTTL,
		Unit:             defaultUnit,
		SmoothWindow:     defaultSmoothWindow,
	}

	propsPath := strings.TrimSpace(os.Getenv("ATTENDANCE_PROPERTIES_PATH"))
	if propsPath == "" {
		propsPath = defaultPropsPath
	}
	cfg.PropertiesPath = propsPath

	if err := applyProperties(&cfg, propsPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func applyProperties(cfg *Config, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		// Close errors are ignored because configuration loading has
		// already completed and there is no logger available at this
		// stage of initialization.
		_ = f.Close()
	}()

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") || strings.HasPrefix(raw, ";") {
			continue
		}
		parts := strings.SplitN(raw, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid properties entry on line %d", line)
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if err := setProperty(cfg, key, value); err != nil {
			return fmt.Errorf("property %s: %w", key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read properties: %w", err)
	}
	return nil
}

func setProperty(cfg *Config, key, value string) error {
	switch key {
	case "listen_address":
		if value == "" {
			return errors.New("listen_address cannot be empty")
		}
		cfg.ListenAddress = value
	case "log_path":
		if value == "" {
			return errors.New("log_path cannot be empty")
		}
		cfg.LogFilePath = filepath.Clean(value)
	case "http_read_timeout_ms":
		d, err := parsePositiveMillis(value)
		if err != nil {
			return err
		}
		cfg.HTTPReadTimeout = d
	case "http_write_timeout_ms":
		d, err := parsePositiveMillis(value)
		if err != nil {
			return err
		}
		cfg.HTTPWriteTimeout = d
	case "shutdown_timeout_ms":
		d, err := parsePositiveMillis(value)
		if err != nil {
			return err
		}
		cfg.ShutdownTimeout = d
	case "kafka_brokers":
		brokers := splitAndTrim(value)
		if len(brokers) == 0 {
			return errors.New("kafka_brokers cannot be empty")
		}
		cfg.KafkaBrokers = brokers
	case "mark_topic":
		if value == "" {
			return errors.New("mark_topic cannot be empty")
		}
		cfg.MarkTopic = value
	case "mark_group_id":
		if value == "" {
			return errors.New("mark_group_id cannot be empty")
		}
		cfg.MarkGroupID = value
	case "mark_poll_timeout_ms":
		d, err := parsePositiveMillis(value)
		if err != nil {
			return err
		}
		cfg.MarkPollTimeout = d
	case "journal_dir":
		if value == "" {
			return errors.New("journal_dir cannot be empty")
		}
		cfg.JournalDir = filepath.Clean(value)
	case "cache_ttl_ms":
		d, err := parsePositiveMillis(value)
		if err != nil {
			return err
		}
		cfg.CacheTTL = d
	case "seed_base_url":
		cfg.SeedBaseURL = value
	case "unit":
		if value == "" {
			return errors.New("unit cannot be empty")
		}
		cfg.Unit = value
	case "smooth_window":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid smooth_window: %w", err)
		}
		if n <= 0 {
			return errors.New("smooth_window must be positive")
		}
		cfg.SmoothWindow = n
	default:
		// Unknown keys are ignored to keep the loader forward-compatible.
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v, ok := lookupEnvTrimmed("ATTENDANCE_LISTEN_ADDRESS"); ok {
		if v == "" {
			return errors.New("ATTENDANCE_LISTEN_ADDRESS cannot be empty")
		}
		cfg.ListenAddress = v
	}
	if v, ok := lookupEnvTrimmed("ATTENDANCE_LOG_PATH"); ok {
		if v == "" {
			return errors.New("ATTENDANCE_LOG_PATH cannot be empty")
		}
		cfg.LogFilePath = filepath.Clean(v)
	}
	if v, ok := lookupEnvTrimmed("ATTENDANCE_HTTP_READ_TIMEOUT_MS"); ok {
		d, err := parsePositiveMillis(v)
		if err != nil {
			return fmt.Errorf("ATTENDANCE_HTTP_READ_TIMEOUT_MS: %w", err)
		}
		cfg.HTTPReadTimeout = d
	}
	if v, ok := lookupEnvTrimmed("ATTENDANCE_HTTP_WRITE_TIMEOUT_MS"); ok {
		d, err := parsePositiveMillis(v)
		if err != nil {
			return fmt.Errorf("ATTENDANCE_HTTP_WRITE_TIMEOUT_MS: %w", err)
		}
		cfg.HTTPWriteTimeout = d
	}
	if v, ok := lookupEnvTrimmed("ATTENDANCE_SHUTDOWN_TIMEOUT_MS"); ok {
		d, err := parsePositiveMillis(v)
		if err != nil {
			return fmt.Errorf("ATTENDANCE_SHUTDOWN_TIMEOUT_MS: %w", err)
		}
		cfg.ShutdownTimeout = d
	}
	if v, ok := lookupEnvTrimmed("ATTENDANCE_KAFKA_BROKERS"); ok {
		brokers := splitAndTrim(v)
		if len(brokers) == 0 {
			return errors.New("ATTENDANCE_KAFKA_BROKERS cannot be empty")
		}
		cfg.KafkaBrokers = brokers
	} else if v, ok := lookupEnvTrimmed("KAFKA_BROKERS"); ok {
		brokers := splitAndTrim(v)
		if len(brokers) == 0 {
			return errors.New("KAFKA_BROKERS cannot be empty")
		}
		cfg.KafkaBrokers = brokers
	}
	if v, ok := lookupEnvTrimmed("ATTENDANCE_MARK_TOPIC"); ok {
		if v == "" {
			return errors.New("ATTENDANCE_MARK_TOPIC cannot be empty")
		}
		cfg.MarkTopic = v
	}
	if v, ok := lookupEnvTrimmed("ATTENDANCE_MARK_GROUP"); ok {
		if v == "" {
			return errors.New("ATTENDANCE_MARK_GROUP cannot be empty")
		}
		cfg.MarkGroupID = v
	}
	if v, ok := lookupEnvTrimmed("ATTENDANCE_MARK_POLL_TIMEOUT_MS"); ok {
		d, err := parsePositiveMillis(v)
		if err != nil {
			return fmt.Errorf("ATTENDANCE_MARK_POLL_TIMEOUT_MS: %w", err)
		}
		cfg.MarkPollTimeout = d
	}
	if v, ok := lookupEnvTrimmed("ATTENDANCE_JOURNAL_DIR"); ok {
		if v == "" {
			return errors.New("ATTENDANCE_JOURNAL_DIR cannot be empty")
		}
		cfg.JournalDir = filepath.Clean(v)
	}
	if v, ok := lookupEnvTrimmed("ATTENDANCE_CACHE_TTL_MS"); ok {
		d, err := parsePositiveMillis(v)
		if err != nil {
			return fmt.Errorf("ATTENDANCE_CACHE_TTL_MS: %w", err)
		}
		cfg.CacheTTL = d
	}
	if v, ok := lookupEnvTrimmed("ATTENDANCE_SEED_URL"); ok {
		cfg.SeedBaseURL = v
	}
	if v, ok := lookupEnvTrimmed("ATTENDANCE_UNIT"); ok {
		if v == "" {
			return errors.New("ATTENDANCE_UNIT cannot be empty")
		}
		cfg.Unit = v
	}
	if v, ok := lookupEnvTrimmed("ATTENDANCE_SMOOTH_WINDOW"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ATTENDANCE_SMOOTH_WINDOW: %w", err)
		}
		if n <= 0 {
			return errors.New("ATTENDANCE_SMOOTH_WINDOW must be positive")
		}
		cfg.SmoothWindow = n
	}
	return nil
}

func lookupEnvTrimmed(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func splitAndTrim(raw string) []string {
	fields := strings.Split(raw, ",")
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		trimmed := strings.TrimSpace(field)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parsePositiveMillis(v string) (time.Duration, error) {
	if strings.TrimSpace(v) == "" {
		return 0, errors.New("value cannot be empty")
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer: %w", err)
	}
	if ms <= 0 {
		return 0, errors.New("value must be greater than zero")
	}
	return time.Duration(ms) * time.Millisecond, nil
}
