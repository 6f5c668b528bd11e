// Package config loads the assistant's runtime settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr string

	// Remote model.
	APIKey            string
	Model             string
	Voice             string
	Language          string
	SystemInstruction string
	MaxDecodeFailures int

	// Booking data.
	CatalogFile       string
	StoreDriver       string
	StoreDSN          string
	BookingClientName string

	// Local audio devices.
	SpeakerBuffer time.Duration

	// Logging and telemetry.
	LogFile      string
	LogLevel     slog.Level
	TelemetryDir string

	// CORS
	CORSAllowedOrigins map[string]struct{} // empty => disabled

	// Host bridge WebSocket (/v1/assistant).
	WSPingInterval       time.Duration
	WSWriteTimeout       time.Duration
	WSHandshakeTimeout   time.Duration
	WSMaxMessageBytes    int64
	WSMaxCommandsPerSec  int
	WSCommandBurstSecond int
	WSMaxClients         int

	// Operational defaults
	ReadHeaderTimeout   time.Duration
	ShutdownGracePeriod time.Duration
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                 envOr("PJ_ADDR", "127.0.0.1:8080"),
		APIKey:               envOr("GEMINI_API_KEY", envOr("GOOGLE_API_KEY", "")),
		Model:                envOr("PJ_MODEL", ""),
		Voice:                envOr("PJ_VOICE", ""),
		Language:             envOr("PJ_LANGUAGE", ""),
		SystemInstruction:    envOr("PJ_SYSTEM_INSTRUCTION", ""),
		MaxDecodeFailures:    envIntOr("PJ_MAX_DECODE_FAILURES", 8),
		CatalogFile:          envOr("PJ_CATALOG_FILE", ""),
		StoreDriver:          strings.ToLower(envOr("PJ_STORE_DRIVER", "memory")),
		StoreDSN:             envOr("PJ_STORE_DSN", ""),
		BookingClientName:    envOr("PJ_BOOKING_CLIENT_NAME", "Cliente Assistente"),
		SpeakerBuffer:        envDurationOr("PJ_SPEAKER_BUFFER", 120*time.Millisecond),
		LogFile:              envOr("PJ_LOG_FILE", ""),
		TelemetryDir:         envOr("PJ_TELEMETRY_DIR", ""),
		CORSAllowedOrigins:   make(map[string]struct{}),
		WSPingInterval:       envDurationOr("PJ_WS_PING_INTERVAL", 20*time.Second),
		WSWriteTimeout:       envDurationOr("PJ_WS_WRITE_TIMEOUT", 5*time.Second),
		WSHandshakeTimeout:   envDurationOr("PJ_WS_HANDSHAKE_TIMEOUT", 5*time.Second),
		WSMaxMessageBytes:    envInt64Or("PJ_WS_MAX_MESSAGE_BYTES", 16*1024),
		WSMaxCommandsPerSec:  envIntOr("PJ_WS_MAX_COMMANDS_PER_SEC", 10),
		WSCommandBurstSecond: envIntOr("PJ_WS_COMMAND_BURST_SECONDS", 2),
		WSMaxClients:         envIntOr("PJ_WS_MAX_CLIENTS", 8),
		ReadHeaderTimeout:    envDurationOr("PJ_READ_HEADER_TIMEOUT", 10*time.Second),
		ShutdownGracePeriod:  envDurationOr("PJ_SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	level, err := parseLevel(envOr("PJ_LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}
	cfg.LogLevel = level

	for _, origin := range splitCSV(os.Getenv("PJ_CORS_ORIGINS")) {
		cfg.CORSAllowedOrigins[origin] = struct{}{}
	}

	switch cfg.StoreDriver {
	case "memory":
	case "sqlite", "postgres":
		if cfg.StoreDSN == "" {
			return Config{}, fmt.Errorf("PJ_STORE_DSN must be set when PJ_STORE_DRIVER=%s", cfg.StoreDriver)
		}
	default:
		return Config{}, fmt.Errorf("PJ_STORE_DRIVER must be one of memory|sqlite|postgres")
	}

	if cfg.MaxDecodeFailures <= 0 {
		return Config{}, fmt.Errorf("PJ_MAX_DECODE_FAILURES must be > 0")
	}
	if cfg.SpeakerBuffer < 0 {
		return Config{}, fmt.Errorf("PJ_SPEAKER_BUFFER must be >= 0")
	}
	if cfg.WSPingInterval <= 0 {
		return Config{}, fmt.Errorf("PJ_WS_PING_INTERVAL must be > 0")
	}
	if cfg.WSWriteTimeout <= 0 {
		return Config{}, fmt.Errorf("PJ_WS_WRITE_TIMEOUT must be > 0")
	}
	if cfg.WSHandshakeTimeout <= 0 {
		return Config{}, fmt.Errorf("PJ_WS_HANDSHAKE_TIMEOUT must be > 0")
	}
	if cfg.WSMaxMessageBytes <= 0 {
		return Config{}, fmt.Errorf("PJ_WS_MAX_MESSAGE_BYTES must be > 0")
	}
	if cfg.WSMaxCommandsPerSec < 0 {
		return Config{}, fmt.Errorf("PJ_WS_MAX_COMMANDS_PER_SEC must be >= 0")
	}
	if cfg.WSMaxCommandsPerSec > 0 && cfg.WSCommandBurstSecond < 1 {
		return Config{}, fmt.Errorf("PJ_WS_COMMAND_BURST_SECONDS must be >= 1 when command limits are enabled")
	}
	if cfg.WSMaxClients < 0 {
		return Config{}, fmt.Errorf("PJ_WS_MAX_CLIENTS must be >= 0")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("PJ_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("PJ_SHUTDOWN_GRACE_PERIOD must be > 0")
	}

	return cfg, nil
}

// RequireAPIKey reports a missing model credential. Commands that never dial
// the model skip it.
func (c Config) RequireAPIKey() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("GEMINI_API_KEY (or GOOGLE_API_KEY) must be set")
	}
	return nil
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return 0, fmt.Errorf("PJ_LOG_LEVEL must be one of debug|info|warn|error")
	}
	return level, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt64Or(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envIntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
