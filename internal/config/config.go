/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/friendsincode/pirwatch/internal/schedule"
)

// Schedule source formats.
type ScheduleFormat string

const (
	ScheduleCSV  ScheduleFormat = "csv"
	ScheduleYAML ScheduleFormat = "yaml"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	LogLevel    string
	HTTPBind    string
	HTTPPort    int

	// Time and schedule
	Timezone       string
	Location       *time.Location
	ScheduleFormat ScheduleFormat
	ScheduleDir    string // one <Day>.csv per weekday
	ScheduleFile   string // single weekly YAML document

	// Cycle loop
	PollInterval  time.Duration
	ErrorBackoff  time.Duration
	ShutdownGrace time.Duration

	// Reporting
	ReportWindow       time.Duration
	ReportInterval     time.Duration
	ReportInitialDelay time.Duration
	Retention          time.Duration

	// Sensor trigger endpoint
	TriggerURL            string
	TriggerSerialTemplate string
	TriggerSensors        string
	TriggerTimeout        time.Duration
	TriggerRatePerMinute  int

	// SMTP report delivery
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	SMTPFrom         string
	SMTPFromName     string
	ReportRecipients []string

	// Telegram report delivery
	TelegramBotToken string
	TelegramChatID   int64

	// S3 report archive
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Region          string
	S3Bucket          string
	S3Prefix          string
	S3Endpoint        string // For S3-compatible services (MinIO, Spaces, etc.)
	S3UsePathStyle    bool   // Required for MinIO

	// NATS report publication
	NATSURL     string
	NATSToken   string
	NATSSubject string

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64

	EnvFile           string
	LegacyEnvWarnings []string
}

// Load reads an optional .env file and environment variables, applies
// defaults, and validates the result.
func Load() (*Config, error) {
	envFile := getEnvAny([]string{"PIRWATCH_ENV_FILE"}, ".env")
	if err := loadDotEnv(envFile); err != nil {
		return nil, err
	}

	var errs []error
	duration := func(keys []string, def time.Duration) time.Duration {
		d, err := getEnvDurationAny(keys, def)
		if err != nil {
			errs = append(errs, err)
		}
		return d
	}

	cfg := &Config{
		Environment: getEnvAny([]string{"PIRWATCH_ENV"}, "development"),
		LogLevel:    getEnvAny([]string{"PIRWATCH_LOG_LEVEL", "LOG_LEVEL"}, ""),
		HTTPBind:    getEnvAny([]string{"PIRWATCH_HTTP_BIND"}, "0.0.0.0"),
		HTTPPort:    getEnvIntAny([]string{"PIRWATCH_HTTP_PORT"}, 8080),

		Timezone:       getEnvAny([]string{"PIRWATCH_TIMEZONE", "TZ"}, "Local"),
		ScheduleFormat: ScheduleFormat(strings.ToLower(getEnvAny([]string{"PIRWATCH_SCHEDULE_FORMAT"}, string(ScheduleCSV)))),
		ScheduleDir:    getEnvAny([]string{"PIRWATCH_SCHEDULE_DIR"}, "./schedules"),
		ScheduleFile:   getEnvAny([]string{"PIRWATCH_SCHEDULE_FILE"}, "./schedules/week.yaml"),

		PollInterval:  duration([]string{"PIRWATCH_POLL_INTERVAL"}, 300*time.Second),
		ErrorBackoff:  duration([]string{"PIRWATCH_ERROR_BACKOFF"}, 30*time.Second),
		ShutdownGrace: duration([]string{"PIRWATCH_SHUTDOWN_GRACE"}, 10*time.Second),

		ReportWindow:       duration([]string{"PIRWATCH_REPORT_WINDOW"}, time.Hour),
		ReportInterval:     duration([]string{"PIRWATCH_REPORT_INTERVAL"}, time.Hour),
		ReportInitialDelay: duration([]string{"PIRWATCH_REPORT_INITIAL_DELAY"}, 5*time.Minute),
		Retention:          duration([]string{"PIRWATCH_RETENTION"}, 24*time.Hour),

		TriggerURL:            getEnvAny([]string{"PIRWATCH_TRIGGER_URL"}, ""),
		TriggerSerialTemplate: getEnvAny([]string{"PIRWATCH_TRIGGER_SERIAL_TEMPLATE"}, "Charli PIR {{.Location}}"),
		TriggerSensors:        getEnvAny([]string{"PIRWATCH_TRIGGER_SENSORS"}, "motion"),
		TriggerTimeout:        duration([]string{"PIRWATCH_TRIGGER_TIMEOUT"}, 30*time.Second),
		TriggerRatePerMinute:  getEnvIntAny([]string{"PIRWATCH_TRIGGER_RATE_PER_MINUTE"}, 0),

		SMTPHost:         getEnvAny([]string{"PIRWATCH_SMTP_HOST"}, "smtp.gmail.com"),
		SMTPPort:         getEnvIntAny([]string{"PIRWATCH_SMTP_PORT"}, 587),
		SMTPUsername:     getEnvAny([]string{"PIRWATCH_SMTP_USERNAME", "EMAIL_USER"}, ""),
		SMTPPassword:     getEnvAny([]string{"PIRWATCH_SMTP_PASSWORD", "EMAIL_PASS"}, ""),
		SMTPFrom:         getEnvAny([]string{"PIRWATCH_SMTP_FROM"}, ""),
		SMTPFromName:     getEnvAny([]string{"PIRWATCH_SMTP_FROM_NAME"}, "PIR Monitor"),
		ReportRecipients: splitList(getEnvAny([]string{"PIRWATCH_REPORT_TO", "REPORT_EMAIL"}, "")),

		TelegramBotToken: getEnvAny([]string{"PIRWATCH_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN"}, ""),
		TelegramChatID:   getEnvInt64Any([]string{"PIRWATCH_TELEGRAM_CHAT_ID"}, 0),

		S3AccessKeyID:     getEnvAny([]string{"PIRWATCH_S3_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID"}, ""),
		S3SecretAccessKey: getEnvAny([]string{"PIRWATCH_S3_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY"}, ""),
		S3Region:          getEnvAny([]string{"PIRWATCH_S3_REGION", "AWS_REGION"}, "us-east-1"),
		S3Bucket:          getEnvAny([]string{"PIRWATCH_S3_BUCKET", "S3_BUCKET"}, ""),
		S3Prefix:          getEnvAny([]string{"PIRWATCH_S3_PREFIX"}, "reports"),
		S3Endpoint:        getEnvAny([]string{"PIRWATCH_S3_ENDPOINT", "S3_ENDPOINT"}, ""),
		S3UsePathStyle:    getEnvBoolAny([]string{"PIRWATCH_S3_USE_PATH_STYLE", "S3_USE_PATH_STYLE"}, false),

		NATSURL:     getEnvAny([]string{"PIRWATCH_NATS_URL", "NATS_URL"}, ""),
		NATSToken:   getEnvAny([]string{"PIRWATCH_NATS_TOKEN"}, ""),
		NATSSubject: getEnvAny([]string{"PIRWATCH_NATS_SUBJECT"}, "pirwatch.reports"),

		TracingEnabled:    getEnvBoolAny([]string{"PIRWATCH_TRACING_ENABLED"}, false),
		OTLPEndpoint:      getEnvAny([]string{"PIRWATCH_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT"}, "localhost:4317"),
		TracingSampleRate: getEnvFloatAny([]string{"PIRWATCH_TRACING_SAMPLE_RATE"}, 1.0),

		EnvFile: envFile,
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.LegacyEnvWarnings = detectLegacyEnvWarnings()

	return cfg, nil
}

func (c *Config) validate() error {
	loc, err := schedule.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("PIRWATCH_TIMEZONE: %w", err)
	}
	c.Location = loc

	switch c.ScheduleFormat {
	case ScheduleCSV:
		if c.ScheduleDir == "" {
			return fmt.Errorf("PIRWATCH_SCHEDULE_DIR must be provided for csv schedules")
		}
	case ScheduleYAML:
		if c.ScheduleFile == "" {
			return fmt.Errorf("PIRWATCH_SCHEDULE_FILE must be provided for yaml schedules")
		}
	default:
		return fmt.Errorf("unsupported schedule format %q", c.ScheduleFormat)
	}

	positive := map[string]time.Duration{
		"PIRWATCH_POLL_INTERVAL":   c.PollInterval,
		"PIRWATCH_ERROR_BACKOFF":   c.ErrorBackoff,
		"PIRWATCH_REPORT_WINDOW":   c.ReportWindow,
		"PIRWATCH_REPORT_INTERVAL": c.ReportInterval,
		"PIRWATCH_RETENTION":       c.Retention,
		"PIRWATCH_TRIGGER_TIMEOUT": c.TriggerTimeout,
	}
	for key, d := range positive {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", key, d)
		}
	}
	if c.ReportInitialDelay < 0 || c.ShutdownGrace < 0 {
		return fmt.Errorf("PIRWATCH_REPORT_INITIAL_DELAY and PIRWATCH_SHUTDOWN_GRACE must not be negative")
	}
	if c.ReportWindow > c.Retention {
		return fmt.Errorf("PIRWATCH_REPORT_WINDOW (%s) exceeds PIRWATCH_RETENTION (%s)", c.ReportWindow, c.Retention)
	}

	if c.TriggerURL == "" {
		return fmt.Errorf("PIRWATCH_TRIGGER_URL must be provided")
	}
	if u, err := url.Parse(c.TriggerURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("PIRWATCH_TRIGGER_URL %q is not an absolute URL", c.TriggerURL)
	}
	if c.TriggerRatePerMinute < 0 {
		return fmt.Errorf("PIRWATCH_TRIGGER_RATE_PER_MINUTE must not be negative")
	}
	if c.TelegramBotToken != "" && c.TelegramChatID == 0 {
		return fmt.Errorf("PIRWATCH_TELEGRAM_CHAT_ID is required when a Telegram bot token is set")
	}
	return nil
}

// SMTPEnabled reports whether e-mail reports can be sent.
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPUsername != "" && c.SMTPPassword != "" && len(c.ReportRecipients) > 0
}

// HTTPAddr is the operator API listen address.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTPBind, c.HTTPPort)
}

func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func detectLegacyEnvWarnings() []string {
	legacy := map[string]string{
		"EMAIL_USER":   "use PIRWATCH_SMTP_USERNAME",
		"EMAIL_PASS":   "use PIRWATCH_SMTP_PASSWORD",
		"REPORT_EMAIL": "use PIRWATCH_REPORT_TO",
	}

	warnings := make([]string, 0, len(legacy))
	for key, recommendation := range legacy {
		if os.Getenv(key) != "" {
			warnings = append(warnings, fmt.Sprintf("legacy env key %s is set; %s", key, recommendation))
		}
	}
	return warnings
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvAny returns the first non-empty environment variable value from keys, or def if none set.
func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

// getEnvIntAny returns the first set integer environment variable value from keys, or def.
func getEnvIntAny(keys []string, def int) int {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvInt64Any returns the first set 64-bit integer environment variable value from keys, or def.
func getEnvInt64Any(keys []string, def int64) int64 {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvBoolAny returns the first set boolean environment variable value from keys, or def.
func getEnvBoolAny(keys []string, def bool) bool {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "true" || v == "1" || v == "yes" {
				return true
			}
			if v == "false" || v == "0" || v == "no" {
				return false
			}
		}
	}
	return def
}

// getEnvFloatAny returns the first set float environment variable value from keys, or def.
func getEnvFloatAny(keys []string, def float64) float64 {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvDurationAny returns the first set duration from keys, or def. Values
// are Go durations ("5m") or whole seconds ("300").
func getEnvDurationAny(keys []string, def time.Duration) (time.Duration, error) {
	for _, k := range keys {
		v := strings.TrimSpace(os.Getenv(k))
		if v == "" {
			continue
		}
		d, err := ParseDuration(v)
		if err != nil {
			return def, fmt.Errorf("%s: %w", k, err)
		}
		return d, nil
	}
	return def, nil
}

// ParseDuration accepts Go duration syntax or a plain number of seconds.
func ParseDuration(v string) (time.Duration, error) {
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	return d, nil
}
