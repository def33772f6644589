package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"inboxpulse/internal/schedule"
)

// Config holds everything the process needs, batch commands and serve mode
// alike. All values come from env (or an env-file loaded before Load runs);
// no aggregation logic should ever read raw environment variables.
type Config struct {
	App     AppConfig
	HTTP    HTTPConfig
	Paths   PathsConfig
	Store   StoreConfig
	Cache   CacheConfig
	Auth    AuthConfig
	Hours   HoursConfig
	SLA     SLAConfig
	Targets TargetsConfig
}

type AppConfig struct {
	Env string
}

type HTTPConfig struct {
	Host string
	Port int
}

type PathsConfig struct {
	// DataDir is scanned for incoming CSV exports.
	DataDir string
	// BackupDir receives database backups and processed CSVs.
	BackupDir string
	// OutputDir receives the rendered dashboards.
	OutputDir string
}

type StoreConfig struct {
	// Driver selects the day store: file, postgres, memory.
	Driver      string
	FilePath    string
	PostgresURL string
}

type CacheConfig struct {
	// RedisAddr is optional; empty disables the dashboard cache.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

type AuthConfig struct {
	// Secret signs admin tokens. Required only by serve mode.
	Secret   string
	TokenTTL time.Duration
}

type HoursConfig struct {
	StartHour int
	// EndHour is exclusive: hour EndHour itself is outside business hours.
	EndHour int
	// Days uses 0=Monday .. 6=Sunday, matching the data sources.
	Days []int
}

type SLAConfig struct {
	UnreadThreshold int
}

type TargetsConfig struct {
	ResponseTimeMinutes  int
	SLACompliancePercent float64
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error
	collect := func(err error) {
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
	}
	var err error

	c.App.Env = envOr("APP_ENV", "development")

	c.HTTP.Host = envOr("HTTP_HOST", "0.0.0.0")
	c.HTTP.Port, err = intEnv("HTTP_PORT", 8080)
	collect(err)

	c.Paths.DataDir = envOr("DATA_DIR", "data/incoming")
	c.Paths.BackupDir = envOr("BACKUP_DIR", "data/backup")
	c.Paths.OutputDir = envOr("OUTPUT_DIR", "output")

	c.Store.Driver = envOr("STORE_DRIVER", "file")
	c.Store.FilePath = envOr("STORE_FILE", "data/email_database.json")
	c.Store.PostgresURL = strings.TrimSpace(os.Getenv("POSTGRES_URL"))

	c.Cache.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	c.Cache.RedisPassword = os.Getenv("REDIS_PASSWORD")
	c.Cache.RedisDB, err = intEnv("REDIS_DB", 0)
	collect(err)
	c.Cache.TTL, err = durationEnv("CACHE_TTL", 5*time.Minute)
	collect(err)

	c.Auth.Secret = os.Getenv("AUTH_SECRET")
	c.Auth.TokenTTL, err = durationEnv("AUTH_TOKEN_TTL", 12*time.Hour)
	collect(err)

	c.Hours.StartHour, err = intEnv("BUSINESS_START_HOUR", 7)
	collect(err)
	c.Hours.EndHour, err = intEnv("BUSINESS_END_HOUR", 21)
	collect(err)
	c.Hours.Days, err = intListEnv("BUSINESS_DAYS", []int{0, 1, 2, 3, 4, 5, 6})
	collect(err)

	c.SLA.UnreadThreshold, err = intEnv("UNREAD_SLA_THRESHOLD", 30)
	collect(err)

	c.Targets.ResponseTimeMinutes, err = intEnv("RESPONSE_TIME_TARGET_MIN", 60)
	collect(err)
	c.Targets.SLACompliancePercent, err = floatEnv("SLA_COMPLIANCE_TARGET_PCT", 85.0)
	collect(err)

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate refuses to let the process run with a configuration that would
// produce nonsensical rates. Every problem is reported, not just the first.
func (c Config) Validate() error {
	var errs []error

	if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of development, production, got %q", c.App.Env))
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("HTTP_PORT must be a valid port, got %d", c.HTTP.Port))
	}

	if c.Hours.StartHour < 0 || c.Hours.StartHour > 23 {
		errs = append(errs, fmt.Errorf("BUSINESS_START_HOUR must be 0-23, got %d", c.Hours.StartHour))
	}
	if c.Hours.EndHour < 0 || c.Hours.EndHour > 23 {
		errs = append(errs, fmt.Errorf("BUSINESS_END_HOUR must be 0-23, got %d", c.Hours.EndHour))
	}
	if c.Hours.EndHour <= c.Hours.StartHour {
		errs = append(errs, fmt.Errorf("BUSINESS_END_HOUR (%d) must be after BUSINESS_START_HOUR (%d)", c.Hours.EndHour, c.Hours.StartHour))
	}
	if len(c.Hours.Days) == 0 {
		errs = append(errs, errors.New("BUSINESS_DAYS must list at least one weekday"))
	}
	for _, d := range c.Hours.Days {
		if d < 0 || d > 6 {
			errs = append(errs, fmt.Errorf("BUSINESS_DAYS entries must be 0-6 (0=Monday), got %d", d))
		}
	}

	if c.SLA.UnreadThreshold <= 0 {
		errs = append(errs, fmt.Errorf("UNREAD_SLA_THRESHOLD must be positive, got %d", c.SLA.UnreadThreshold))
	}
	if c.Targets.ResponseTimeMinutes <= 0 {
		errs = append(errs, fmt.Errorf("RESPONSE_TIME_TARGET_MIN must be positive, got %d", c.Targets.ResponseTimeMinutes))
	}
	if c.Targets.SLACompliancePercent <= 0 || c.Targets.SLACompliancePercent > 100 {
		errs = append(errs, fmt.Errorf("SLA_COMPLIANCE_TARGET_PCT must be in (0, 100], got %v", c.Targets.SLACompliancePercent))
	}

	switch c.Store.Driver {
	case "file", "memory":
	case "postgres":
		if c.Store.PostgresURL == "" {
			errs = append(errs, errors.New("POSTGRES_URL is required when STORE_DRIVER=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be one of file, postgres, memory, got %q", c.Store.Driver))
	}

	if c.Cache.TTL <= 0 {
		errs = append(errs, fmt.Errorf("CACHE_TTL must be positive, got %v", c.Cache.TTL))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("AUTH_TOKEN_TTL must be positive, got %v", c.Auth.TokenTTL))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}

// BusinessHours builds the validated calendar filter from the configured range.
func (c Config) BusinessHours() (schedule.BusinessHours, error) {
	return schedule.New(c.Hours.StartHour, c.Hours.EndHour, c.Hours.Days)
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func intEnv(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func floatEnv(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def, fmt.Errorf("%s must be a number, got %q", key, v)
	}
	return f, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s must be a duration like 5m or 12h, got %q", key, v)
	}
	return d, nil
}

func intListEnv(key string, def []int) ([]int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	parts := strings.Split(v, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return def, fmt.Errorf("%s must be a comma-separated list of integers, got %q", key, v)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return def, nil
	}
	return out, nil
}

func isValidEnv(v string) bool {
	switch v {
	case "development", "production":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
