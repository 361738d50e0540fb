package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

type Config struct {
	Server    ServerConfig
	Dataset   DatasetConfig
	Logger    LoggerConfig
	Security  SecurityConfig
	Dashboard DashboardConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DatasetConfig struct {
	CSVFile     string
	CacheDir    string
	LoadTimeout time.Duration
}

type LoggerConfig struct {
	Level  string
	Format string
}

type SecurityConfig struct {
	EnableRateLimit bool
	RateLimitRPS    int
	RateLimitBurst  int
	AllowedOrigins  []string
	TrustedProxies  []string
}

// DashboardConfig holds display settings. None of them affect how the
// underlying tables are computed.
type DashboardConfig struct {
	Currency      string
	Locale        string
	TopCategories int
	MonetaryClip  float64
	RecencyBins   int
	FrequencyBins int
	MonetaryBins  int
}

func DefaultDashboard() DashboardConfig {
	return DashboardConfig{
		Currency:      "AUD",
		Locale:        "es-CO",
		TopCategories: 10,
		MonetaryClip:  1000,
		RecencyBins:   20,
		FrequencyBins: 30,
		MonetaryBins:  30,
	}
}

// Load reads the configuration from the environment. Values from a .env file
// in the working directory are applied first when the file exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	dashboard := DefaultDashboard()

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "localhost"),
			Port:            getEnvInt("SERVER_PORT", 8084),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Dataset: DatasetConfig{
			CSVFile:     getEnvString("CSV_FILE", "all_data.csv"),
			CacheDir:    getEnvString("CACHE_DIR", ".cache"),
			LoadTimeout: getEnvDuration("CSV_LOAD_TIMEOUT", 60*time.Second),
		},
		Logger: LoggerConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			EnableRateLimit: getEnvBool("SECURITY_RATE_LIMIT_ENABLED", true),
			RateLimitRPS:    getEnvInt("SECURITY_RATE_LIMIT_RPS", 100),
			RateLimitBurst:  getEnvInt("SECURITY_RATE_LIMIT_BURST", 10),
			AllowedOrigins:  getEnvStringSlice("SECURITY_ALLOWED_ORIGINS", []string{"http://localhost:8084"}),
			TrustedProxies:  getEnvStringSlice("SECURITY_TRUSTED_PROXIES", []string{"127.0.0.1"}),
		},
		Dashboard: DashboardConfig{
			Currency:      getEnvString("DASHBOARD_CURRENCY", dashboard.Currency),
			Locale:        getEnvString("DASHBOARD_LOCALE", dashboard.Locale),
			TopCategories: getEnvInt("DASHBOARD_TOP_CATEGORIES", dashboard.TopCategories),
			MonetaryClip:  getEnvFloat("DASHBOARD_MONETARY_CLIP", dashboard.MonetaryClip),
			RecencyBins:   getEnvInt("DASHBOARD_RECENCY_BINS", dashboard.RecencyBins),
			FrequencyBins: getEnvInt("DASHBOARD_FREQUENCY_BINS", dashboard.FrequencyBins),
			MonetaryBins:  getEnvInt("DASHBOARD_MONETARY_BINS", dashboard.MonetaryBins),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

var (
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"json", "text"}
)

// validate reports every invalid setting at once.
func (c *Config) validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Server.Port >= 1 && c.Server.Port <= 65535, "server port must be between 1 and 65535, got %d", c.Server.Port)
	check(c.Server.ReadTimeout > 0, "server read timeout must be positive")
	check(c.Server.WriteTimeout > 0, "server write timeout must be positive")
	check(c.Dataset.CSVFile != "", "CSV file path cannot be empty")
	check(c.Dataset.LoadTimeout > 0, "CSV load timeout must be positive")
	check(slices.Contains(validLogLevels, c.Logger.Level),
		"invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	check(slices.Contains(validLogFormats, c.Logger.Format),
		"invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	check(c.Security.RateLimitRPS > 0, "rate limit RPS must be positive")
	check(c.Security.RateLimitBurst > 0, "rate limit burst must be positive")

	if err := c.Dashboard.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (d DashboardConfig) Validate() error {
	if _, err := currency.ParseISO(d.Currency); err != nil {
		return fmt.Errorf("invalid dashboard currency %q: %w", d.Currency, err)
	}
	if _, err := language.Parse(d.Locale); err != nil {
		return fmt.Errorf("invalid dashboard locale %q: %w", d.Locale, err)
	}
	if d.TopCategories <= 0 {
		return fmt.Errorf("dashboard top categories must be positive")
	}
	if d.MonetaryClip <= 0 {
		return fmt.Errorf("dashboard monetary clip must be positive")
	}
	if d.RecencyBins <= 0 || d.FrequencyBins <= 0 || d.MonetaryBins <= 0 {
		return fmt.Errorf("histogram bin counts must be positive")
	}
	return nil
}

// getEnv returns the parsed value of key, or def when the variable is unset
// or does not parse.
func getEnv[T any](key string, def T, parse func(string) (T, error)) T {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return def
	}
	parsed, err := parse(value)
	if err != nil {
		return def
	}
	return parsed
}

func getEnvString(key, def string) string {
	return getEnv(key, def, func(v string) (string, error) { return v, nil })
}

func getEnvInt(key string, def int) int {
	return getEnv(key, def, strconv.Atoi)
}

func getEnvFloat(key string, def float64) float64 {
	return getEnv(key, def, func(v string) (float64, error) { return strconv.ParseFloat(v, 64) })
}

func getEnvBool(key string, def bool) bool {
	return getEnv(key, def, strconv.ParseBool)
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	return getEnv(key, def, time.ParseDuration)
}

// getEnvStringSlice splits a comma separated list, trimming blanks.
func getEnvStringSlice(key string, def []string) []string {
	return getEnv(key, def, func(v string) ([]string, error) {
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	})
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
