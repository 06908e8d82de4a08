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
)

const (
	envListenAddr      = "MIHRAB_LISTEN_ADDR"
	envHealthPort      = "MIHRAB_HEALTH_PORT"
	envMetricsPort     = "MIHRAB_METRICS_PORT"
	envLogLevel        = "MIHRAB_LOG_LEVEL"
	envLatitude        = "MIHRAB_LATITUDE"
	envLongitude       = "MIHRAB_LONGITUDE"
	envCity            = "MIHRAB_CITY"
	envGeoURL          = "MIHRAB_GEO_URL"
	envGeoTimeout      = "MIHRAB_GEO_TIMEOUT"
	envAPIBaseURL      = "MIHRAB_API_BASE_URL"
	envAPITimeout      = "MIHRAB_API_TIMEOUT"
	envMethod          = "MIHRAB_CALC_METHOD"
	envRetryInterval   = "MIHRAB_RETRY_INTERVAL"
	envTickInterval    = "MIHRAB_TICK_INTERVAL"
	envExpiryDelay     = "MIHRAB_EXPIRY_DELAY"
	envDataDir         = "MIHRAB_DATA_DIR"
	envStoreBackend    = "MIHRAB_STORE"
	envRedisAddr       = "MIHRAB_REDIS_ADDR"
	envRedisUsername   = "MIHRAB_REDIS_USERNAME"
	envRedisPassword   = "MIHRAB_REDIS_PASSWORD"
	envSlackWebhookURL = "MIHRAB_SLACK_WEBHOOK_URL"
	envWebhookURL      = "MIHRAB_WEBHOOK_URL"
	envWebhookTemplate = "MIHRAB_WEBHOOK_TEMPLATE"
	envDryRun          = "MIHRAB_DRY_RUN"
	envManifestPath    = "MIHRAB_MANIFEST_PATH"
)

const (
	defaultListenAddr    = ":8080"
	defaultGeoTimeout    = 15 * time.Second
	defaultAPITimeout    = 10 * time.Second
	defaultCalcMethod    = 2
	defaultRetryInterval = 5 * time.Minute
	defaultTickInterval  = 500 * time.Millisecond
	defaultExpiryDelay   = 2 * time.Second
	defaultDataDir       = "data"
)

// Store backend identifiers.
const (
	StoreFile  = "file"
	StoreRedis = "redis"
)

// Config describes runtime configuration loaded from the environment.
type Config struct {
	ListenAddr  string
	HealthPort  int
	MetricsPort int
	LogLevel    string

	// Fixed coordinates; when unset, the IP locator is used.
	Latitude   *float64
	Longitude  *float64
	City       string
	GeoURL     string
	GeoTimeout time.Duration

	APIBaseURL string
	APITimeout time.Duration
	CalcMethod int

	RetryInterval time.Duration
	TickInterval  time.Duration
	ExpiryDelay   time.Duration

	DataDir       string
	StoreBackend  string
	RedisAddr     string
	RedisUsername string
	RedisPassword string

	SlackWebhookURL string
	WebhookURL      string
	WebhookTemplate string
	DryRun          bool

	ManifestPath string
}

// Load reads configuration from environment variables and a local .env
// file if present. Existing environment variables take precedence over
// values in .env.
func Load() (Config, error) {
	if err := loadDotEnvIfPresent(".env"); err != nil {
		return Config{}, err
	}

	cfg := Config{
		ListenAddr:    defaultListenAddr,
		GeoTimeout:    defaultGeoTimeout,
		APITimeout:    defaultAPITimeout,
		CalcMethod:    defaultCalcMethod,
		RetryInterval: defaultRetryInterval,
		TickInterval:  defaultTickInterval,
		ExpiryDelay:   defaultExpiryDelay,
		DataDir:       defaultDataDir,
		StoreBackend:  StoreFile,
	}

	if value, ok := lookupTrimmed(envListenAddr); ok {
		cfg.ListenAddr = value
	}
	var err error
	if cfg.HealthPort, err = intVar(envHealthPort, 0); err != nil {
		return Config{}, err
	}
	if cfg.MetricsPort, err = intVar(envMetricsPort, 0); err != nil {
		return Config{}, err
	}
	if value, ok := lookupTrimmed(envLogLevel); ok {
		cfg.LogLevel = value
	}

	latRaw, hasLat := lookupTrimmed(envLatitude)
	lonRaw, hasLon := lookupTrimmed(envLongitude)
	if hasLat != hasLon {
		return Config{}, fmt.Errorf("%s and %s must be set together", envLatitude, envLongitude)
	}
	if hasLat {
		lat, err := strconv.ParseFloat(latRaw, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envLatitude, err)
		}
		lon, err := strconv.ParseFloat(lonRaw, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envLongitude, err)
		}
		if lat < -90 || lat > 90 {
			return Config{}, fmt.Errorf("%s out of range [-90, 90]", envLatitude)
		}
		if lon < -180 || lon > 180 {
			return Config{}, fmt.Errorf("%s out of range [-180, 180]", envLongitude)
		}
		cfg.Latitude = &lat
		cfg.Longitude = &lon
	}
	if value, ok := lookupTrimmed(envCity); ok {
		cfg.City = value
	}
	if value, ok := lookupTrimmed(envGeoURL); ok {
		if err := validateURL(value, envGeoURL); err != nil {
			return Config{}, err
		}
		cfg.GeoURL = value
	}
	if cfg.GeoTimeout, err = durationVar(envGeoTimeout, cfg.GeoTimeout); err != nil {
		return Config{}, err
	}

	if value, ok := lookupTrimmed(envAPIBaseURL); ok {
		if err := validateURL(value, envAPIBaseURL); err != nil {
			return Config{}, err
		}
		cfg.APIBaseURL = value
	}
	if cfg.APITimeout, err = durationVar(envAPITimeout, cfg.APITimeout); err != nil {
		return Config{}, err
	}
	if cfg.CalcMethod, err = intVar(envMethod, cfg.CalcMethod); err != nil {
		return Config{}, err
	}

	if cfg.RetryInterval, err = durationVar(envRetryInterval, cfg.RetryInterval); err != nil {
		return Config{}, err
	}
	if cfg.TickInterval, err = durationVar(envTickInterval, cfg.TickInterval); err != nil {
		return Config{}, err
	}
	if cfg.ExpiryDelay, err = durationVar(envExpiryDelay, cfg.ExpiryDelay); err != nil {
		return Config{}, err
	}

	if value, ok := lookupTrimmed(envDataDir); ok {
		cfg.DataDir = value
	}
	if value, ok := lookupTrimmed(envStoreBackend); ok {
		cfg.StoreBackend = strings.ToLower(value)
	}
	switch cfg.StoreBackend {
	case StoreFile:
	case StoreRedis:
		addr, ok := lookupTrimmed(envRedisAddr)
		if !ok || addr == "" {
			return Config{}, fmt.Errorf("%s is required when %s=%s", envRedisAddr, envStoreBackend, StoreRedis)
		}
		cfg.RedisAddr = addr
		cfg.RedisUsername, _ = lookupTrimmed(envRedisUsername)
		cfg.RedisPassword, _ = lookupTrimmed(envRedisPassword)
	default:
		return Config{}, fmt.Errorf("invalid %s: %q", envStoreBackend, cfg.StoreBackend)
	}

	if value, ok := lookupTrimmed(envSlackWebhookURL); ok {
		cfg.SlackWebhookURL = value
	}
	if value, ok := lookupTrimmed(envWebhookURL); ok {
		if err := validateURL(value, envWebhookURL); err != nil {
			return Config{}, err
		}
		cfg.WebhookURL = value
	}
	if value, ok := lookupTrimmed(envWebhookTemplate); ok {
		cfg.WebhookTemplate = value
	}
	if value, ok := lookupTrimmed(envDryRun); ok {
		cfg.DryRun = value == "1" || strings.EqualFold(value, "true")
	}
	if value, ok := lookupTrimmed(envManifestPath); ok {
		cfg.ManifestPath = value
	}

	return cfg, nil
}

func lookupTrimmed(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func durationVar(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := lookupTrimmed(key)
	if !ok {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than zero", key)
	}
	return parsed, nil
}

func intVar(key string, fallback int) (int, error) {
	value, ok := lookupTrimmed(key)
	if !ok {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if parsed < 0 {
		return 0, fmt.Errorf("%s cannot be negative", key)
	}
	return parsed, nil
}

func loadDotEnvIfPresent(path string) error {
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist) {
		return nil
	}

	return err
}

func validateURL(value, name string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid %s: must include scheme and host", name)
	}
	return nil
}
