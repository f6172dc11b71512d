// Package config provides configuration loading and validation for the ranking service.
// It uses koanf to merge environment variables with optional file overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the ranking service.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Database (optional; the service falls back to in-memory stores)
	DatabaseURL string `koanf:"database_url"`

	// Redis (optional; enables the multiplier cache)
	RedisURL string `koanf:"redis_url"`

	// Weight calibration file overriding default rule weights (optional)
	CalibrationPath string `koanf:"calibration_path"`

	// Model artifact for learned scoring (optional; rule scoring is the fallback)
	ModelArtifactPath string `koanf:"model_artifact_path"`

	// Firehose for the feedback ingest consumer
	FirehoseURL string `koanf:"firehose_url"`

	// Ranking defaults
	TopKDefault int `koanf:"top_k_default"`

	// Feedback multiplier bounds and window
	MultiplierFloor   float64 `koanf:"multiplier_floor"`
	MultiplierCeiling float64 `koanf:"multiplier_ceiling"`
	FeedbackWindow    int     `koanf:"feedback_window"`

	// Recompute job interval in seconds
	RecomputeIntervalSeconds int `koanf:"recompute_interval_seconds"`

	// Tracing
	TracingEnabled    bool    `koanf:"tracing_enabled"`
	TracingExporter   string  `koanf:"tracing_exporter"`
	OTLPEndpoint      string  `koanf:"otlp_endpoint"`
	TracingSampleRate float64 `koanf:"tracing_sample_rate"`
	TracingInsecure   bool    `koanf:"tracing_insecure"`
}

// Configuration validation errors.
var (
	ErrInvalidPort              = errors.New("PORT must be a valid integer")
	ErrInvalidTopKDefault       = errors.New("TOP_K_DEFAULT must be positive")
	ErrInvalidMultiplierBounds  = errors.New("MULTIPLIER_FLOOR must be less than MULTIPLIER_CEILING")
	ErrInvalidFeedbackWindow    = errors.New("FEEDBACK_WINDOW must be positive")
	ErrInvalidSampleRate        = errors.New("TRACING_SAMPLE_RATE must be between 0 and 1")
	ErrInvalidRecomputeInterval = errors.New("RECOMPUTE_INTERVAL_SECONDS must be positive")
)

// Default values for non-secret configuration.
const (
	DefaultPort                     = 8080
	DefaultEnv                      = "development"
	DefaultTopKDefault              = 10
	DefaultMultiplierFloor          = 0.5
	DefaultMultiplierCeiling        = 1.5
	DefaultFeedbackWindow           = 200
	DefaultRecomputeIntervalSeconds = 30
	DefaultTracingSampleRate        = 1.0
)

// Load reads configuration from environment variables and an optional config file.
// Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if valid).
// If a config file path is provided and the file cannot be loaded, an error is returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// Load from YAML file first if provided (lower precedence)
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	// Try AVSAR_PORT first, then PORT for compatibility with container platforms
	port, portErr := getEnvIntOrDefaultMulti([]string{"AVSAR_PORT", "PORT"}, k.Int("port"), DefaultPort)
	if portErr != nil {
		loadErrs = append(loadErrs, portErr)
	}

	topKDefault, topKErr := getEnvIntOrDefault("TOP_K_DEFAULT", k.Int("top_k_default"), DefaultTopKDefault)
	if topKErr != nil {
		loadErrs = append(loadErrs, topKErr)
	}

	feedbackWindow, windowErr := getEnvIntOrDefault("FEEDBACK_WINDOW", k.Int("feedback_window"), DefaultFeedbackWindow)
	if windowErr != nil {
		loadErrs = append(loadErrs, windowErr)
	}

	recomputeInterval, intervalErr := getEnvIntOrDefault("RECOMPUTE_INTERVAL_SECONDS", k.Int("recompute_interval_seconds"), DefaultRecomputeIntervalSeconds)
	if intervalErr != nil {
		loadErrs = append(loadErrs, intervalErr)
	}

	floor, floorErr := getEnvFloatOrDefault("MULTIPLIER_FLOOR", k.Float64("multiplier_floor"), DefaultMultiplierFloor)
	if floorErr != nil {
		loadErrs = append(loadErrs, floorErr)
	}

	ceiling, ceilingErr := getEnvFloatOrDefault("MULTIPLIER_CEILING", k.Float64("multiplier_ceiling"), DefaultMultiplierCeiling)
	if ceilingErr != nil {
		loadErrs = append(loadErrs, ceilingErr)
	}

	sampleRate, sampleRateErr := getEnvFloatOrDefault("TRACING_SAMPLE_RATE", k.Float64("tracing_sample_rate"), DefaultTracingSampleRate)
	if sampleRateErr != nil {
		loadErrs = append(loadErrs, sampleRateErr)
	}

	// Build config struct, with env vars taking precedence over file values
	cfg := &Config{
		Port:                     port,
		Env:                      getEnvOrDefaultMulti([]string{"AVSAR_ENV", "ENV", "GO_ENV"}, k.String("env"), DefaultEnv),
		DatabaseURL:              getEnvOrKoanf("DATABASE_URL", k, "database_url"),
		RedisURL:                 getEnvOrKoanf("REDIS_URL", k, "redis_url"),
		CalibrationPath:          getEnvOrKoanf("CALIBRATION_PATH", k, "calibration_path"),
		ModelArtifactPath:        getEnvOrKoanf("MODEL_ARTIFACT_PATH", k, "model_artifact_path"),
		FirehoseURL:              getEnvOrKoanf("FIREHOSE_URL", k, "firehose_url"),
		TopKDefault:              topKDefault,
		MultiplierFloor:          floor,
		MultiplierCeiling:        ceiling,
		FeedbackWindow:           feedbackWindow,
		RecomputeIntervalSeconds: recomputeInterval,
		TracingEnabled:           getEnvBoolOrKoanf("TRACING_ENABLED", k, "tracing_enabled"),
		TracingExporter:          getEnvOrKoanf("TRACING_EXPORTER", k, "tracing_exporter"),
		OTLPEndpoint:             getEnvOrKoanf("OTLP_ENDPOINT", k, "otlp_endpoint"),
		TracingSampleRate:        sampleRate,
		TracingInsecure:          getEnvBoolOrKoanf("TRACING_INSECURE", k, "tracing_insecure"),
	}

	// Validate and collect errors
	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvBoolOrKoanf returns the environment variable as bool if set, otherwise the koanf value.
func getEnvBoolOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) bool {
	if val := os.Getenv(envKey); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return k.Bool(koanfKey)
}

// getEnvOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first non-empty value found, otherwise the koanf value, or default.
func getEnvOrDefaultMulti(envKeys []string, koanfVal string, defaultVal string) string {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvIntOrDefault returns the environment variable as int if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", envKey, err)
		}
		return i, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvIntOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first valid integer value found, otherwise the koanf value, or default.
// Returns an error if any environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefaultMulti(envKeys []string, koanfVal int, defaultVal int) (int, error) {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			i, err := strconv.Atoi(val)
			if err != nil {
				return 0, fmt.Errorf("%s must be a valid integer: %w", key, ErrInvalidPort)
			}
			return i, nil
		}
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvFloatOrDefault returns the environment variable as float64 if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as a float.
func getEnvFloatOrDefault(envKey string, koanfVal float64, defaultVal float64) (float64, error) {
	if val := os.Getenv(envKey); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid float: %w", envKey, err)
		}
		return f, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// Validate checks that all configuration values are within bounds.
// Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.TopKDefault <= 0 {
		errs = append(errs, ErrInvalidTopKDefault)
	}
	if c.MultiplierFloor >= c.MultiplierCeiling {
		errs = append(errs, ErrInvalidMultiplierBounds)
	}
	if c.FeedbackWindow <= 0 {
		errs = append(errs, ErrInvalidFeedbackWindow)
	}
	if c.RecomputeIntervalSeconds <= 0 {
		errs = append(errs, ErrInvalidRecomputeInterval)
	}
	if c.TracingSampleRate < 0 || c.TracingSampleRate > 1 {
		errs = append(errs, ErrInvalidSampleRate)
	}

	return errs
}

// LogSummary returns a summary of the configuration suitable for logging.
// Credentials embedded in URLs are masked to prevent accidental exposure.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"port":                       fmt.Sprintf("%d", c.Port),
		"env":                        c.Env,
		"database_url":               maskURL(c.DatabaseURL),
		"redis_url":                  maskURL(c.RedisURL),
		"calibration_path":           orNotSet(c.CalibrationPath),
		"model_artifact_path":        orNotSet(c.ModelArtifactPath),
		"firehose_url":               orNotSet(c.FirehoseURL),
		"top_k_default":              fmt.Sprintf("%d", c.TopKDefault),
		"multiplier_floor":           fmt.Sprintf("%g", c.MultiplierFloor),
		"multiplier_ceiling":         fmt.Sprintf("%g", c.MultiplierCeiling),
		"feedback_window":            fmt.Sprintf("%d", c.FeedbackWindow),
		"recompute_interval_seconds": fmt.Sprintf("%d", c.RecomputeIntervalSeconds),
		"tracing_enabled":            fmt.Sprintf("%t", c.TracingEnabled),
		"tracing_exporter":           orNotSet(c.TracingExporter),
		"otlp_endpoint":              orNotSet(c.OTLPEndpoint),
		"tracing_sample_rate":        fmt.Sprintf("%g", c.TracingSampleRate),
	}
}

func orNotSet(s string) string {
	if s == "" {
		return "<not set>"
	}
	return s
}

// maskURL masks the password in a connection URL.
// Supports postgres://, postgresql:// and redis:// schemes.
func maskURL(s string) string {
	if s == "" {
		return "<not set>"
	}

	schemeEnd := strings.Index(s, "://")
	if schemeEnd == -1 {
		return "****"
	}

	rest := s[schemeEnd+3:]
	atIndex := strings.Index(rest, "@")
	if atIndex == -1 {
		return s // No credentials in URL
	}

	colonIndex := strings.Index(rest[:atIndex], ":")
	if colonIndex == -1 {
		return s // No password (only username)
	}

	// Reconstruct URL with masked password
	scheme := s[:schemeEnd+3]
	user := rest[:colonIndex]
	hostAndPath := rest[atIndex:]

	return scheme + user + ":****" + hostAndPath
}
