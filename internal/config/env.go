// Package config resolves courierplan's runtime configuration from .env
// files and the process environment. Unlike a generic env-accessor toolkit,
// Settings names courierplan's actual knobs (directions provider
// credentials/endpoint, the shared rate limiter's budget, worker pool size,
// log level) so callers configure the planner, not raw strings.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"frameworks/courierplan/internal/logging"
	"frameworks/courierplan/internal/ratelimit"
)

// Settings is the resolved configuration for one courierplan invocation.
type Settings struct {
	APIKey            string
	DirectionsBaseURL string
	RateLimit         ratelimit.Config
	WorkerPoolSize    int
	LogLevel          logging.Level
}

// Load resolves Settings, reading apiKeyEnv for the directions provider
// credential (spec.md §6.4: a missing/empty credential is a fatal, non-zero
// exit, decided by the caller rather than this package).
func Load(logger logging.Logger, apiKeyEnv string) (Settings, error) {
	loadDotEnvFiles(logger)

	apiKey := strings.TrimSpace(os.Getenv(apiKeyEnv))
	if apiKey == "" {
		return Settings{}, &MissingEnvError{Key: apiKeyEnv}
	}

	return Settings{
		APIKey:            apiKey,
		DirectionsBaseURL: getEnv("DIRECTIONS_BASE_URL", "https://apis-navi.kakaomobility.com/v1/waypoints/directions"),
		RateLimit: ratelimit.Config{
			// spec.md §5: "the caller may configure" the shared token bucket;
			// default matches the spec's own default of 10 req/s.
			RequestsPerSecond: getEnvFloat("DIRECTIONS_RATE_LIMIT_RPS", 10),
			Burst:             getEnvFloat("DIRECTIONS_RATE_LIMIT_BURST", 10),
		},
		WorkerPoolSize: getEnvInt("EVALUATOR_WORKER_POOL_SIZE", 4),
		LogLevel:       logLevelFromEnv(),
	}, nil
}

// loadDotEnvFiles loads .env / .env.dev from the working directory if
// present. Missing files are not an error; the process environment always
// wins when no file is found.
func loadDotEnvFiles(logger logging.Logger) {
	files := []string{".env", ".env.dev"}
	loaded := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Overload(file); err != nil {
			if logger != nil {
				logger.WithError(err).Warnf("failed to load %s", file)
			}
			continue
		}
		loaded = append(loaded, file)
	}
	if logger == nil {
		return
	}
	if len(loaded) == 0 {
		logger.Debug("no local env files loaded; relying on process environment")
		return
	}
	logger.Debugf("loaded env files: %s", strings.Join(loaded, ", "))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func logLevelFromEnv() logging.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return logging.DebugLevel
	case "warn":
		return logging.WarnLevel
	case "error":
		return logging.ErrorLevel
	default:
		return logging.InfoLevel
	}
}

// MissingEnvError indicates a required environment variable was empty or unset.
type MissingEnvError struct {
	Key string
}

func (e *MissingEnvError) Error() string {
	return "environment variable " + e.Key + " is required but not set"
}
