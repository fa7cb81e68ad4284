package courier

import (
	"os"
	"strconv"
	"time"
)

// EnvMaxRetries is the environment variable consulted by FromEnv for
// the retry budget.
const EnvMaxRetries = "COURIER_MAX_RETRIES"

// Config holds configuration for the delivery engine.
type Config struct {
	// MaxRetries is the number of additional attempts after the first
	// failure. Negative values fall back to the default.
	MaxRetries int

	// RetryDelay is the fixed wait between attempts.
	RetryDelay time.Duration

	// Concurrency is the maximum number of handler invocations in
	// flight at once. The default of 1 serializes deliveries so that
	// rate-limited providers are never hit concurrently.
	Concurrency int

	// RateLimit is the maximum sustained deliveries per second started
	// by the drain loop. Zero disables rate limiting.
	RateLimit float64

	// RateBurst is the burst size for the token-bucket rate limiter.
	// Defaults to 1 if RateLimit is set but RateBurst is zero.
	RateBurst int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries:  5,
		RetryDelay:  1 * time.Second,
		Concurrency: 1,
	}
}

// FromEnv returns DefaultConfig overlaid with values from the
// environment. Absent or invalid values keep the defaults.
func FromEnv() Config {
	cfg := DefaultConfig()
	if v := os.Getenv(EnvMaxRetries); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxRetries = n
		}
	}
	return cfg
}

// Normalized returns a copy of c with out-of-range fields replaced by
// their defaults.
func (c Config) Normalized() Config {
	def := DefaultConfig()
	if c.MaxRetries < 0 {
		c.MaxRetries = def.MaxRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = def.RetryDelay
	}
	if c.Concurrency < 1 {
		c.Concurrency = def.Concurrency
	}
	if c.RateLimit < 0 {
		c.RateLimit = 0
	}
	return c
}
