package courier

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.MaxRetries)
	}
	if cfg.RetryDelay != time.Second {
		t.Errorf("RetryDelay = %v, want 1s", cfg.RetryDelay)
	}
	if cfg.Concurrency != 1 {
		t.Errorf("Concurrency = %d, want 1", cfg.Concurrency)
	}
}

func TestFromEnv(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want int
	}{
		{"absent keeps default", "", 5},
		{"valid override", "9", 9},
		{"zero is valid", "0", 0},
		{"negative falls back", "-3", 5},
		{"garbage falls back", "many", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.env != "" {
				t.Setenv(EnvMaxRetries, tt.env)
			}
			if got := FromEnv().MaxRetries; got != tt.want {
				t.Errorf("MaxRetries = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNormalized(t *testing.T) {
	cfg := Config{
		MaxRetries:  -1,
		RetryDelay:  0,
		Concurrency: 0,
		RateLimit:   -2,
	}.Normalized()

	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.MaxRetries)
	}
	if cfg.RetryDelay != time.Second {
		t.Errorf("RetryDelay = %v, want 1s", cfg.RetryDelay)
	}
	if cfg.Concurrency != 1 {
		t.Errorf("Concurrency = %d, want 1", cfg.Concurrency)
	}
	if cfg.RateLimit != 0 {
		t.Errorf("RateLimit = %v, want 0", cfg.RateLimit)
	}
}

func TestNormalizedKeepsValidValues(t *testing.T) {
	in := Config{
		MaxRetries:  2,
		RetryDelay:  250 * time.Millisecond,
		Concurrency: 4,
		RateLimit:   10,
		RateBurst:   3,
	}
	if got := in.Normalized(); got != in {
		t.Errorf("Normalized changed a valid config: %+v", got)
	}
}
