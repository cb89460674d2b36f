package config

import (
	"strings"
	"testing"
	"time"
)

func productionConfig() *Config {
	return &Config{
		Environment:            EnvProduction,
		LogLevel:               "info",
		SessionAuthKey:         strings.Repeat("a", 32),
		SessionEncryptionKey:   strings.Repeat("b", 16),
		CORSAllowedOrigins:     "https://hub.example.com",
		ReservationHold:        30 * time.Minute,
		TombstoneRetention:     720 * time.Hour,
		TombstonePruneInterval: time.Hour,
		RedisEnabled:           true,
		SSEBuffer:              16,
		SSEKeepAlive:           15 * time.Second,
		SSEWriteTimeout:        5 * time.Second,
		RateLimit:              100,
		MutationRateLimit:      20,
		TraceSampleRatio:       0.1,
	}
}

func TestValidateForProduction(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"short auth key", func(c *Config) { c.SessionAuthKey = "short" }, "SESSION_AUTH_KEY"},
		{"short encryption key", func(c *Config) { c.SessionEncryptionKey = "short" }, "SESSION_ENCRYPTION_KEY"},
		{"debug logging", func(c *Config) { c.LogLevel = "debug" }, "LOG_LEVEL"},
		{"wildcard cors", func(c *Config) { c.CORSAllowedOrigins = "*" }, "CORS_ALLOWED_ORIGINS"},
		{"zero hold", func(c *Config) { c.ReservationHold = 0 }, "RESERVATION_HOLD"},
		{"redis disabled", func(c *Config) { c.RedisEnabled = false }, "REDIS_ENABLED"},
		{"dev auth key", func(c *Config) { c.SessionAuthKey = devSessionAuthKey }, "development default"},
		{"dev encryption key", func(c *Config) { c.SessionEncryptionKey = devSessionEncryptionKey }, "SESSION_ENCRYPTION_KEY is the development default"},
		{"sample ratio above one", func(c *Config) { c.TraceSampleRatio = 1.5 }, "TRACE_SAMPLE_RATIO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := productionConfig()
			tt.mutate(cfg)
			err := ValidateForProduction(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateForProduction_SkipsOtherEnvironments(t *testing.T) {
	cfg := &Config{Environment: EnvDevelopment, LogLevel: "debug"}
	if err := ValidateForProduction(cfg); err != nil {
		t.Fatalf("expected nil outside production, got %v", err)
	}
}

func TestProblems(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero hold", func(c *Config) { c.ReservationHold = 0 }, "RESERVATION_HOLD"},
		{"no tombstone retention", func(c *Config) { c.TombstoneRetention = 0 }, "TOMBSTONE_RETENTION"},
		{"no prune interval", func(c *Config) { c.TombstonePruneInterval = -time.Minute }, "TOMBSTONE_PRUNE_INTERVAL"},
		{"no sse buffer", func(c *Config) { c.SSEBuffer = 0 }, "SSE_BUFFER"},
		{"no keepalive", func(c *Config) { c.SSEKeepAlive = 0 }, "SSE_KEEPALIVE"},
		{"no mutation limit", func(c *Config) { c.MutationRateLimit = 0 }, "MUTATION_RATE_LIMIT"},
		{"negative sample ratio", func(c *Config) { c.TraceSampleRatio = -0.5 }, "TRACE_SAMPLE_RATIO"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := productionConfig()
			cfg.Environment = EnvDevelopment
			tt.mutate(cfg)
			errs := cfg.problems()
			if len(errs) != 1 || !strings.Contains(errs[0], tt.want) {
				t.Fatalf("expected one problem mentioning %q, got %v", tt.want, errs)
			}
		})
	}

	if errs := productionConfig().problems(); len(errs) != 0 {
		t.Fatalf("valid config reported %v", errs)
	}
}
