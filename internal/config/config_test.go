package config

import (
	"strings"
	"testing"
	"time"
)

func lookupFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestFromEnvDatabaseURL(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(map[string]string{
		"JWT_SECRET":   "s",
		"DATABASE_URL": "sqlite:/tmp/game.db",
	}))
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg.DatabaseURL != "sqlite:/tmp/game.db" || cfg.DBHost != "" {
		t.Errorf("Expected URL config, got %+v", cfg)
	}
	if cfg.AccessTTLMin != 15 || cfg.SessionTTLDays != 30 || cfg.BcryptCost != 10 || cfg.Port != "8080" {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
	if !cfg.Dev() {
		t.Error("Expected dev environment by default")
	}
}

func TestFromEnvReportsAllMissing(t *testing.T) {
	_, err := FromEnv(lookupFrom(map[string]string{"ACCESS_TOKEN_TTL_MIN": "soon"}))
	if err == nil {
		t.Fatal("Expected error")
	}
	for _, key := range []string{"JWT_SECRET", "DB_USER", "DB_HOST", "DB_NAME"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("Expected %s in %q", key, err)
		}
	}
}

func TestFromEnvRejectsBadInt(t *testing.T) {
	_, err := FromEnv(lookupFrom(map[string]string{
		"JWT_SECRET": "s", "DATABASE_URL": "sqlite:x.db", "BCRYPT_COST": "high",
	}))
	if err == nil || !strings.Contains(err.Error(), "BCRYPT_COST") {
		t.Errorf("Expected BCRYPT_COST error, got %v", err)
	}
}

func TestRateLimitNormalize(t *testing.T) {
	c := RateLimitConfig{Capacity: 0, RefillTokens: 0, RefillInterval: 0, TTL: time.Second}.normalize()
	if c.Capacity != 1 || c.RefillTokens != 1 || c.RefillInterval != time.Second || c.TTL != 5*time.Second {
		t.Errorf("Unexpected normalized config %+v", c)
	}
}

func TestLoadJanitorConfig(t *testing.T) {
	t.Setenv("JANITOR_ENABLED", "off")
	t.Setenv("JANITOR_SCHEDULE", "@hourly")
	c := LoadJanitorConfig()
	if c.Enabled || c.Schedule != "@hourly" {
		t.Errorf("Unexpected janitor config %+v", c)
	}
}

func TestRedisOptionsFromURL(t *testing.T) {
	opts, err := RedisConfig{URL: "redis://:pw@cache:6380/2", Addr: "ignored:1"}.Options()
	if err != nil {
		t.Fatalf("Options failed: %v", err)
	}
	if opts.Addr != "cache:6380" || opts.DB != 2 || opts.Password != "pw" {
		t.Errorf("Unexpected options %+v", opts)
	}
}
