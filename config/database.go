package config

import (
	"strings"
	"time"
)

// RedisConfig contains Redis configuration for the notification claim store.
// Redis is optional; without it the NotifiedAt column is the only duplicate guard.
type RedisConfig struct {
	Enabled  bool          `env:"ENABLED"   envDefault:"false"`
	URI      string        `env:"URI"       envDefault:"localhost:6379"`
	Password string        `env:"PASSWORD"  envDefault:""`
	DB       int           `env:"DB"        envDefault:"0"`
	ClaimTTL time.Duration `env:"CLAIM_TTL" envDefault:"24h"`
	Prefix   string        `env:"PREFIX"    envDefault:"fetchbot:notified:"`
}

// Sanitize applies guardrails to Redis configuration values.
func (r *RedisConfig) Sanitize() {
	r.URI = strings.TrimSpace(r.URI)
	if r.URI == "" {
		r.Enabled = false
	}
	if r.ClaimTTL <= 0 {
		r.ClaimTTL = 24 * time.Hour
	}
	if r.DB < 0 {
		r.DB = 0
	}
	if strings.TrimSpace(r.Prefix) == "" {
		r.Prefix = "fetchbot:notified:"
	}
}
