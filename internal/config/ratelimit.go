package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// RateLimitConfig sizes the token buckets.  The general bucket guards the
// logged-in pages; the login bucket is a stricter per-IP bucket in front
// of POST /login and POST /register.
type RateLimitConfig struct {
	Enabled        bool          `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	Capacity       int           `envconfig:"RATE_LIMIT_CAPACITY" default:"60"`
	RefillTokens   int           `envconfig:"RATE_LIMIT_REFILL_TOKENS" default:"1"`
	RefillInterval time.Duration `envconfig:"RATE_LIMIT_REFILL_INTERVAL" default:"1s"`
	TTL            time.Duration `envconfig:"RATE_LIMIT_TTL" default:"10m"`
	KeyStrategy    string        `envconfig:"RATE_LIMIT_KEY_STRATEGY" default:"ip_user_route"`
	Prefix         string        `envconfig:"RATE_LIMIT_PREFIX" default:"rl"`
	Debug          bool          `envconfig:"RATE_LIMIT_DEBUG" default:"false"`

	LoginCapacity       int           `envconfig:"RATE_LIMIT_LOGIN_CAPACITY" default:"10"`
	LoginRefillInterval time.Duration `envconfig:"RATE_LIMIT_LOGIN_REFILL_INTERVAL" default:"30s"`
}

func LoadRateLimitConfig() (RateLimitConfig, error) {
	var def RateLimitConfig
	if err := envconfig.Process("", &def); err != nil {
		return RateLimitConfig{}, err
	}
	return def.normalize(), nil
}

// ForLogin derives the login bucket: keyed by client IP and route under
// its own prefix.
func (def RateLimitConfig) ForLogin() RateLimitConfig {
	def.Capacity = def.LoginCapacity
	def.RefillTokens = 1
	def.RefillInterval = def.LoginRefillInterval
	def.KeyStrategy = "ip_route"
	def.Prefix += ":login"
	def.TTL = 0
	return def.normalize()
}

func (def RateLimitConfig) normalize() RateLimitConfig {
	if def.Capacity < 1 {
		def.Capacity = 1
	}
	if def.RefillTokens < 1 {
		def.RefillTokens = 1
	}
	if def.RefillInterval <= 0 {
		def.RefillInterval = time.Second
	}
	if minTTL := 5 * def.RefillInterval; def.TTL < minTTL {
		def.TTL = minTTL
	}
	return def
}
