package config

import "time"

// RateLimitConfig controls the token-bucket limiter on the reservation
// endpoint.  The limiter is keyed per client IP so a single buyer cannot
// drain a product's stock with a burst of reservation attempts.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

// LoadRateLimitConfig reads environment variables to build a
// RateLimitConfig.  Defaults allow short bursts with a steady refill.
func LoadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:        getenv("RATE_LIMIT_ENABLED", "true") == "true",
		Capacity:       atoi(getenv("RATE_LIMIT_CAPACITY", "10")),
		RefillTokens:   atoi(getenv("RATE_LIMIT_REFILL_TOKENS", "5")),
		RefillInterval: parseDur(getenv("RATE_LIMIT_REFILL_INTERVAL", "1s")),
		TTL:            parseDur(getenv("RATE_LIMIT_TTL", "10m")),
		Prefix:         getenv("RATE_LIMIT_PREFIX", "ratelimit"),
	}
}
