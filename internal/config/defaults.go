package config

import (
	"time"

	"nowauth/internal/oauth"
	pkgoauth "nowauth/pkg/oauth"
)

// DefaultConfig returns the configuration used when no file or environment
// overrides are present.
func DefaultConfig() NowauthConfig {
	return NowauthConfig{
		CallbackPort:    oauth.DefaultCallbackPort,
		CallbackTimeout: oauth.DefaultCallbackTimeout,
		InstanceDomain:  pkgoauth.DefaultInstanceDomain,
		HTTPTimeout:     oauth.DefaultHTTPTimeout,
		RateLimit: RateLimitConfig{
			MaxRequests: oauth.DefaultRateLimitMax,
			Window:      oauth.DefaultRateLimitWindow,
		},
		LogLevel:    "info",
		LogFormat:   "text",
		OpenBrowser: true,
	}
}

// defaultWindowFloor is the shortest rate limit window accepted from
// configuration.
const defaultWindowFloor = time.Second
