package config

import "time"

// NowauthConfig is the top-level configuration structure for nowauth.
type NowauthConfig struct {
	// CallbackPort is the loopback port of the OAuth callback listener. It
	// must match the redirect URI registered with the instance.
	CallbackPort int `yaml:"callbackPort,omitempty"`

	// CallbackTimeout bounds the wait for the browser redirect.
	CallbackTimeout time.Duration `yaml:"callbackTimeout,omitempty"`

	// CredentialsFile overrides the credential store location.
	// Empty means $XDG_CONFIG_HOME/nowauth/auth.json.
	CredentialsFile string `yaml:"credentialsFile,omitempty"`

	// InstanceDomain is appended to bare instance names.
	InstanceDomain string `yaml:"instanceDomain,omitempty"`

	// HTTPTimeout bounds each token endpoint request.
	HTTPTimeout time.Duration `yaml:"httpTimeout,omitempty"`

	RateLimit RateLimitConfig `yaml:"rateLimit,omitempty"`

	LogLevel  string `yaml:"logLevel,omitempty"`
	LogFormat string `yaml:"logFormat,omitempty"`

	// OpenBrowser controls whether login launches the system browser.
	OpenBrowser bool `yaml:"openBrowser"`
}

// RateLimitConfig bounds token endpoint calls per process.
type RateLimitConfig struct {
	MaxRequests int           `yaml:"maxRequests,omitempty"`
	Window      time.Duration `yaml:"window,omitempty"`
}
