package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"nowauth/pkg/logging"
)

const (
	userConfigDir  = ".config/nowauth"
	configFileName = "config.yaml"
	envFileName    = ".env"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "NOWAUTH_"
)

// Environment variables read by LoadConfig.
const (
	EnvCallbackPort    = EnvPrefix + "CALLBACK_PORT"
	EnvCallbackTimeout = EnvPrefix + "CALLBACK_TIMEOUT"
	EnvCredentialsFile = EnvPrefix + "CREDENTIALS_FILE"
	EnvInstanceDomain  = EnvPrefix + "INSTANCE_DOMAIN"
	EnvHTTPTimeout     = EnvPrefix + "HTTP_TIMEOUT"
	EnvRateLimitMax    = EnvPrefix + "RATE_LIMIT_MAX"
	EnvRateLimitWindow = EnvPrefix + "RATE_LIMIT_WINDOW"
	EnvLogLevel        = EnvPrefix + "LOG_LEVEL"
	EnvLogFormat       = EnvPrefix + "LOG_FORMAT"
	EnvOpenBrowser     = EnvPrefix + "OPEN_BROWSER"

	// Login defaults, read by the auth commands.
	EnvInstance     = EnvPrefix + "INSTANCE"
	EnvClientID     = EnvPrefix + "CLIENT_ID"
	EnvClientSecret = EnvPrefix + "CLIENT_SECRET"
)

// DefaultConfigPath returns $XDG_CONFIG_HOME/nowauth, falling back to
// ~/.config/nowauth.
func DefaultConfigPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "nowauth"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// LoadConfig loads configuration from configPath.
//
// Sources, later ones winning: built-in defaults, config.yaml, then NOWAUTH_*
// environment variables. A .env file in configPath is loaded into the
// environment first without overriding variables that are already set.
// Missing files are not an error; a malformed one is.
func LoadConfig(configPath string) (NowauthConfig, error) {
	config := DefaultConfig()

	envFilePath := filepath.Join(configPath, envFileName)
	if _, err := os.Stat(envFilePath); err == nil {
		if err := godotenv.Load(envFilePath); err != nil {
			return NowauthConfig{}, ConfigurationError{
				FilePath:  envFilePath,
				FileName:  envFileName,
				ErrorType: "parse",
				Message:   err.Error(),
			}
		}
		logging.Debug("ConfigLoader", "Loaded environment from %s", envFilePath)
	}

	configFilePath := filepath.Join(configPath, configFileName)
	data, err := os.ReadFile(configFilePath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return NowauthConfig{}, ConfigurationError{
				FilePath:  configFilePath,
				FileName:  configFileName,
				ErrorType: "parse",
				Message:   err.Error(),
			}
		}
		logging.Debug("ConfigLoader", "Loaded configuration from %s", configFilePath)
	case errors.Is(err, os.ErrNotExist):
		logging.Debug("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
	default:
		return NowauthConfig{}, ConfigurationError{
			FilePath:  configFilePath,
			FileName:  configFileName,
			ErrorType: "io",
			Message:   err.Error(),
		}
	}

	if err := applyEnv(&config); err != nil {
		return NowauthConfig{}, err
	}

	if err := config.Validate(); err != nil {
		return NowauthConfig{}, err
	}

	return config, nil
}

// applyEnv overrides config fields from NOWAUTH_* variables.
func applyEnv(config *NowauthConfig) error {
	var errs ValidationErrors

	if v, ok := os.LookupEnv(EnvCallbackPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs.Add(EnvCallbackPort, "must be an integer", v)
		} else {
			config.CallbackPort = port
		}
	}
	if v, ok := os.LookupEnv(EnvCallbackTimeout); ok {
		if d, err := time.ParseDuration(v); err != nil {
			errs.Add(EnvCallbackTimeout, "must be a duration such as 5m", v)
		} else {
			config.CallbackTimeout = d
		}
	}
	if v, ok := os.LookupEnv(EnvCredentialsFile); ok {
		config.CredentialsFile = v
	}
	if v, ok := os.LookupEnv(EnvInstanceDomain); ok {
		config.InstanceDomain = v
	}
	if v, ok := os.LookupEnv(EnvHTTPTimeout); ok {
		if d, err := time.ParseDuration(v); err != nil {
			errs.Add(EnvHTTPTimeout, "must be a duration such as 30s", v)
		} else {
			config.HTTPTimeout = d
		}
	}
	if v, ok := os.LookupEnv(EnvRateLimitMax); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs.Add(EnvRateLimitMax, "must be an integer", v)
		} else {
			config.RateLimit.MaxRequests = n
		}
	}
	if v, ok := os.LookupEnv(EnvRateLimitWindow); ok {
		if d, err := time.ParseDuration(v); err != nil {
			errs.Add(EnvRateLimitWindow, "must be a duration such as 60s", v)
		} else {
			config.RateLimit.Window = d
		}
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		config.LogLevel = v
	}
	if v, ok := os.LookupEnv(EnvLogFormat); ok {
		config.LogFormat = v
	}
	if v, ok := os.LookupEnv(EnvOpenBrowser); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs.Add(EnvOpenBrowser, "must be true or false", v)
		} else {
			config.OpenBrowser = b
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
