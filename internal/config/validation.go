package config

import (
	"fmt"
	"strings"

	"nowauth/pkg/logging"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// ValidateOneOf checks if a value is in a list of allowed values
func ValidateOneOf(field, value string, allowed []string) error {
	for _, allowedValue := range allowed {
		if value == allowedValue {
			return nil
		}
	}
	return ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// Validate checks every field and returns all problems at once.
func (c NowauthConfig) Validate() error {
	var errs ValidationErrors

	if c.CallbackPort < 1 || c.CallbackPort > 65535 {
		errs.Add("callbackPort", "must be between 1 and 65535", c.CallbackPort)
	}
	if c.CallbackTimeout <= 0 {
		errs.Add("callbackTimeout", "must be positive", c.CallbackTimeout)
	}
	if c.HTTPTimeout <= 0 {
		errs.Add("httpTimeout", "must be positive", c.HTTPTimeout)
	}
	if strings.TrimSpace(c.InstanceDomain) == "" {
		errs.Add("instanceDomain", "is required")
	}
	if c.RateLimit.MaxRequests < 1 {
		errs.Add("rateLimit.maxRequests", "must be at least 1", c.RateLimit.MaxRequests)
	}
	if c.RateLimit.Window < defaultWindowFloor {
		errs.Add("rateLimit.window", fmt.Sprintf("must be at least %s", defaultWindowFloor), c.RateLimit.Window)
	}
	if _, ok := logging.ParseLevel(c.LogLevel); !ok {
		errs.Add("logLevel", "must be one of: debug, info, warn, error", c.LogLevel)
	}
	if err := ValidateOneOf("logFormat", c.LogFormat, []string{string(logging.FormatText), string(logging.FormatJSON)}); err != nil {
		errs = append(errs, err.(ValidationError))
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
