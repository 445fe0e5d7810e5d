package validation

import (
	"errors"
	"fmt"
	"time"
)

// ConfigValidator collects every cross-field violation of one configuration
// section before reporting them together. Each method records at most one
// error and returns the validator for chaining.
type ConfigValidator struct {
	section string
	errs    []error
}

// NewConfigValidator starts a validator whose errors are prefixed by section.
func NewConfigValidator(section string) *ConfigValidator {
	return &ConfigValidator{section: section}
}

func (cv *ConfigValidator) failf(field, format string, args ...any) *ConfigValidator {
	cv.errs = append(cv.errs, fmt.Errorf("%s.%s: "+format, append([]any{cv.section, field}, args...)...))
	return cv
}

// Required rejects an empty string.
func (cv *ConfigValidator) Required(field, value string) *ConfigValidator {
	if value != "" {
		return cv
	}
	return cv.failf(field, "required field is empty")
}

// MinLen rejects strings shorter than n, without echoing the value.
func (cv *ConfigValidator) MinLen(field, value string, n int) *ConfigValidator {
	if len(value) >= n {
		return cv
	}
	return cv.failf(field, "must be at least %d characters", n)
}

// Positive rejects values <= 0.
func (cv *ConfigValidator) Positive(field string, value int) *ConfigValidator {
	if value > 0 {
		return cv
	}
	return cv.failf(field, "value %d must be positive", value)
}

// NonNegative rejects values < 0.
func (cv *ConfigValidator) NonNegative(field string, value int) *ConfigValidator {
	if value >= 0 {
		return cv
	}
	return cv.failf(field, "value %d must be non-negative", value)
}

// MaxInt rejects values above max.
func (cv *ConfigValidator) MaxInt(field string, value, max int) *ConfigValidator {
	if value <= max {
		return cv
	}
	return cv.failf(field, "value %d exceeds maximum %d", value, max)
}

// NonNegativeDuration rejects negative durations.
func (cv *ConfigValidator) NonNegativeDuration(field string, value time.Duration) *ConfigValidator {
	if value >= 0 {
		return cv
	}
	return cv.failf(field, "duration %v must be non-negative", value)
}

// Identifier applies one of the statement identifier checks (ValidateLabel,
// ValidateFieldName, ValidateSpace) to value.
func (cv *ConfigValidator) Identifier(field, value string, check func(string) error) *ConfigValidator {
	if err := check(value); err != nil {
		return cv.failf(field, "%w", err)
	}
	return cv
}

// Custom records the error returned by fn, if any.
func (cv *ConfigValidator) Custom(field string, fn func() error) *ConfigValidator {
	if err := fn(); err != nil {
		return cv.failf(field, "%w", err)
	}
	return cv
}

// When runs validations only if condition holds.
func (cv *ConfigValidator) When(condition bool, validations func(*ConfigValidator)) *ConfigValidator {
	if condition {
		validations(cv)
	}
	return cv
}

// Errors returns the violations recorded so far.
func (cv *ConfigValidator) Errors() []error {
	return cv.errs
}

// Validate returns the recorded violations joined, or nil.
func (cv *ConfigValidator) Validate() error {
	return errors.Join(cv.errs...)
}

// DefaultOr returns value unless it is the zero value.
func DefaultOr[T comparable](value, fallback T) T {
	var zero T
	if value == zero {
		return fallback
	}
	return value
}
