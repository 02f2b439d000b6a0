package criteria

import (
	"errors"
	"fmt"
)

// ErrConfiguration is wrapped by every ConfigurationError so callers can
// test with errors.Is without knowing the concrete field.
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError reports a fatal problem with the analysis setup: a
// criterion naming a missing column, a malformed threshold tuple, a bad
// criterion field.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// Configf builds a ConfigurationError with a formatted reason.
func Configf(field, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
