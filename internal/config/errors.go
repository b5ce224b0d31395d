package config

import (
	"errors"
	"fmt"
)

// ErrorCode classifies configuration failures.
type ErrorCode string

const (
	// CodeParse: the file could not be read or is not valid TOML.
	CodeParse ErrorCode = "CONFIG_PARSE"

	// CodeUnknownKey: the file sets a key durlin does not know.
	CodeUnknownKey ErrorCode = "CONFIG_UNKNOWN_KEY"

	// CodeInvalid: a value is out of range.
	CodeInvalid ErrorCode = "CONFIG_INVALID"
)

// ConfigError reports a configuration that cannot be used.
type ConfigError struct {
	Code    ErrorCode
	Path    string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Path, e.Message)
}

// IsConfigError reports whether err wraps a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func invalidf(format string, args ...any) *ConfigError {
	return &ConfigError{Code: CodeInvalid, Message: fmt.Sprintf(format, args...)}
}
