package funcmon

import "fmt"

// ConfigError represents an invalid monitor configuration, such as an
// unparsable environment variable or a log directory that cannot be created.
// It indicates that the monitor cannot be applied as configured; it is the
// only error class that propagates out of this package as a hard failure.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// UnknownKeyError reports an unrecognized key passed to Config.Update or
// ConfigureFields. The update that produced it is rejected as a whole.
type UnknownKeyError struct {
	// Key is the configuration key that was not recognized.
	Key string
}

// Error returns a formatted message naming the offending key.
func (e UnknownKeyError) Error() string {
	return fmt.Sprintf("unknown configuration key: %q", e.Key)
}
