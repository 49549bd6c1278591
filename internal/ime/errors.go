package ime

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by operations on a session after Close.
var ErrClosed = errors.New("ime: session closed")

// ConfigError reports a configuration that could not be turned into an
// engine. Installation fails as a whole; no listener stays registered.
type ConfigError struct {
	// Stage is "parse" for malformed documents and "engine" when the
	// engine rejected a valid document (unknown layout).
	Stage string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("ime: invalid config (%s): %v", e.Stage, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
