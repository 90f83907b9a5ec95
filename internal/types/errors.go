package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrMissingSecrets = errors.New("missing secrets")
	ErrClientInit     = errors.New("client initialization failed")
	ErrOperation      = errors.New("backend operation failed")
	ErrInvalidRecord  = errors.New("invalid record")
	ErrUnknownBackend = errors.New("unknown backend")
)

func Err(typedError error, innerErr error, msgTemplate string, args ...any) error {
	if msgTemplate == "" {
		return errors.Join(typedError, innerErr)
	} else {
		return errors.Join(typedError, innerErr, fmt.Errorf(msgTemplate, args...))
	}
}

// ConfigurationError lists the required secrets a backend could not find.
// Missing keeps the order in which the names were required.
type ConfigurationError struct {
	Backend string
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing %s secrets: %s", e.Backend, strings.Join(e.Missing, ", "))
}

func (e *ConfigurationError) Unwrap() error {
	return ErrMissingSecrets
}
