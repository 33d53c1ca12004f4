package dbcontext

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument is returned when a required value is empty or out of range.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidFormat is returned when a connection string cannot be parsed by the dialect grammar.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrConstruction is returned when no constructor is registered for a context type,
	// or the registered constructor fails.
	ErrConstruction = errors.New("context construction failed")

	// ErrUnsupportedMethod is returned when no translator in a provider recognizes a method call.
	ErrUnsupportedMethod = errors.New("unsupported method call")
)

// NotEmpty returns ErrInvalidArgument if value is empty or only whitespace.
func NotEmpty(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidArgument, name)
	}
	return nil
}
