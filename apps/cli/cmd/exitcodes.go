package cmd

import (
	"errors"

	"github.com/abdul-hamid-achik/connect/packages/core/config"
	connecthttp "github.com/abdul-hamid-achik/connect/packages/http"
)

// Exit codes for the connect CLI
const (
	// ExitSuccess indicates the call succeeded
	ExitSuccess = 0

	// ExitStatusFailure indicates a non-2xx response or a failed response check
	ExitStatusFailure = 1

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries the process exit code for an error that was already reported.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// exitCodeFor maps a call failure to its exit code. Status failures and
// failed response checks exit with ExitStatusFailure.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, config.ErrInvalid):
		return ExitConfigError
	case errors.Is(err, connecthttp.ErrTransport), errors.Is(err, connecthttp.ErrConnectionFailure):
		return ExitNetworkError
	}
	return ExitStatusFailure
}

// exitCode returns the exit code for an error returned by the root command.
// Errors that carry no code come from cobra itself: bad flags or arguments.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitUsageError
}
