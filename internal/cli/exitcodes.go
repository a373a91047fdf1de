package cli

import (
	stderrors "errors"

	"github.com/kbukum/apicall/errors"
)

// Exit codes of the apicall command.
const (
	ExitSuccess = 0

	// ExitHTTPError means the call completed with a non-2xx status.
	ExitHTTPError = 1

	// ExitParseError means the response body could not be decoded.
	ExitParseError = 2

	ExitConfigError = 3

	// ExitNetworkError covers transport failures and timeouts.
	ExitNetworkError = 4

	ExitUsageError = 64
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withExit(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ee *exitError
	if stderrors.As(err, &ee) {
		return ee.code
	}
	switch {
	case errors.IsStatus(err):
		return ExitHTTPError
	case errors.IsParse(err):
		return ExitParseError
	case errors.IsTransport(err), errors.IsTimeout(err):
		return ExitNetworkError
	case errors.IsValidation(err), errors.IsEncode(err):
		return ExitUsageError
	}
	return ExitHTTPError
}
