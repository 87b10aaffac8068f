package cmd

import (
	"errors"

	"github.com/pyproject-tools/pybuild/pkg/buildsys"
)

// Exit codes of the pybuild command.
const (
	ExitOK                  = 0
	ExitError               = 1
	ExitMalformed           = 2
	ExitMissingRequires     = 3
	ExitInvalidBackendPath  = 4
	ExitBackendPathNotFound = 5
	ExitPolicy              = 6
	ExitDrift               = 7
)

// exitError carries an exit code. A nil err means the command already
// reported the problem.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func withCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// ExitCode returns the process exit code for an error returned by a command.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return kindCode(buildsys.Kind(err))
}

func kindCode(kind string) int {
	switch kind {
	case buildsys.KindMalformed:
		return ExitMalformed
	case buildsys.KindMissingRequires:
		return ExitMissingRequires
	case buildsys.KindInvalidBackendPath:
		return ExitInvalidBackendPath
	case buildsys.KindBackendPathNotFound:
		return ExitBackendPathNotFound
	default:
		return ExitError
	}
}
