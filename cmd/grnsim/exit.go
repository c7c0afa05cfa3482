package main

import (
	"errors"
	"fmt"

	"github.com/san-kum/grnsim/internal/gillespie"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0   // Successful execution
	ExitFailure      = 1   // Simulation aborted on a contract violation or runtime error
	ExitCommandError = 2   // Bad flags, configuration or network files, unknown runs
	ExitInterrupted  = 130 // Run canceled by an interrupt; the partial run is kept
)

// ExitError carries the exit code a command should end with.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Contract violations that
// were not wrapped still map to ExitFailure; anything else is a command error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if gillespie.IsContractViolation(err) {
		return ExitFailure
	}
	return ExitCommandError
}
