package network

import (
	"errors"
	"fmt"
)

// ErrConfig marks every problem found while loading a network description.
var ErrConfig = errors.New("network: configuration error")

// ConfigError describes a malformed or inconsistent network description.
type ConfigError struct {
	File   string
	Detail string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := ErrConfig.Error()
	if e.File != "" {
		msg += " in " + e.File
	}
	msg += ": " + e.Detail
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConfig}
	}
	return []error{ErrConfig, e.Err}
}

func configErrorf(file string, err error, format string, args ...any) *ConfigError {
	return &ConfigError{File: file, Detail: fmt.Sprintf(format, args...), Err: err}
}
