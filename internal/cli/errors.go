package cli

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingInput means no chat file was given.
	ErrMissingInput = errors.New("File must be used as first parameter.") //nolint:staticcheck
	// ErrUnreadableInput matches any *ReadError.
	ErrUnreadableInput = errors.New("chat file could not be read")
	// ErrUnwritableOutput matches any *WriteError.
	ErrUnwritableOutput = errors.New("subtitle file could not be written")
	// ErrHistoryUnavailable means the history store is disabled or could
	// not be opened.
	ErrHistoryUnavailable = errors.New("conversion history is not available")
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// ReadError reports a chat file that could not be read.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("ERROR: chat file %s could not be read", e.Path)
}

func (e *ReadError) Unwrap() error { return e.Err }

func (e *ReadError) Is(target error) bool { return target == ErrUnreadableInput }

// WriteError reports a subtitle file that could not be written.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("ERROR: subtitle file %s could not be written", e.Path)
}

func (e *WriteError) Unwrap() error { return e.Err }

func (e *WriteError) Is(target error) bool { return target == ErrUnwritableOutput }

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, ErrMissingInput):
		return exitUsage
	default:
		return exitError
	}
}
