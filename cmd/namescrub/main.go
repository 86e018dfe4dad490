package main

import (
	"fmt"
	"io"
	"os"

	"namescrub/internal/errors"
)

var (
	version = "dev"
)

// Entry point for the application
func main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(report(os.Stderr, err))
	}
}

// reportedError marks a failure whose message was already printed.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }

// report prints err for the user and returns the exit status. Configuration
// problems exit 2, everything else 1.
func report(w io.Writer, err error) int {
	var reported *reportedError
	switch {
	case errors.As(err, &reported):
		return 1
	case errors.IsListFailed(err):
		fmt.Fprintf(w, "Failed to read directory: %v\n", err)
		return 1
	case errors.IsInvalidConfig(err):
		fmt.Fprintf(w, "Invalid configuration: %v\n", err)
		return 2
	default:
		fmt.Fprintln(w, "Error:", err)
		return 1
	}
}
