package main

import "fmt"

// exitError carries a specific process exit code alongside its message, so
// RunE handlers can distinguish a verdict-driven exit(1) (§6) from an
// ordinary operational error (also exit 1, but without a diagnostic
// already printed to stdout/stderr by the command itself).
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func exitWithCode(code int, format string, args ...any) error {
	return &exitError{code: code, err: fmt.Errorf(format, args...)}
}

func exitCodeFor(err error) int {
	if ee, ok := err.(*exitError); ok {
		return ee.code
	}
	return 1
}
