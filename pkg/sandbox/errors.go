package sandbox

import (
	"errors"
	"fmt"
)

// The runner's failure taxonomy. Every error is recoverable at the engine
// level: a failed snippet fails its step and job, never the host process.

// CompileError indicates the snippet does not parse under the selected dialect.
type CompileError struct {
	Err error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error: %v", e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// RuntimeError indicates the executed code raised an exception, was
// interrupted, or exceeded its time budget.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %v", e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

// InvalidResultTypeError indicates the entry point resolved to a value outside
// the supported serializable shapes. The offending Go type is recorded so the
// failure reason names the mismatch.
type InvalidResultTypeError struct {
	Type string
}

func (e *InvalidResultTypeError) Error() string {
	return fmt.Sprintf("invalid result type: entry point produced unsupported value of type %s", e.Type)
}

// NetworkPolicyError indicates a blocked outbound URL.
type NetworkPolicyError struct {
	URL    string
	Reason string
}

func (e *NetworkPolicyError) Error() string {
	return fmt.Sprintf("network policy violation: %s: %s", e.URL, e.Reason)
}

func IsCompileError(err error) bool {
	var target *CompileError

	return errors.As(err, &target)
}

func IsRuntimeError(err error) bool {
	var target *RuntimeError

	return errors.As(err, &target)
}

func IsInvalidResultType(err error) bool {
	var target *InvalidResultTypeError

	return errors.As(err, &target)
}

func IsNetworkPolicyViolation(err error) bool {
	var target *NetworkPolicyError

	return errors.As(err, &target)
}
