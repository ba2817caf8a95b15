// Package tools provides a uniform interface for invoking named external
// capabilities from workflow steps, with a live dispatcher and a recording
// test double. Tool invocations may have irreversible external effects
// (sending a notification); nothing in this package retries them.
package tools

import (
	"context"
	"errors"
	"fmt"
)

// Tool is a named external capability, e.g. a messaging integration.
type Tool interface {
	// ID returns the unique name the tool is invoked under.
	ID() string

	// Invoke performs the call with fully resolved arguments.
	Invoke(ctx context.Context, args map[string]any) (any, error)
}

// Invoker dispatches a tool call by name. The engine depends on this
// interface only, so tests swap in the recording implementation.
type Invoker interface {
	Invoke(ctx context.Context, toolName string, args map[string]any) (any, error)
}

// ErrToolNotRegistered indicates no tool exists under the requested name.
var ErrToolNotRegistered = errors.New("tool not registered")

// Error wraps a failure from an external tool call.
type Error struct {
	Tool string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("tool %s: %v", e.Tool, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsToolError checks if an error came from an external tool call.
func IsToolError(err error) bool {
	var target *Error

	return errors.As(err, &target)
}
