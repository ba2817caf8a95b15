// Package statetool exposes the state store to workflow steps as a tool.
// Scheduled workflows use it to remember values between runs, e.g. the last
// seen price. The namespace is taken from the invocation context, so a step
// can only touch state belonging to its own user and workflow.
package statetool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/striderun/stride/pkg/statestore"
)

const ToolID = "state"

// ErrNamespaceNotResolved indicates the invocation context carries no state
// namespace. State operations only make sense inside a job run.
var ErrNamespaceNotResolved = errors.New("state namespace not resolved")

type Tool struct {
	store  statestore.Store
	logger *slog.Logger
}

func NewTool(store statestore.Store, logger *slog.Logger) *Tool {
	return &Tool{
		store:  store,
		logger: logger.With("module", "state_tool"),
	}
}

func (t *Tool) ID() string { return ToolID }

func (t *Tool) Invoke(ctx context.Context, args map[string]any) (any, error) {
	namespace, ok := statestore.NamespaceFromContext(ctx)
	if !ok {
		return nil, ErrNamespaceNotResolved
	}

	operation, _ := args["operation"].(string)

	switch operation {
	case "get":
		return t.get(ctx, namespace, args)
	case "set":
		return t.set(ctx, namespace, args)
	case "delete":
		return t.delete(ctx, namespace, args)
	case "clear":
		return t.clear(ctx, namespace)
	case "get_all":
		return t.getAll(ctx, namespace)
	default:
		return nil, fmt.Errorf("unsupported state operation: %q", operation)
	}
}

func (t *Tool) get(ctx context.Context, namespace string, args map[string]any) (any, error) {
	key, err := requireKey(args)
	if err != nil {
		return nil, err
	}

	value, err := t.store.Get(ctx, namespace, key)
	if statestore.IsKeyNotFound(err) {
		// Absent keys are an expected first-run condition, not a failure.
		return map[string]any{"found": false, "value": nil}, nil
	}

	if err != nil {
		return nil, err
	}

	return map[string]any{"found": true, "value": value}, nil
}

func (t *Tool) set(ctx context.Context, namespace string, args map[string]any) (any, error) {
	key, err := requireKey(args)
	if err != nil {
		return nil, err
	}

	if err := t.store.Set(ctx, namespace, key, args["value"]); err != nil {
		return nil, err
	}

	t.logger.DebugContext(ctx, "State written", "namespace", namespace, "key", key)

	return map[string]any{"key": key, "value": args["value"]}, nil
}

func (t *Tool) delete(ctx context.Context, namespace string, args map[string]any) (any, error) {
	key, err := requireKey(args)
	if err != nil {
		return nil, err
	}

	if err := t.store.Delete(ctx, namespace, key); err != nil {
		return nil, err
	}

	return map[string]any{"deleted": true, "key": key}, nil
}

func (t *Tool) clear(ctx context.Context, namespace string) (any, error) {
	if err := t.store.Clear(ctx, namespace); err != nil {
		return nil, err
	}

	return map[string]any{"cleared": true}, nil
}

func (t *Tool) getAll(ctx context.Context, namespace string) (any, error) {
	entries, err := t.store.GetAll(ctx, namespace)
	if err != nil {
		return nil, err
	}

	return map[string]any{"entries": entries}, nil
}

func requireKey(args map[string]any) (string, error) {
	key, _ := args["key"].(string)
	if key == "" {
		return "", errors.New("state operation requires a key")
	}

	return key, nil
}
