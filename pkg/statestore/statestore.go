// Package statestore provides namespaced key-value persistence that survives
// across workflow runs. Scheduled workflows use it for memory between
// invocations ("only notify when the price crossed the threshold since last
// run"). All operations are namespace-scoped; nothing enumerates across
// namespaces. Mutations are last-writer-wins per key — workflows needing
// check-and-set discipline across concurrent runs encode it themselves with
// the read-then-write pattern.
package statestore

import (
	"context"
	"errors"
	"fmt"
)

// ErrKeyNotFound indicates the key is absent in its namespace.
var ErrKeyNotFound = errors.New("state key not found")

// Store is implemented twice with identical contracts: a durable Redis
// backing store for production and an in-memory store for tests.
type Store interface {
	Get(ctx context.Context, namespace, key string) (any, error)
	Set(ctx context.Context, namespace, key string, value any) error
	Delete(ctx context.Context, namespace, key string) error
	Clear(ctx context.Context, namespace string) error
	GetAll(ctx context.Context, namespace string) (map[string]any, error)
}

// IsKeyNotFound checks if an error indicates an absent key.
func IsKeyNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}

// Namespace derives the store namespace from the owning user and workflow
// identity. State is shared only within one namespace.
func Namespace(userID, workflowID string) string {
	return fmt.Sprintf("users/%s/workflows/%s", userID, workflowID)
}

type namespaceContextKey struct{}

// WithNamespace scopes every state operation under ctx to the namespace of
// the running job. Set by the job controller so steps can never reach outside
// their own user/workflow identity.
func WithNamespace(ctx context.Context, namespace string) context.Context {
	return context.WithValue(ctx, namespaceContextKey{}, namespace)
}

// NamespaceFromContext returns the namespace the current run is scoped to.
func NamespaceFromContext(ctx context.Context) (string, bool) {
	namespace, ok := ctx.Value(namespaceContextKey{}).(string)

	return namespace, ok
}
