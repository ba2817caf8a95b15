// Package usercontext resolves the per-user data a job's workflow executes
// against: profile values and other seed inputs.
package usercontext

import (
	"context"
	"sync"
)

// Provider resolves the initial execution inputs for one user. A user with no
// stored context resolves to an empty scope, not an error.
type Provider interface {
	UserContext(ctx context.Context, userID string) (map[string]any, error)
}

// StaticProvider serves contexts from an in-memory map. Suitable for tests
// and single-tenant deployments.
type StaticProvider struct {
	mu       sync.RWMutex
	contexts map[string]map[string]any
}

func NewStaticProvider() *StaticProvider {
	return &StaticProvider{contexts: make(map[string]map[string]any)}
}

func (p *StaticProvider) SetUserContext(userID string, values map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.contexts[userID] = values
}

func (p *StaticProvider) UserContext(_ context.Context, userID string) (map[string]any, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	values, ok := p.contexts[userID]
	if !ok {
		// A user without stored context still gets an empty scope.
		return map[string]any{}, nil
	}

	out := make(map[string]any, len(values))
	for key, value := range values {
		out[key] = value
	}

	return out, nil
}

var _ Provider = (*StaticProvider)(nil)
