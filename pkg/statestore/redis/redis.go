// Package redis provides the durable Redis-backed state store. Each namespace
// maps to one Redis hash, so Clear is a single key deletion and GetAll never
// scans beyond its namespace.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"github.com/striderun/stride/pkg/statestore"
)

const keyPrefix = "stride:state:"

type Store struct {
	client redis.UniversalClient
}

func NewStore(client redis.UniversalClient) *Store {
	return &Store{client: client}
}

func namespaceKey(namespace string) string {
	return keyPrefix + namespace
}

func (s *Store) Get(ctx context.Context, namespace, key string) (any, error) {
	raw, err := s.client.HGet(ctx, namespaceKey(namespace), key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, statestore.ErrKeyNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read state %s/%s: %w", namespace, key, err)
	}

	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, fmt.Errorf("failed to decode state %s/%s: %w", namespace, key, err)
	}

	return value, nil
}

func (s *Store) Set(ctx context.Context, namespace, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode state %s/%s: %w", namespace, key, err)
	}

	err = s.client.HSet(ctx, namespaceKey(namespace), key, string(raw)).Err()
	if err != nil {
		return fmt.Errorf("failed to write state %s/%s: %w", namespace, key, err)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, namespace, key string) error {
	err := s.client.HDel(ctx, namespaceKey(namespace), key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete state %s/%s: %w", namespace, key, err)
	}

	return nil
}

func (s *Store) Clear(ctx context.Context, namespace string) error {
	err := s.client.Del(ctx, namespaceKey(namespace)).Err()
	if err != nil {
		return fmt.Errorf("failed to clear state namespace %s: %w", namespace, err)
	}

	return nil
}

func (s *Store) GetAll(ctx context.Context, namespace string) (map[string]any, error) {
	entries, err := s.client.HGetAll(ctx, namespaceKey(namespace)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read state namespace %s: %w", namespace, err)
	}

	out := make(map[string]any, len(entries))

	for key, raw := range entries {
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			return nil, fmt.Errorf("failed to decode state %s/%s: %w", namespace, key, err)
		}

		out[key] = value
	}

	return out, nil
}

var _ statestore.Store = (*Store)(nil)
