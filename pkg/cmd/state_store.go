package cmd

import (
	"fmt"

	redisclient "github.com/redis/go-redis/v9"

	"github.com/striderun/stride/pkg/statestore"
	"github.com/striderun/stride/pkg/statestore/memory"
	"github.com/striderun/stride/pkg/statestore/redis"
)

// NewStateStore selects the state store backend. A Redis URL gets the durable
// store; an empty URL falls back to the in-memory store, which does not
// survive restarts.
func NewStateStore(redisURL string) statestore.Store {
	if redisURL == "" {
		return memory.NewStore()
	}

	options, err := redisclient.ParseURL(redisURL)
	if err != nil {
		panic(fmt.Errorf("failed to parse Redis URL: %w", err))
	}

	return redis.NewStore(redisclient.NewClient(options))
}
