// Package redis implements the claim store on a Redis-compatible cache.
// Claims are stored as JSON documents under a key prefix; a set per refresh
// token acts as the secondary index the forced-logout query needs. Key
// expiry is derived from the claim's ttl attribute so the backend purges
// dead claims on its own.
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aqveir/go-saas/auth"
)

const (
	claimKeyPrefix   = "claim:"
	refreshKeyPrefix = "claim_refresh:"
)

// Store is a ClaimStore over a go-redis client.
type Store struct {
	client *redis.Client
	logger auth.Logger
}

var _ auth.ClaimStore = (*Store)(nil)

// Option configures the store.
type Option func(*Store)

// WithLogger sets the logger the store reports index maintenance through.
func WithLogger(logger auth.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New wraps an existing client.
func New(client *redis.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		logger: auth.DefaultLogger(),
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// NewFromOptions dials Redis with the given address, password, and database.
func NewFromOptions(addr, password string, db int, opts ...Option) *Store {
	return New(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), opts...)
}

// Set upserts the claim document and indexes it under its refresh token.
func (s *Store) Set(ctx context.Context, item map[string]any) error {
	key, _ := item[auth.ClaimKeyAttribute].(string)
	if key == "" {
		return auth.NewError(auth.KindStorage, "item has no key attribute")
	}

	raw, err := json.Marshal(item)
	if err != nil {
		return auth.NewStorageError(err)
	}

	if err := s.client.Set(ctx, claimKeyPrefix+key, raw, expiryOf(item)).Err(); err != nil {
		return auth.NewStorageError(err)
	}

	if rt, _ := item[auth.ClaimRefreshTokenAttribute].(string); rt != "" {
		if err := s.client.SAdd(ctx, refreshKeyPrefix+rt, key).Err(); err != nil {
			return auth.NewStorageError(err)
		}
	}

	return nil
}

// Get returns the claim document, or nil when absent or already expired out
// of the cache.
func (s *Store) Get(ctx context.Context, key string) (map[string]any, error) {
	raw, err := s.client.Get(ctx, claimKeyPrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, auth.NewStorageError(err)
	}

	var item map[string]any
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, auth.NewStorageError(err)
	}

	return item, nil
}

// Query supports the refresh_token equality lookup via the index set. Index
// members whose documents have expired are skipped and pruned.
func (s *Store) Query(ctx context.Context, filter map[string]string) ([]map[string]any, error) {
	rt, ok := filter[auth.ClaimRefreshTokenAttribute]
	if !ok || rt == "" {
		return nil, auth.NewError(auth.KindStorage, "unsupported query attribute")
	}

	keys, err := s.client.SMembers(ctx, refreshKeyPrefix+rt).Result()
	if err != nil {
		return nil, auth.NewStorageError(err)
	}

	items := []map[string]any{}
	for _, key := range keys {
		item, err := s.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if item == nil {
			if err := s.client.SRem(ctx, refreshKeyPrefix+rt, key).Err(); err != nil {
				s.logger.Warn("failed to prune %s from refresh index %s: %v", key, rt, err)
			}
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

// Delete removes the claim document and its index entry. Absent keys are not
// an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	item, err := s.Get(ctx, key)
	if err != nil {
		return err
	}

	if item != nil {
		if rt, _ := item[auth.ClaimRefreshTokenAttribute].(string); rt != "" {
			if err := s.client.SRem(ctx, refreshKeyPrefix+rt, key).Err(); err != nil {
				return auth.NewStorageError(err)
			}
		}
	}

	if err := s.client.Del(ctx, claimKeyPrefix+key).Err(); err != nil {
		return auth.NewStorageError(err)
	}

	return nil
}

// expiryOf derives the Redis key TTL from the claim's ttl attribute. Claims
// without one never expire here.
func expiryOf(item map[string]any) time.Duration {
	var until time.Duration
	switch ttl := item[auth.ClaimTTLAttribute].(type) {
	case int64:
		until = time.Until(time.Unix(ttl, 0))
	case float64:
		until = time.Until(time.Unix(int64(ttl), 0))
	}

	// a ttl already in the past would make SET fail; store without expiry
	// and let retrieval semantics handle it
	if until < 0 {
		return 0
	}
	return until
}
