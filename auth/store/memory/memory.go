// Package memory provides an in-process claim store used by tests and local
// development. It honors the full ClaimStore contract, including the
// secondary equality query, but persists nothing.
package memory

import (
	"context"
	"sync"

	"github.com/aqveir/go-saas/auth"
)

// Store is a mutex-guarded map keyed by the claim key attribute.
type Store struct {
	mu    sync.RWMutex
	items map[string]map[string]any
}

var _ auth.ClaimStore = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{items: map[string]map[string]any{}}
}

// Set upserts the item under its key attribute.
func (s *Store) Set(ctx context.Context, item map[string]any) error {
	key, _ := item[auth.ClaimKeyAttribute].(string)
	if key == "" {
		return auth.NewError(auth.KindStorage, "item has no key attribute")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = cloneItem(item)
	return nil
}

// Get returns the stored item, or nil when absent.
func (s *Store) Get(ctx context.Context, key string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[key]
	if !ok {
		return nil, nil
	}
	return cloneItem(item), nil
}

// Query returns every item whose top-level or token-level attributes equal
// all filter entries.
func (s *Store) Query(ctx context.Context, filter map[string]string) ([]map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := []map[string]any{}
	for _, item := range s.items {
		if itemMatches(item, filter) {
			matches = append(matches, cloneItem(item))
		}
	}
	return matches, nil
}

// Delete removes the item; deleting an absent key is a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// Len reports the number of stored items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func itemMatches(item map[string]any, filter map[string]string) bool {
	for attr, want := range filter {
		if got, ok := lookupAttribute(item, attr); !ok || got != want {
			return false
		}
	}
	return true
}

// lookupAttribute resolves an attribute at the top level, falling back to
// the embedded token map where refresh_token actually lives.
func lookupAttribute(item map[string]any, attr string) (string, bool) {
	if v, ok := item[attr].(string); ok {
		return v, true
	}

	if tokenMap, ok := item["token"].(map[string]any); ok {
		if v, ok := tokenMap[attr].(string); ok {
			return v, true
		}
	}

	return "", false
}

func cloneItem(item map[string]any) map[string]any {
	out := make(map[string]any, len(item))
	for k, v := range item {
		if m, ok := v.(map[string]any); ok {
			out[k] = cloneItem(m)
			continue
		}
		out[k] = v
	}
	return out
}
