package auth

import "context"

// ClaimStore is the persistence boundary for claims: a key/value document
// store keyed by the access-token string, with one secondary equality lookup
// (refresh_token) to support forced logout. The core depends only on this
// contract, never on a concrete backend.
//
// Implementations wrap backend failures with NewStorageError so the client
// error message survives verbatim. Get reports absence as (nil, nil), not an
// error; Query returns an empty slice when nothing matches; Delete is
// idempotent and deleting an absent key is not an error.
type ClaimStore interface {
	Set(ctx context.Context, item map[string]any) error
	Get(ctx context.Context, key string) (map[string]any, error)
	Query(ctx context.Context, filter map[string]string) ([]map[string]any, error)
	Delete(ctx context.Context, key string) error
}
