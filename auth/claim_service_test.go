package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqveir/go-saas/auth"
	"github.com/aqveir/go-saas/auth/store/memory"
)

type failingStore struct {
	err error
}

func (f *failingStore) Set(ctx context.Context, item map[string]any) error { return f.err }
func (f *failingStore) Get(ctx context.Context, key string) (map[string]any, error) {
	return nil, f.err
}
func (f *failingStore) Query(ctx context.Context, filter map[string]string) ([]map[string]any, error) {
	return nil, f.err
}
func (f *failingStore) Delete(ctx context.Context, key string) error { return f.err }

func newClaimService(t *testing.T, store auth.ClaimStore) *auth.ClaimService {
	t.Helper()
	return auth.NewClaimService(newTestCodec(t, 1800), store)
}

func TestClaimService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates and persists a claim", func(t *testing.T) {
		store := memory.New()
		service := newClaimService(t, store)

		claim, err := service.Create(ctx,
			map[string]any{"user_id": "user-123"},
			map[string]any{"id": "user-123", "email": "jane@example.com"},
		)
		require.NoError(t, err)
		require.NotNil(t, claim)

		assert.NotEmpty(t, claim.Key())
		assert.NotEmpty(t, claim.RefreshToken())
		assert.Equal(t, "jane@example.com", claim.User["email"])

		stored, err := service.Get(ctx, claim.Key())
		require.NoError(t, err)
		assert.Equal(t, claim.Key(), stored.Key())
		assert.Equal(t, claim.RefreshToken(), stored.RefreshToken())
	})

	t.Run("rejects an empty payload", func(t *testing.T) {
		service := newClaimService(t, memory.New())

		_, err := service.Create(ctx, map[string]any{}, nil)
		assert.True(t, auth.IsErrorKind(err, auth.KindInvalidToken))
	})

	t.Run("carries a given refresh token instead of minting one", func(t *testing.T) {
		service := newClaimService(t, memory.New())

		claim, err := service.Create(ctx,
			map[string]any{"user_id": "u"},
			nil,
			auth.WithRefreshToken("chain-1"),
		)
		require.NoError(t, err)
		assert.Equal(t, "chain-1", claim.RefreshToken())
	})

	t.Run("drops null user fields", func(t *testing.T) {
		service := newClaimService(t, memory.New())

		claim, err := service.Create(ctx,
			map[string]any{"user_id": "u"},
			map[string]any{"id": "u", "avatar": nil},
		)
		require.NoError(t, err)

		_, ok := claim.User["avatar"]
		assert.False(t, ok)
	})

	t.Run("surfaces storage failures with the storage message code", func(t *testing.T) {
		service := newClaimService(t, &failingStore{err: errors.New("backend down")})

		_, err := service.Create(ctx, map[string]any{"user_id": "u"}, nil)
		require.Error(t, err)
		assert.True(t, auth.IsErrorKind(err, auth.KindInvalidToken))
	})
}

func TestClaimService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("absent claim fails with claim-not-found", func(t *testing.T) {
		service := newClaimService(t, memory.New())

		_, err := service.Get(ctx, "unknown-token")
		assert.True(t, auth.IsErrorKind(err, auth.KindInvalidToken))
	})

	t.Run("an expired but undeleted claim is still found", func(t *testing.T) {
		store := memory.New()
		service := newClaimService(t, store)

		claim, err := service.Create(ctx, map[string]any{"user_id": "u"}, nil)
		require.NoError(t, err)

		// simulate backend TTL lag by rewriting the stored ttl into the past
		item := claim.ToMap()
		item[auth.ClaimTTLAttribute] = int64(1)
		tokenMap := item["token"].(map[string]any)
		tokenMap["expires_at"] = int64(1)
		require.NoError(t, store.Set(ctx, item))

		stored, err := service.Get(ctx, claim.Key())
		require.NoError(t, err)
		assert.Equal(t, claim.Key(), stored.Key())
	})

	t.Run("propagates store errors", func(t *testing.T) {
		service := newClaimService(t, &failingStore{err: errors.New("backend down")})

		_, err := service.Get(ctx, "any")
		assert.Error(t, err)
	})
}

func TestClaimService_GetAll(t *testing.T) {
	ctx := context.Background()

	t.Run("returns every claim in a refresh chain", func(t *testing.T) {
		service := newClaimService(t, memory.New())

		for i := 0; i < 3; i++ {
			_, err := service.Create(ctx,
				map[string]any{"user_id": "u"},
				nil,
				auth.WithRefreshToken("chain-1"),
			)
			require.NoError(t, err)
		}
		_, err := service.Create(ctx, map[string]any{"user_id": "u"}, nil)
		require.NoError(t, err)

		chain, err := service.GetAll(ctx, map[string]string{
			auth.ClaimRefreshTokenAttribute: "chain-1",
		})
		require.NoError(t, err)
		assert.Len(t, chain, 3)
	})

	t.Run("empty result fails like a missing claim", func(t *testing.T) {
		service := newClaimService(t, memory.New())

		_, err := service.GetAll(ctx, map[string]string{
			auth.ClaimRefreshTokenAttribute: "nope",
		})
		assert.True(t, auth.IsErrorKind(err, auth.KindInvalidToken))
	})
}

func TestClaimService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes a claim and forgets it", func(t *testing.T) {
		service := newClaimService(t, memory.New())

		claim, err := service.Create(ctx, map[string]any{"user_id": "u"}, nil)
		require.NoError(t, err)

		ok, err := service.Delete(ctx, claim.Key())
		require.NoError(t, err)
		assert.True(t, ok)

		_, err = service.Get(ctx, claim.Key())
		assert.Error(t, err)
	})

	t.Run("deleting an absent key is not an error", func(t *testing.T) {
		service := newClaimService(t, memory.New())

		ok, err := service.Delete(ctx, "never-existed")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
