package dynamo_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqveir/go-saas/auth"
	"github.com/aqveir/go-saas/auth/store/dynamo"
)

// fakeClient is an in-memory DynamoDB double: a table keyed by the claim key
// attribute with a linear scan standing in for the refresh-token GSI.
type fakeClient struct {
	table map[string]map[string]types.AttributeValue
	err   error

	lastPut    *dynamodb.PutItemInput
	lastQuery  *dynamodb.QueryInput
	lastDelete *dynamodb.DeleteItemInput
}

func newFakeClient() *fakeClient {
	return &fakeClient{table: map[string]map[string]types.AttributeValue{}}
}

func keyOf(item map[string]types.AttributeValue) string {
	if s, ok := item[auth.ClaimKeyAttribute].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPut = params
	if f.err != nil {
		return nil, f.err
	}
	f.table[keyOf(params.Item)] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	item := f.table[keyOf(params.Key)]
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (f *fakeClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.lastQuery = params
	if f.err != nil {
		return nil, f.err
	}

	want := params.ExpressionAttributeValues[":rt"].(*types.AttributeValueMemberS).Value

	out := &dynamodb.QueryOutput{}
	for _, item := range f.table {
		if s, ok := item[auth.ClaimRefreshTokenAttribute].(*types.AttributeValueMemberS); ok && s.Value == want {
			out.Items = append(out.Items, item)
		}
	}
	return out, nil
}

func (f *fakeClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.lastDelete = params
	if f.err != nil {
		return nil, f.err
	}
	delete(f.table, keyOf(params.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func testItem(key, refreshToken string) map[string]any {
	return map[string]any{
		auth.ClaimKeyAttribute:          key,
		auth.ClaimRefreshTokenAttribute: refreshToken,
		auth.ClaimTTLAttribute:          int64(1700001800),
		"user":                          map[string]any{"id": "user-123"},
	}
}

func TestStore_SetGet(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	store := dynamo.New(client, "claims")

	t.Run("round trips an item through attribute values", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, testItem("k1", "chain-a")))
		assert.Equal(t, "claims", *client.lastPut.TableName)

		got, err := store.Get(ctx, "k1")
		require.NoError(t, err)
		assert.Equal(t, "chain-a", got[auth.ClaimRefreshTokenAttribute])
		assert.Equal(t, "user-123", got["user"].(map[string]any)["id"])
	})

	t.Run("absent key yields nil without error", func(t *testing.T) {
		got, err := store.Get(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("client failures become storage errors", func(t *testing.T) {
		broken := newFakeClient()
		broken.err = errors.New("throttled")
		store := dynamo.New(broken, "claims")

		err := store.Set(ctx, testItem("k1", "r"))
		assert.True(t, auth.IsErrorKind(err, auth.KindStorage))

		_, err = store.Get(ctx, "k1")
		assert.True(t, auth.IsErrorKind(err, auth.KindStorage))
	})
}

func TestStore_Query(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	store := dynamo.New(client, "claims")

	require.NoError(t, store.Set(ctx, testItem("k1", "chain-a")))
	require.NoError(t, store.Set(ctx, testItem("k2", "chain-a")))
	require.NoError(t, store.Set(ctx, testItem("k3", "chain-b")))

	t.Run("queries the refresh-token index", func(t *testing.T) {
		got, err := store.Query(ctx, map[string]string{auth.ClaimRefreshTokenAttribute: "chain-a"})
		require.NoError(t, err)
		assert.Len(t, got, 2)

		assert.Equal(t, dynamo.DefaultRefreshTokenIndex, *client.lastQuery.IndexName)
	})

	t.Run("honors a custom index name", func(t *testing.T) {
		store := dynamo.New(client, "claims", dynamo.WithRefreshTokenIndex("rt-gsi"))

		_, err := store.Query(ctx, map[string]string{auth.ClaimRefreshTokenAttribute: "chain-b"})
		require.NoError(t, err)
		assert.Equal(t, "rt-gsi", *client.lastQuery.IndexName)
	})

	t.Run("rejects filters the index cannot serve", func(t *testing.T) {
		_, err := store.Query(ctx, map[string]string{"user_id": "u"})
		assert.True(t, auth.IsErrorKind(err, auth.KindStorage))
	})
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	store := dynamo.New(client, "claims")

	require.NoError(t, store.Set(ctx, testItem("k1", "chain-a")))
	require.NoError(t, store.Delete(ctx, "k1"))

	got, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Nil(t, got)

	t.Run("deleting an absent key is a no-op", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx, "never-there"))
	})
}
