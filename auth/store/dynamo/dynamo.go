// Package dynamo implements the claim store on an Amazon DynamoDB table.
// The table's partition key is the claim key attribute (the access token);
// a global secondary index on refresh_token serves the forced-logout query.
// The claim's ttl attribute doubles as the table's TTL attribute, so expired
// claims are purged by the backend when table TTL is enabled, never by this
// adapter.
package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/aqveir/go-saas/auth"
)

// DefaultRefreshTokenIndex is the GSI queried for refresh chains.
const DefaultRefreshTokenIndex = "refresh_token-index"

// Client is the slice of the DynamoDB API the store uses, narrowed so tests
// can substitute a fake.
type Client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Store is a ClaimStore over a DynamoDB table.
type Store struct {
	client       Client
	tableName    string
	refreshIndex string
}

var _ auth.ClaimStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithRefreshTokenIndex overrides the GSI name used for refresh queries.
func WithRefreshTokenIndex(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.refreshIndex = name
		}
	}
}

// NewFromRegion builds a store with the default AWS credential chain.
func NewFromRegion(ctx context.Context, region, tableName string, opts ...Option) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, auth.NewStorageError(err)
	}

	return New(dynamodb.NewFromConfig(cfg), tableName, opts...), nil
}

// New creates a store over the given table.
func New(client Client, tableName string, opts ...Option) *Store {
	s := &Store{
		client:       client,
		tableName:    tableName,
		refreshIndex: DefaultRefreshTokenIndex,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Set upserts the item.
func (s *Store) Set(ctx context.Context, item map[string]any) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return auth.NewStorageError(err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return auth.NewStorageError(err)
	}

	return nil
}

// Get point-reads the item by key, returning nil when absent.
func (s *Store) Get(ctx context.Context, key string) (map[string]any, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			auth.ClaimKeyAttribute: &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return nil, auth.NewStorageError(err)
	}

	if len(out.Item) == 0 {
		return nil, nil
	}

	var item map[string]any
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, auth.NewStorageError(err)
	}

	return item, nil
}

// Query runs the secondary equality lookup against the refresh-token GSI.
func (s *Store) Query(ctx context.Context, filter map[string]string) ([]map[string]any, error) {
	rt, ok := filter[auth.ClaimRefreshTokenAttribute]
	if !ok || rt == "" {
		return nil, auth.NewError(auth.KindStorage, "unsupported query attribute")
	}

	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(s.refreshIndex),
		KeyConditionExpression: aws.String("#rt = :rt"),
		ExpressionAttributeNames: map[string]string{
			"#rt": auth.ClaimRefreshTokenAttribute,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":rt": &types.AttributeValueMemberS{Value: rt},
		},
	})
	if err != nil {
		return nil, auth.NewStorageError(err)
	}

	items := make([]map[string]any, 0, len(out.Items))
	for _, raw := range out.Items {
		var item map[string]any
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, auth.NewStorageError(err)
		}
		items = append(items, item)
	}

	return items, nil
}

// Delete removes the item; DynamoDB treats deleting an absent key as
// success, which matches the contract.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			auth.ClaimKeyAttribute: &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return auth.NewStorageError(err)
	}

	return nil
}
