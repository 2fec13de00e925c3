// Package secrets loads signing material from AWS Secrets Manager so the JWT
// secret never has to live in the process environment in production.
package secrets

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/aqveir/go-saas/auth"
)

// Client is the Secrets Manager surface the loader needs.
type Client interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Manager fetches named secrets.
type Manager struct {
	client Client
}

// New wraps an existing Secrets Manager client.
func New(client Client) *Manager {
	return &Manager{client: client}
}

// NewFromRegion builds a manager with the default AWS credential chain.
func NewFromRegion(ctx context.Context, region string) (*Manager, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, auth.WrapError(auth.KindInternalServerError, err, "aws configuration failed")
	}

	return New(secretsmanager.NewFromConfig(cfg)), nil
}

// GetSecret returns the string value stored under name.
func (m *Manager) GetSecret(ctx context.Context, name string) (string, error) {
	out, err := m.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return "", auth.NewStorageError(err)
	}

	if out.SecretString == nil {
		return "", auth.NewError(auth.KindEntityNotFound, "secret has no string value")
	}

	return *out.SecretString, nil
}
