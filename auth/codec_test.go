package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqveir/go-saas/auth"
)

func newTestCodec(t *testing.T, ttl int) *auth.TokenCodec {
	t.Helper()

	codec, err := auth.NewTokenCodec(
		[]byte("test-signing-key"),
		"HS256",
		"test-issuer",
		"test-audience",
		ttl,
		nil,
	)
	require.NoError(t, err)

	return codec
}

type stubConfig struct {
	key, method, issuer, audience string
	expiry                        int
}

func (c stubConfig) GetSigningKey() string    { return c.key }
func (c stubConfig) GetSigningMethod() string { return c.method }
func (c stubConfig) GetIssuer() string        { return c.issuer }
func (c stubConfig) GetAudience() string      { return c.audience }
func (c stubConfig) GetTokenExpiration() int  { return c.expiry }

func TestNewTokenCodecFromConfig(t *testing.T) {
	cfg := stubConfig{
		key:      "config-signing-key",
		method:   "HS256",
		issuer:   "config-issuer",
		audience: "config-audience",
		expiry:   900,
	}

	codec, err := auth.NewTokenCodecFromConfig(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 900, codec.DefaultTTL())

	token, err := codec.Encode(map[string]any{"user_id": "user-42"}, "user-42", 0)
	require.NoError(t, err)
	assert.Equal(t, token.CreatedAt+900, token.ExpiresAt)

	claims, err := codec.Decode(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "config-issuer", claims["iss"])
	assert.Equal(t, "config-audience", claims["aud"])

	t.Run("rejects a bad signing method from config", func(t *testing.T) {
		cfg.method = "none"
		_, err := auth.NewTokenCodecFromConfig(cfg, nil)
		assert.Error(t, err)
	})
}

func TestNewTokenCodec(t *testing.T) {
	t.Run("rejects unknown signing method", func(t *testing.T) {
		_, err := auth.NewTokenCodec([]byte("key"), "HS999", "iss", "aud", 60, nil)
		assert.Error(t, err)
	})

	t.Run("rejects asymmetric signing method", func(t *testing.T) {
		_, err := auth.NewTokenCodec([]byte("key"), "RS256", "iss", "aud", 60, nil)
		assert.Error(t, err)
	})

	t.Run("accepts HMAC variants", func(t *testing.T) {
		for _, method := range []string{"HS256", "HS384", "HS512"} {
			_, err := auth.NewTokenCodec([]byte("key"), method, "iss", "aud", 60, nil)
			assert.NoError(t, err, method)
		}
	})
}

func TestTokenCodec_EncodeDecode(t *testing.T) {
	codec := newTestCodec(t, 1800)

	t.Run("round trips the payload with registered claims", func(t *testing.T) {
		before := time.Now().Unix()
		token, err := codec.Encode(map[string]any{"user_id": "user-123"}, "user-123", 0)
		require.NoError(t, err)
		require.NotNil(t, token)

		assert.NotEmpty(t, token.AccessToken)
		assert.Equal(t, auth.TokenTypeBearer, token.TokenType)
		assert.Equal(t, token.CreatedAt+1800, token.ExpiresAt)
		assert.GreaterOrEqual(t, token.CreatedAt, before)

		claims, err := codec.Decode(token.AccessToken)
		require.NoError(t, err)

		assert.Equal(t, "user-123", claims["user_id"])
		assert.Equal(t, "user-123", claims["sub"])
		assert.Equal(t, "test-issuer", claims["iss"])
		assert.Equal(t, "test-audience", claims["aud"])
		assert.NotEmpty(t, claims["jti"])

		// numeric claims decode as float64
		assert.EqualValues(t, token.ExpiresAt, claims["exp"])
		assert.EqualValues(t, token.CreatedAt, claims["iat"])
		assert.EqualValues(t, token.CreatedAt, claims["nbf"])
	})

	t.Run("explicit ttl overrides the default", func(t *testing.T) {
		token, err := codec.Encode(map[string]any{"user_id": "u"}, "", 60)
		require.NoError(t, err)

		assert.Equal(t, token.CreatedAt+60, token.ExpiresAt)
	})

	t.Run("omits subject when empty", func(t *testing.T) {
		token, err := codec.Encode(map[string]any{"user_id": "u"}, "", 0)
		require.NoError(t, err)

		claims, err := codec.Decode(token.AccessToken)
		require.NoError(t, err)

		_, ok := claims["sub"]
		assert.False(t, ok)
	})
}

func TestTokenCodec_DecodeFailures(t *testing.T) {
	codec := newTestCodec(t, 1800)

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := codec.Decode("not-a-token")
		assert.True(t, auth.IsErrorKind(err, auth.KindTokenDecode))
	})

	t.Run("rejects a token signed with a different key", func(t *testing.T) {
		other, err := auth.NewTokenCodec([]byte("other-key"), "HS256", "iss", "aud", 60, nil)
		require.NoError(t, err)

		token, err := other.Encode(map[string]any{"user_id": "u"}, "", 0)
		require.NoError(t, err)

		_, err = codec.Decode(token.AccessToken)
		assert.True(t, auth.IsErrorKind(err, auth.KindTokenDecode))
	})

	t.Run("rejects an expired token with the expiry kind", func(t *testing.T) {
		short := newTestCodec(t, 1800)
		token, err := short.Encode(map[string]any{"user_id": "u"}, "", 1)
		require.NoError(t, err)

		time.Sleep(2 * time.Second)

		_, err = short.Decode(token.AccessToken)
		assert.True(t, auth.IsErrorKind(err, auth.KindTokenExpired))
	})
}

func TestTokenCodec_DecodeExpired(t *testing.T) {
	codec := newTestCodec(t, 1800)

	t.Run("reads claims out of an expired token", func(t *testing.T) {
		token, err := codec.Encode(map[string]any{"user_id": "u"}, "", 1)
		require.NoError(t, err)

		time.Sleep(2 * time.Second)

		claims, err := codec.DecodeExpired(token.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "u", claims["user_id"])
	})

	t.Run("still verifies the signature", func(t *testing.T) {
		other, err := auth.NewTokenCodec([]byte("other-key"), "HS256", "iss", "aud", 60, nil)
		require.NoError(t, err)

		token, err := other.Encode(map[string]any{"user_id": "u"}, "", 0)
		require.NoError(t, err)

		_, err = codec.DecodeExpired(token.AccessToken)
		assert.Error(t, err)
	})
}
