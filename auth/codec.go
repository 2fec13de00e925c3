package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenCodec encodes and decodes signed, time-bound bearer tokens. It is a
// pure function over the signing secret and the clock: no token state is kept
// here, liveness is the claim store's concern.
type TokenCodec struct {
	signingKey []byte
	method     jwt.SigningMethod
	issuer     string
	audience   string
	defaultTTL int
	logger     Logger
}

// NewTokenCodec creates a codec for the given symmetric secret. The signing
// method name must resolve to an HMAC algorithm (HS256/HS384/HS512);
// defaultTTL is the expiry in seconds applied when Encode receives a
// non-positive TTL.
func NewTokenCodec(signingKey []byte, methodName, issuer, audience string, defaultTTL int, logger Logger) (*TokenCodec, error) {
	if logger == nil {
		logger = defLogger{}
	}

	method := jwt.GetSigningMethod(methodName)
	if method == nil {
		return nil, errors.New(fmt.Sprintf("unknown signing method: %s", methodName), errors.CategoryBadInput)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.New(fmt.Sprintf("signing method %s is not symmetric", methodName), errors.CategoryBadInput)
	}

	return &TokenCodec{
		signingKey: signingKey,
		method:     method,
		issuer:     issuer,
		audience:   audience,
		defaultTTL: defaultTTL,
		logger:     logger,
	}, nil
}

// NewTokenCodecFromConfig builds a codec from a Config provider, reading the
// signing key, method, issuer, audience, and default TTL from it.
func NewTokenCodecFromConfig(cfg Config, logger Logger) (*TokenCodec, error) {
	return NewTokenCodec(
		[]byte(cfg.GetSigningKey()),
		cfg.GetSigningMethod(),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		cfg.GetTokenExpiration(),
		logger,
	)
}

// DefaultTTL returns the configured expiry period in seconds.
func (c *TokenCodec) DefaultTTL() int {
	return c.defaultTTL
}

// Encode builds a signed token embedding payload merged with the registered
// claims: exp (now+ttl), iat, nbf, iss, aud, sub, and a unique jti. The
// returned Token carries the embedded expiration as epoch seconds.
func (c *TokenCodec) Encode(payload map[string]any, subject string, ttlSeconds int) (*Token, error) {
	if ttlSeconds <= 0 {
		ttlSeconds = c.defaultTTL
	}

	now := time.Now().UTC()
	expiresAt := now.Add(time.Duration(ttlSeconds) * time.Second)

	claims := jwt.MapClaims{}
	for k, v := range payload {
		claims[k] = v
	}

	claims["exp"] = jwt.NewNumericDate(expiresAt)
	claims["iat"] = jwt.NewNumericDate(now)
	claims["nbf"] = jwt.NewNumericDate(now)
	claims["iss"] = c.issuer
	claims["aud"] = c.audience
	claims["jti"] = uuid.NewString()
	if subject != "" {
		claims["sub"] = subject
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.signingKey)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to sign token")
	}

	token := NewToken(signed)
	token.CreatedAt = now.Unix()
	token.ExpiresAt = expiresAt.Unix()

	return token, nil
}

// Decode verifies the signature and expiration of raw and returns the
// embedded claims. Malformed or badly signed tokens fail with the
// TokenDecodeError kind; expired tokens with TokenExpiredError.
func (c *TokenCodec) Decode(raw string) (map[string]any, error) {
	return c.decode(raw, false)
}

// DecodeExpired is Decode without the expiry check, used to read claims out
// of an expired token for audit or controlled refresh flows. The signature is
// still verified.
func (c *TokenCodec) DecodeExpired(raw string) (map[string]any, error) {
	return c.decode(raw, true)
}

func (c *TokenCodec) decode(raw string, ignoreExpiry bool) (map[string]any, error) {
	var opts []jwt.ParserOption
	if ignoreExpiry {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			c.logger.Error("token codec encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.signingKey, nil
	}, opts...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, WrapError(KindTokenExpired, err, "")
		}
		return nil, WrapError(KindTokenDecode, err, "")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, NewError(KindTokenDecode, "")
	}

	return map[string]any(claims), nil
}
