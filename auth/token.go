package auth

import "time"

// TokenTypeBearer is the only token type this service issues.
const TokenTypeBearer = "bearer"

// Token is the immutable value object describing an issued bearer token.
// All time fields are integer epoch seconds; ExpiresAt is authoritative for
// expiry checks done by the codec, independent of any TTL the claim store
// enforces on its own.
type Token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	CreatedAt    int64  `json:"created_at"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
}

// NewToken returns a bearer token created now with no expiry set.
func NewToken(accessToken string) *Token {
	return &Token{
		AccessToken: accessToken,
		TokenType:   TokenTypeBearer,
		CreatedAt:   time.Now().UTC().Unix(),
	}
}

// Expired reports whether the token's own expiry has passed. The boundary is
// inclusive: at now == ExpiresAt the token is already expired, matching the
// codec's verification. A token without an expiry never expires by this
// check.
func (t *Token) Expired(now time.Time) bool {
	if t == nil || t.ExpiresAt == 0 {
		return false
	}
	return now.Unix() >= t.ExpiresAt
}

// ToMap renders the token as a JSON-safe map, the shape the claim store
// persists.
func (t *Token) ToMap() map[string]any {
	if t == nil {
		return nil
	}

	m := map[string]any{
		"access_token": t.AccessToken,
		"token_type":   t.TokenType,
		"created_at":   t.CreatedAt,
	}

	if t.RefreshToken != "" {
		m["refresh_token"] = t.RefreshToken
	}
	if t.IDToken != "" {
		m["id_token"] = t.IDToken
	}
	if t.ExpiresAt != 0 {
		m["expires_at"] = t.ExpiresAt
	}

	return m
}

// TokenFromMap rebuilds a token from its stored map form. Numeric fields may
// arrive as any numeric JSON type depending on the backend.
func TokenFromMap(m map[string]any) *Token {
	if m == nil {
		return nil
	}

	t := &Token{
		AccessToken:  stringValue(m["access_token"]),
		TokenType:    stringValue(m["token_type"]),
		RefreshToken: stringValue(m["refresh_token"]),
		IDToken:      stringValue(m["id_token"]),
		CreatedAt:    int64Value(m["created_at"]),
		ExpiresAt:    int64Value(m["expires_at"]),
	}

	if t.TokenType == "" {
		t.TokenType = TokenTypeBearer
	}

	return t
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func int64Value(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case float32:
		return int64(n)
	case uint64:
		return int64(n)
	}
	return 0
}
