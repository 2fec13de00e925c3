package auth

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// ClaimService orchestrates the claim lifecycle: token creation, claim
// assembly, storage, retrieval, bulk lookup for forced logout, and deletion.
// A claim moves absent -> active -> (refreshed | deleted); there are no other
// states.
type ClaimService struct {
	codec  *TokenCodec
	store  ClaimStore
	expiry int
	logger Logger
}

// ClaimServiceOption configures a ClaimService.
type ClaimServiceOption func(*ClaimService)

// WithClaimExpiry overrides the token TTL in seconds used by Create.
func WithClaimExpiry(seconds int) ClaimServiceOption {
	return func(s *ClaimService) {
		if seconds > 0 {
			s.expiry = seconds
		}
	}
}

// WithClaimLogger sets the service logger.
func WithClaimLogger(logger Logger) ClaimServiceOption {
	return func(s *ClaimService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewClaimService wires a claim service over the given codec and store. The
// token expiry defaults to the codec's configured TTL.
func NewClaimService(codec *TokenCodec, store ClaimStore, opts ...ClaimServiceOption) *ClaimService {
	s := &ClaimService{
		codec:  codec,
		store:  store,
		expiry: codec.DefaultTTL(),
		logger: defLogger{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ClaimOption adjusts a single Create call.
type ClaimOption func(*createOptions)

type createOptions struct {
	refreshToken string
}

// WithRefreshToken carries an existing refresh token into the new claim so
// refreshed tokens stay in the same revocation chain. Without it Create mints
// a fresh one.
func WithRefreshToken(token string) ClaimOption {
	return func(o *createOptions) {
		o.refreshToken = token
	}
}

// Create encodes a token for payload, assembles a claim binding it to a
// snapshot of user, persists the claim, and returns it. The payload is
// usually the minimal token payload ({user_id}); user may be any
// JSON-serializable value and is flattened to a plain map with null fields
// dropped.
func (s *ClaimService) Create(ctx context.Context, payload map[string]any, user any, opts ...ClaimOption) (*Claim, error) {
	options := &createOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if len(payload) == 0 {
		return nil, NewErrorWithMsgCode(KindInvalidToken, "token payload must be a non-empty map", "error_code_invalid_payload")
	}

	token, err := s.codec.Encode(payload, "", s.expiry)
	if err != nil {
		e := NewErrorWithMsgCode(KindInvalidToken, "token generation failed", "error_code_token_generation")
		e.Source = err
		return nil, e
	}
	if token == nil || token.AccessToken == "" {
		return nil, NewErrorWithMsgCode(KindInvalidToken, "token generation yielded no token", "error_code_token_generation")
	}

	if options.refreshToken != "" {
		token.RefreshToken = options.refreshToken
	} else {
		token.RefreshToken = uuid.NewString()
	}

	userMap, err := normalizeUser(user)
	if err != nil {
		e := NewErrorWithMsgCode(KindInvalidToken, "claim generation failed", "error_code_claim_generation")
		e.Source = err
		return nil, e
	}

	claim := &Claim{Token: token, User: userMap}
	if claim.Key() == "" {
		return nil, NewErrorWithMsgCode(KindInvalidToken, "claim generation failed", "error_code_claim_generation")
	}

	if _, err := s.Store(ctx, claim); err != nil {
		return nil, err
	}

	return claim, nil
}

// Get fetches the claim stored under key. Absent claims fail with the
// InvalidToken kind and the claim-not-found message code. Expiry is not
// checked here: an expired but undeleted claim is still found, and callers
// own the TTL comparison.
func (s *ClaimService) Get(ctx context.Context, key string) (*Claim, error) {
	item, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if item == nil {
		return nil, NewErrorWithMsgCode(KindInvalidToken, "claim not found", "error_code_claim_not_found")
	}

	return ClaimFromMap(item), nil
}

// GetAll fetches every claim matching the filter, used to walk a refresh
// token's revocation chain. An empty result set fails the same way as a
// single missing claim.
func (s *ClaimService) GetAll(ctx context.Context, filter map[string]string) ([]*Claim, error) {
	items, err := s.store.Query(ctx, filter)
	if err != nil {
		return nil, err
	}

	if len(items) == 0 {
		return nil, NewErrorWithMsgCode(KindInvalidToken, "no claims found", "error_code_claim_not_found")
	}

	claims := make([]*Claim, 0, len(items))
	for _, item := range items {
		claims = append(claims, ClaimFromMap(item))
	}

	return claims, nil
}

// Delete removes the claim stored under key. Deleting an absent key is not
// an error.
func (s *ClaimService) Delete(ctx context.Context, key string) (bool, error) {
	if err := s.store.Delete(ctx, key); err != nil {
		return false, err
	}
	return true, nil
}

// Store persists a claim as a whole document, without re-encoding its token.
// Keeping Store separate from Create lets refresh flows re-persist claims
// and lets tests exercise persistence independent of signing.
func (s *ClaimService) Store(ctx context.Context, claim *Claim) (bool, error) {
	if err := s.store.Set(ctx, claim.ToMap()); err != nil {
		e := NewErrorWithMsgCode(KindInvalidToken, "claim storage failed", "error_code_claim_storage_failed")
		e.Source = err
		return false, e
	}
	return true, nil
}

// normalizeUser flattens user into a JSON-safe map, dropping null fields.
func normalizeUser(user any) (map[string]any, error) {
	if user == nil {
		return map[string]any{}, nil
	}

	if m, ok := user.(map[string]any); ok {
		return dropNulls(m), nil
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return nil, err
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}

	return dropNulls(m), nil
}

func dropNulls(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if v == nil {
			continue
		}
		out[k] = v
	}
	return out
}
