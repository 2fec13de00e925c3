package auth

import (
	"context"
	"strings"
)

// Guard is the per-request gate in front of protected routes. One guard is
// built per incoming request from the Authorization header and never shared.
//
// Validation is a live claim-store lookup, not a local signature check. That
// is deliberate: logout deletes the claim, so revocation takes effect on the
// very next request, at the cost of a store round trip per protected request.
// Do not replace this with pure JWT verification; without a revocation list
// logout would only take effect at natural expiry.
type Guard struct {
	accessToken string
	claims      *ClaimService
}

// NewGuard builds a guard for the given bearer credential. A missing
// credential fails immediately with a message code that distinguishes "no
// credential presented" from "unknown token".
func NewGuard(credential string, claims *ClaimService) (*Guard, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, NewErrorWithMsgCode(KindInvalidToken, "no bearer credential presented", "error_code_token_not_provided")
	}

	return &Guard{accessToken: credential, claims: claims}, nil
}

// NewGuardFromHeader builds a guard from a raw Authorization header value,
// stripping the Bearer scheme.
func NewGuardFromHeader(header string, claims *ClaimService) (*Guard, error) {
	credential := header
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		credential = header[7:]
	}
	return NewGuard(credential, claims)
}

// AccessToken returns the raw credential the guard was built with, without
// asserting liveness.
func (g *Guard) AccessToken() string {
	return g.accessToken
}

// ValidToken asserts the credential resolves to a live claim and returns the
// raw access token unchanged. Its purpose is the liveness check side effect
// before downstream use.
func (g *Guard) ValidToken(ctx context.Context) (string, error) {
	if _, err := g.claims.Get(ctx, g.accessToken); err != nil {
		return "", err
	}
	return g.accessToken, nil
}

// User asserts liveness and returns the user snapshot embedded in the claim.
func (g *Guard) User(ctx context.Context) (map[string]any, error) {
	claim, err := g.claims.Get(ctx, g.accessToken)
	if err != nil {
		return nil, err
	}
	return claim.User, nil
}
