package rest

import (
	"github.com/gofiber/fiber/v2"

	"github.com/aqveir/go-saas/auth"
)

// guardLocalsKey is where the per-request guard lives in fiber locals.
const guardLocalsKey = "auth:guard"

// Protected builds the middleware in front of bearer-guarded routes. A guard
// is constructed per request from the Authorization header and the token is
// asserted live against the claim store before the handler runs, so revoked
// tokens are rejected immediately, ahead of natural expiry.
func Protected(claims *auth.ClaimService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		guard, err := auth.NewGuardFromHeader(c.Get(fiber.HeaderAuthorization), claims)
		if err != nil {
			return err
		}

		if _, err := guard.ValidToken(c.UserContext()); err != nil {
			return err
		}

		c.Locals(guardLocalsKey, guard)
		return c.Next()
	}
}

// GuardFromCtx returns the guard Protected stored for this request.
func GuardFromCtx(c *fiber.Ctx) (*auth.Guard, error) {
	guard, ok := c.Locals(guardLocalsKey).(*auth.Guard)
	if !ok || guard == nil {
		return nil, auth.NewErrorWithMsgCode(auth.KindInvalidToken, "no bearer credential presented", "error_code_token_not_provided")
	}
	return guard, nil
}
