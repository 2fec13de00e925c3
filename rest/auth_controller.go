package rest

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"

	"github.com/aqveir/go-saas/auth"
)

// AuthController exposes the authentication operations over HTTP. It binds
// and validates payloads, hands them to the auth service, and wraps results
// in the response envelope; all failure mapping happens in ErrorHandler.
type AuthController struct {
	Debug   bool
	Logger  auth.Logger
	service *auth.Service
	claims  *auth.ClaimService
}

// AuthControllerOption configures an AuthController.
type AuthControllerOption func(*AuthController)

// WithControllerLogger sets the controller logger.
func WithControllerLogger(logger auth.Logger) AuthControllerOption {
	return func(c *AuthController) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithDebug enables request payload logging.
func WithDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) {
		c.Debug = debug
	}
}

// NewAuthController creates the controller.
func NewAuthController(service *auth.Service, claims *auth.ClaimService, opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:  auth.DefaultLogger(),
		service: service,
		claims:  claims,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// RegisterAuthRoutes mounts the /auth surface on the given router.
func RegisterAuthRoutes(router fiber.Router, controller *AuthController) {
	protected := Protected(controller.claims)

	group := router.Group("/auth")
	group.Post("/login", controller.Authenticate)
	group.Put("/logout", protected, controller.Logout)
	group.Put("/logout/forced", protected, controller.LogoutForced)
	group.Post("/register", controller.Register)
	group.Post("/forgot-password", controller.ForgotPassword)
	group.Post("/change-password", protected, controller.ChangePassword)
	group.Post("/reset-password", controller.ResetPassword)
	group.Get("/token/refresh", protected, controller.RefreshToken)
}

// Authenticate handles POST /auth/login.
func (a *AuthController) Authenticate(c *fiber.Ctx) error {
	payload := new(auth.LoginRequest)
	if err := c.BodyParser(payload); err != nil {
		return auth.WrapError(auth.KindBadRequest, err, "malformed request body")
	}

	if err := payload.Validate(); err != nil {
		return auth.NewError(auth.KindUnprocessableEntity, err.Error())
	}

	if a.Debug {
		a.Logger.Debug("login payload: %s", print.MaybePrettyJSON(payload))
	}

	claim, err := a.service.Authenticate(c.UserContext(), payload, c.IP())
	if err != nil {
		return err
	}

	return Success(c, fiber.StatusOK, "Authentication successful", claim)
}

// Logout handles PUT /auth/logout: revokes the presented token only.
func (a *AuthController) Logout(c *fiber.Ctx) error {
	return a.logout(c, false)
}

// LogoutForced handles PUT /auth/logout/forced: revokes every session in the
// presented token's refresh chain.
func (a *AuthController) LogoutForced(c *fiber.Ctx) error {
	return a.logout(c, true)
}

func (a *AuthController) logout(c *fiber.Ctx, isForced bool) error {
	guard, err := GuardFromCtx(c)
	if err != nil {
		return err
	}

	token, err := guard.ValidToken(c.UserContext())
	if err != nil {
		return err
	}

	ok, err := a.service.Logout(c.UserContext(), token, isForced)
	if err != nil {
		return err
	}

	return Success(c, fiber.StatusOK, "Logout successful", ok)
}

// Register handles POST /auth/register.
func (a *AuthController) Register(c *fiber.Ctx) error {
	payload := new(auth.RegisterRequest)
	if err := c.BodyParser(payload); err != nil {
		return auth.WrapError(auth.KindBadRequest, err, "malformed request body")
	}

	if err := payload.Validate(); err != nil {
		return auth.NewError(auth.KindUnprocessableEntity, err.Error())
	}

	result, err := a.service.Register(c.UserContext(), payload, c.IP())
	if err != nil {
		return err
	}

	return Success(c, fiber.StatusOK, "Registration successful", result)
}

// ForgotPassword handles POST /auth/forgot-password.
func (a *AuthController) ForgotPassword(c *fiber.Ctx) error {
	payload := new(auth.ForgotPasswordRequest)
	if err := c.BodyParser(payload); err != nil {
		return auth.WrapError(auth.KindBadRequest, err, "malformed request body")
	}

	if err := payload.Validate(); err != nil {
		return auth.NewError(auth.KindUnprocessableEntity, err.Error())
	}

	result, err := a.service.ForgotPassword(c.UserContext(), payload, c.IP())
	if err != nil {
		return err
	}

	return Success(c, fiber.StatusOK, "Forgot password successful", result)
}

// ChangePassword handles POST /auth/change-password (bearer required).
func (a *AuthController) ChangePassword(c *fiber.Ctx) error {
	payload := new(auth.ChangePasswordRequest)
	if err := c.BodyParser(payload); err != nil {
		return auth.WrapError(auth.KindBadRequest, err, "malformed request body")
	}

	if err := payload.Validate(); err != nil {
		return auth.NewError(auth.KindUnprocessableEntity, err.Error())
	}

	result, err := a.service.ChangePassword(c.UserContext(), payload, c.IP())
	if err != nil {
		return err
	}

	return Success(c, fiber.StatusOK, "Change password successful", result)
}

// ResetPassword handles POST /auth/reset-password.
func (a *AuthController) ResetPassword(c *fiber.Ctx) error {
	payload := new(auth.ResetPasswordRequest)
	if err := c.BodyParser(payload); err != nil {
		return auth.WrapError(auth.KindBadRequest, err, "malformed request body")
	}

	if err := payload.Validate(); err != nil {
		return auth.NewError(auth.KindUnprocessableEntity, err.Error())
	}

	result, err := a.service.ResetPassword(c.UserContext(), payload, c.IP())
	if err != nil {
		return err
	}

	return Success(c, fiber.StatusOK, "Reset password successful", result)
}

// RefreshToken handles GET /auth/token/refresh (bearer required).
func (a *AuthController) RefreshToken(c *fiber.Ctx) error {
	guard, err := GuardFromCtx(c)
	if err != nil {
		return err
	}

	token, err := guard.ValidToken(c.UserContext())
	if err != nil {
		return err
	}

	claim, err := a.service.RefreshToken(c.UserContext(), token, c.IP())
	if err != nil {
		return err
	}

	return Success(c, fiber.StatusOK, "Refresh token successful", claim)
}
