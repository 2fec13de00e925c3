// Package rest is the fiber HTTP surface: the uniform success/error JSON
// envelope, the boundary error handler that flattens the error taxonomy into
// wire responses, and the guarded /auth controller.
package rest

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"

	"github.com/aqveir/go-saas/auth"
)

// SuccessResponse is the envelope wrapping every successful result.
type SuccessResponse struct {
	StatusCode int            `json:"status_code"`
	Message    string         `json:"message"`
	Success    bool           `json:"success"`
	Data       any            `json:"data"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// ErrorResponse is the envelope wrapping every failure.
type ErrorResponse struct {
	StatusCode int         `json:"status_code"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
	Errors     ErrorDetail `json:"errors"`
}

// ErrorDetail carries the machine-readable failure attributes: a broad code,
// the stable i18n message code, and the concrete taxonomy kind name.
type ErrorDetail struct {
	Code    string `json:"code"`
	MsgCode string `json:"msg_code"`
	Context string `json:"context"`
}

// Success writes the success envelope with the given status.
func Success(c *fiber.Ctx, status int, message string, data any, metadata ...map[string]any) error {
	resp := SuccessResponse{
		StatusCode: status,
		Message:    message,
		Success:    true,
		Data:       data,
	}

	if len(metadata) > 0 {
		resp.Metadata = metadata[0]
	}

	return c.Status(status).JSON(resp)
}

// ErrorHandler is the fiber app-level error handler. Taxonomy errors render
// with their own status, message code, and kind; fiber framework errors keep
// their status; everything else maps to 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var rich *errors.Error
	if errors.As(err, &rich) {
		status := rich.Code
		if status <= 0 {
			status = fiber.StatusInternalServerError
		}

		return c.Status(status).JSON(ErrorResponse{
			StatusCode: status,
			Message:    rich.Message,
			Success:    false,
			Errors: ErrorDetail{
				Code:    string(rich.Category),
				MsgCode: rich.TextCode,
				Context: string(auth.ErrorKindOf(rich)),
			},
		})
	}

	if fiberErr, ok := err.(*fiber.Error); ok {
		return c.Status(fiberErr.Code).JSON(ErrorResponse{
			StatusCode: fiberErr.Code,
			Message:    fiberErr.Message,
			Success:    false,
			Errors: ErrorDetail{
				Code:    "http_error",
				MsgCode: "error_code_generic",
				Context: string(auth.KindGeneric),
			},
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		StatusCode: fiber.StatusInternalServerError,
		Message:    err.Error(),
		Success:    false,
		Errors: ErrorDetail{
			Code:    string(errors.CategoryInternal),
			MsgCode: "error_code_internal_server_error",
			Context: string(auth.KindInternalServerError),
		},
	})
}
