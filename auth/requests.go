package auth

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
)

// LoginRequest is the authentication payload. Username accepts an email
// address or a phone number; Code is the password or one-time code.
type LoginRequest struct {
	Username string `form:"username" json:"username"`
	Code     string `form:"code" json:"code"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Username,
			validation.Required,
			validation.Length(8, 64),
			validation.By(validateIdentifier),
		),
		validation.Field(
			&r.Code,
			validation.Required,
			validation.Length(4, 64),
		),
	)
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Name  string `form:"name" json:"name"`
	Email string `form:"email" json:"email"`
	Phone string `form:"phone_number" json:"phone_number,omitempty"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(2, 64)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.By(validateOptionalPhone)),
	)
}

// ForgotPasswordRequest asks for a password-reset notification.
type ForgotPasswordRequest struct {
	Username string `form:"username" json:"username"`
}

// Validate will run validation rules
func (r ForgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Username,
			validation.Required,
			validation.Length(8, 64),
			validation.By(validateIdentifier),
		),
	)
}

// ChangePasswordRequest carries a credential change for a logged-in user.
type ChangePasswordRequest struct {
	OldPassword     string `form:"old_password" json:"old_password"`
	NewPassword     string `form:"new_password" json:"new_password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will run validation rules
func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OldPassword, validation.Required, validation.Length(4, 100)),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(func(value any) error {
				if confirm, _ := value.(string); confirm != r.NewPassword {
					return fmt.Errorf("passwords do not match")
				}
				return nil
			}),
		),
	)
}

// ResetPasswordRequest finalizes a password reset started by ForgotPassword.
type ResetPasswordRequest struct {
	Username        string `form:"username" json:"username"`
	NewPassword     string `form:"new_password" json:"new_password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will run validation rules
func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Username,
			validation.Required,
			validation.Length(8, 64),
			validation.By(validateIdentifier),
		),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(func(value any) error {
				if confirm, _ := value.(string); confirm != r.NewPassword {
					return fmt.Errorf("passwords do not match")
				}
				return nil
			}),
		),
	)
}

// validateIdentifier accepts an email address or a phone number, the two
// identifier shapes the login surface supports.
func validateIdentifier(value any) error {
	s, _ := value.(string)
	s = strings.TrimSpace(s)

	if strings.Contains(s, "@") {
		return is.Email.Validate(s)
	}

	if isDigits(s) {
		if len(s) < 10 {
			return fmt.Errorf("invalid phone number")
		}
		return nil
	}

	return fmt.Errorf("must be an email address or phone number")
}

// validateOptionalPhone validates a phone number in international format,
// skipping empty values.
func validateOptionalPhone(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	num, err := phonenumbers.Parse(s, "")
	if err != nil {
		return fmt.Errorf("invalid phone number")
	}
	if !phonenumbers.IsValidNumber(num) {
		return fmt.Errorf("invalid phone number")
	}

	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
