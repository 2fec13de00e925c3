package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aqveir/go-saas/auth"
)

func TestLoginRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		payload auth.LoginRequest
		wantErr bool
	}{
		{"valid email login", auth.LoginRequest{Username: "jane@example.com", Code: "s3cret"}, false},
		{"valid phone login", auth.LoginRequest{Username: "4155552671", Code: "s3cret"}, false},
		{"missing username", auth.LoginRequest{Code: "s3cret"}, true},
		{"missing code", auth.LoginRequest{Username: "jane@example.com"}, true},
		{"malformed email", auth.LoginRequest{Username: "jane@@example", Code: "s3cret"}, true},
		{"phone too short", auth.LoginRequest{Username: "41555526", Code: "s3cret"}, true},
		{"neither email nor phone", auth.LoginRequest{Username: "jane-doe!", Code: "s3cret"}, true},
		{"code too short", auth.LoginRequest{Username: "jane@example.com", Code: "abc"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegisterRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		payload auth.RegisterRequest
		wantErr bool
	}{
		{"valid without phone", auth.RegisterRequest{Name: "Jane", Email: "jane@example.com"}, false},
		{"valid with phone", auth.RegisterRequest{Name: "Jane", Email: "jane@example.com", Phone: "+14155552671"}, false},
		{"missing name", auth.RegisterRequest{Email: "jane@example.com"}, true},
		{"malformed email", auth.RegisterRequest{Name: "Jane", Email: "not-an-email"}, true},
		{"invalid phone", auth.RegisterRequest{Name: "Jane", Email: "jane@example.com", Phone: "+1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestChangePasswordRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		payload auth.ChangePasswordRequest
		wantErr bool
	}{
		{"valid change", auth.ChangePasswordRequest{OldPassword: "old-secret", NewPassword: "new-secret", ConfirmPassword: "new-secret"}, false},
		{"confirmation mismatch", auth.ChangePasswordRequest{OldPassword: "old-secret", NewPassword: "new-secret", ConfirmPassword: "other"}, true},
		{"new password too short", auth.ChangePasswordRequest{OldPassword: "old-secret", NewPassword: "short", ConfirmPassword: "short"}, true},
		{"missing old password", auth.ChangePasswordRequest{NewPassword: "new-secret", ConfirmPassword: "new-secret"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResetPasswordRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		payload auth.ResetPasswordRequest
		wantErr bool
	}{
		{"valid reset", auth.ResetPasswordRequest{Username: "jane@example.com", NewPassword: "new-secret", ConfirmPassword: "new-secret"}, false},
		{"confirmation mismatch", auth.ResetPasswordRequest{Username: "jane@example.com", NewPassword: "new-secret", ConfirmPassword: "nope-secret"}, true},
		{"missing username", auth.ResetPasswordRequest{NewPassword: "new-secret", ConfirmPassword: "new-secret"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestForgotPasswordRequest_Validate(t *testing.T) {
	assert.NoError(t, auth.ForgotPasswordRequest{Username: "jane@example.com"}.Validate())
	assert.Error(t, auth.ForgotPasswordRequest{}.Validate())
}
