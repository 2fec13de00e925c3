package auth

import (
	"context"
	"fmt"
)

// Logger is the minimal logging surface the auth components need. Any
// structured logger can be adapted to it; the default writes to stdout.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an authenticated principal. Concrete user
// records (e.g. the bun-backed repository model) implement it.
type Identity interface {
	ID() string
	Username() string
	Email() string
	Organization() string
}

// UserVerifier is the external user-lookup collaborator. It resolves the
// account matching a set of credentials, returning nil when none match.
type UserVerifier interface {
	VerifyUser(ctx context.Context, credentials *LoginRequest, ipAddress string) (Identity, error)
}

// Config holds the options the token codec and claim service read.
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetIssuer() string
	GetAudience() string
	GetTokenExpiration() int
}

// DefaultLogger returns the stdout logger used when no logger is configured.
func DefaultLogger() Logger {
	return defLogger{}
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
