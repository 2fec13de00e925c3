package auth

import (
	"context"
	"fmt"
)

// Service is the authentication orchestrator. Every method delegates
// validation and storage to the claim service and re-raises its failures
// unchanged; the only thing swallowed anywhere is event dispatch.
type Service struct {
	users  UserVerifier
	claims *ClaimService
	events *EventBus
	logger Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithEventBus attaches an event bus for claim-lifecycle notifications.
func WithEventBus(bus *EventBus) ServiceOption {
	return func(s *Service) {
		if bus != nil {
			s.events = bus
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService wires the auth service over the user-lookup collaborator and
// the claim service.
func NewService(users UserVerifier, claims *ClaimService, opts ...ServiceOption) *Service {
	s := &Service{
		users:  users,
		claims: claims,
		events: NewEventBus(),
		logger: defLogger{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Authenticate resolves the user behind the credentials and issues a claim
// for it. A login event is published fire-and-forget with the new claim.
func (s *Service) Authenticate(ctx context.Context, credentials *LoginRequest, ipAddress string) (*Claim, error) {
	identity, err := s.users.VerifyUser(ctx, credentials, ipAddress)
	if err != nil {
		s.logger.Error("authenticate: verify user: %v", err)
		return nil, err
	}

	if identity == nil {
		return nil, NewError(KindAuthentication, "")
	}

	claim, err := s.claims.Create(ctx, map[string]any{"user_id": identity.ID()}, identity)
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, Event{
		Kind:  EventLogin,
		Claim: claim,
		Metadata: map[string]any{
			"ip_address": ipAddress,
		},
	})

	return claim, nil
}

// Logout revokes the claim behind token. When forced and the claim belongs
// to a refresh chain, every claim sharing the refresh token is deleted, so
// all sessions derived from it die at once. Deletion is at-least-effort: a
// failure mid-loop propagates and earlier deletes are not rolled back.
// Returns true on completion.
func (s *Service) Logout(ctx context.Context, token string, isForced bool) (bool, error) {
	claim, err := s.claims.Get(ctx, token)
	if err != nil {
		return false, err
	}

	refreshToken := claim.RefreshToken()

	if isForced && refreshToken != "" {
		chain, err := s.claims.GetAll(ctx, map[string]string{ClaimRefreshTokenAttribute: refreshToken})
		if err != nil {
			return false, err
		}

		for _, c := range chain {
			if _, err := s.claims.Delete(ctx, c.Key()); err != nil {
				return false, err
			}
		}
	} else {
		if _, err := s.claims.Delete(ctx, token); err != nil {
			return false, err
		}
	}

	s.events.Publish(ctx, Event{
		Kind:  EventLogout,
		Claim: claim,
		Metadata: map[string]any{
			"forced": isForced,
		},
	})

	return true, nil
}

// Register accepts a validated registration payload and returns it. User
// persistence is delegated to an external collaborator; claim issuance on
// register is deferred on purpose.
func (s *Service) Register(ctx context.Context, payload *RegisterRequest, ipAddress string) (*RegisterRequest, error) {
	return payload, nil
}

// ForgotPassword accepts a validated reset request and returns it. The
// notification and credential mutation belong to the external user store.
func (s *Service) ForgotPassword(ctx context.Context, payload *ForgotPasswordRequest, ipAddress string) (*ForgotPasswordRequest, error) {
	return payload, nil
}

// ChangePassword accepts a validated change request and returns it. The
// credential mutation belongs to the external user store.
func (s *Service) ChangePassword(ctx context.Context, payload *ChangePasswordRequest, ipAddress string) (*ChangePasswordRequest, error) {
	return payload, nil
}

// ResetPassword accepts a validated reset request and returns it. The
// credential mutation belongs to the external user store.
func (s *Service) ResetPassword(ctx context.Context, payload *ResetPasswordRequest, ipAddress string) (*ResetPasswordRequest, error) {
	return payload, nil
}

// RefreshToken replaces the claim behind token with a new one carrying a
// fresh access token and the same refresh token. The old claim is deleted
// only after the new one is stored: a crash in between leaves two live
// claims, never zero. Concurrent refreshes of the same token may both
// succeed; callers tolerate the extra live claim until it is revoked.
func (s *Service) RefreshToken(ctx context.Context, token string, ipAddress string) (*Claim, error) {
	claim, err := s.claims.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	userID := snapshotUserID(claim.User)
	if userID == "" {
		return nil, NewError(KindInvalidToken, "claim carries no usable user snapshot")
	}

	next, err := s.claims.Create(ctx,
		map[string]any{"user_id": userID},
		claim.User,
		WithRefreshToken(claim.RefreshToken()),
	)
	if err != nil {
		return nil, err
	}

	if _, err := s.claims.Delete(ctx, token); err != nil {
		return nil, err
	}

	s.events.Publish(ctx, Event{
		Kind:  EventTokenRefresh,
		Claim: next,
		Metadata: map[string]any{
			"ip_address": ipAddress,
		},
	})

	return next, nil
}

// snapshotUserID extracts the user id from a claim's user snapshot. The
// snapshot is otherwise opaque to the claim machinery.
func snapshotUserID(user map[string]any) string {
	v, ok := user["id"]
	if !ok {
		return ""
	}

	switch id := v.(type) {
	case string:
		return id
	case fmt.Stringer:
		return id.String()
	}

	return ""
}
