package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/aqveir/go-saas/auth"
)

// DefaultMaxLoginAttempts is the failed-login count after which an account
// stops accepting credentials until a successful reset.
const DefaultMaxLoginAttempts = 5

// Users is the user persistence surface. It doubles as the credential
// verifier the auth service consumes.
type Users interface {
	auth.UserVerifier

	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
	Register(ctx context.Context, user *User) (*User, error)
	ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error
}

type users struct {
	db          *bun.DB
	maxAttempts int
	logger      auth.Logger
}

var _ Users = (*users)(nil)

// UsersOption configures the users repository.
type UsersOption func(*users)

// WithMaxLoginAttempts overrides the failed-login lockout threshold.
func WithMaxLoginAttempts(n int) UsersOption {
	return func(u *users) {
		if n > 0 {
			u.maxAttempts = n
		}
	}
}

// WithUsersLogger sets the repository logger.
func WithUsersLogger(logger auth.Logger) UsersOption {
	return func(u *users) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// NewUsersRepository wires the users repository over a bun DB.
func NewUsersRepository(db *bun.DB, opts ...UsersOption) Users {
	repo := &users{
		db:          db,
		maxAttempts: DefaultMaxLoginAttempts,
		logger:      auth.DefaultLogger(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}

	return repo
}

// VerifyUser resolves the account behind the credentials and checks the
// password hash. Attempts against an unknown account and mismatched
// passwords both come back as nil identity without error so callers cannot
// distinguish the two. Failed attempts are tracked; past the lockout
// threshold the account rejects even valid credentials.
func (a *users) VerifyUser(ctx context.Context, credentials *auth.LoginRequest, ipAddress string) (auth.Identity, error) {
	user, err := a.GetByIdentifier(ctx, credentials.Username)
	if err != nil {
		if auth.IsErrorKind(err, auth.KindEntityNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if user.LoginAttempts >= a.maxAttempts {
		a.logger.Warn("login rejected for locked account %s from %s", user.Username, ipAddress)
		return nil, auth.NewError(auth.KindForbidden, "account locked after repeated failed logins")
	}

	if err := auth.ComparePasswordAndHash(credentials.Code, user.PasswordHash); err != nil {
		if terr := a.TrackAttemptedLogin(ctx, user); terr != nil {
			a.logger.Error("track attempted login: %v", terr)
		}
		return nil, nil
	}

	if err := a.TrackSuccessfulLogin(ctx, user); err != nil {
		a.logger.Error("track successful login: %v", err)
	}

	return &identity{user: user}, nil
}

// GetByIdentifier fetches a user by email, phone, username or id, trying
// the identifier against each matching column in turn.
func (a *users) GetByIdentifier(ctx context.Context, identifier string) (*User, error) {
	options := resolveUserIdentifier(identifier)
	if len(options) == 0 {
		return nil, auth.NewError(auth.KindEntityNotFound, "empty identifier")
	}

	for _, opt := range options {
		record := &User{}
		err := a.db.NewSelect().
			Model(record).
			Where(fmt.Sprintf("?TableAlias.%s = ?", opt.column), opt.value).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if err == sql.ErrNoRows {
				continue
			}
			return nil, auth.WrapError(auth.KindInternalServerError, err, "user lookup failed")
		}

		return record, nil
	}

	return nil, auth.NewError(auth.KindEntityNotFound, "no user matches identifier")
}

// Register persists a new user, filling role and id defaults.
func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	prepareUserDefaults(user)

	if _, err := a.db.NewInsert().Model(user).Exec(ctx); err != nil {
		return nil, auth.WrapError(auth.KindEntityNotSaved, err, "user registration failed")
	}

	return user, nil
}

// ResetPassword swaps the stored hash and marks the email verified.
func (a *users) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("is_email_verified = ?", true).
		Set("password_hash = ?", passwordHash).
		Where("id = ?", id).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return auth.WrapError(auth.KindEntityNotSaved, err, "password reset failed")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return auth.NewError(auth.KindEntityNotFound, "no user matches id")
	}

	return nil
}

// TrackSuccessfulLogin stamps the login time and clears the attempt counter.
func (a *users) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	// NOTE: Updating using the ORM fails due to a bug, it wont reset
	// login_attempt_at, login_attempts fields.
	loggedInAt := time.Now()
	_, err := a.db.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"loggedin_at" = ?,
			"login_attempt_at" = NULL,
			"login_attempts" = 0
		WHERE
			("usr".id = ?)
			AND "usr"."deleted_at" IS NULL;
	`, loggedInAt, user.ID).Exec(ctx)

	return err
}

// TrackAttemptedLogin bumps the failed-attempt counter.
func (a *users) TrackAttemptedLogin(ctx context.Context, user *User) error {
	now := time.Now()
	_, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("login_attempts = ?", user.LoginAttempts+1).
		Set("login_attempt_at = ?", now).
		Where("id = ?", user.ID).
		Exec(ctx)

	return err
}

// identity adapts a user record to the authenticated-principal surface.
type identity struct {
	user *User
}

func (i *identity) ID() string           { return i.user.ID.String() }
func (i *identity) Username() string     { return i.user.Username }
func (i *identity) Email() string        { return i.user.Email }
func (i *identity) Organization() string { return i.user.OrgHash }

// MarshalJSON flattens the identity to the underlying user record so claim
// user snapshots carry the record's fields, not the wrapper's.
func (i *identity) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.user)
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleGuest
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

type identifierOption struct {
	column string
	value  string
}

func resolveUserIdentifier(identifier string) []identifierOption {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil
	}

	options := make([]identifierOption, 0, 4)

	if isUUID(trimmed) {
		options = append(options, identifierOption{
			column: "id",
			value:  trimmed,
		})
	}

	if isEmail(trimmed) {
		options = append(options, identifierOption{
			column: "email",
			value:  trimmed,
		})
	}

	if isDigits(trimmed) {
		options = append(options, identifierOption{
			column: "phone_number",
			value:  trimmed,
		})
	}

	options = append(options, identifierOption{
		column: "username",
		value:  trimmed,
	})

	return options
}

func isEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func isUUID(identifier string) bool {
	_, err := uuid.Parse(identifier)
	return err == nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
