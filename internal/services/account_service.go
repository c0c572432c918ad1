// Package services – AccountService
//
// This file implements signup, login and identity lookup. Customers sign up
// with their email as username; administrators are bootstrapped from
// configuration. Passwords are stored as bcrypt hashes.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-art-booking/internal/auth"
	"github.com/tbourn/go-art-booking/internal/domain"
	"github.com/tbourn/go-art-booking/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SignupInput is the signup form.
type SignupInput struct {
	FullName        string `form:"fullname"         validate:"required,max=300"`
	Email           string `form:"email"            validate:"required,email,max=150"`
	Password        string `form:"password"         validate:"required,max=72"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

const passwordTooLong = "Ensure this value has at most 72 characters."

// AccountService manages identities.
type AccountService struct {
	DB     *gorm.DB
	Hasher auth.Hasher
}

// NewAccountService constructs an AccountService.
func NewAccountService(db *gorm.DB, h auth.Hasher) *AccountService {
	return &AccountService{DB: db, Hasher: h}
}

// Signup creates a customer identity. The email is trimmed and lower-cased
// and becomes the username. The full name is split on the first space into
// first and last name.
//
// Errors: *ValidationError for missing fields or a password mismatch,
// ErrConflict when the email is already registered (case-insensitively).
// Signup does not sign the new identity in.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*domain.User, error) {
	tr := otel.Tracer("services/AccountService")
	ctx, span := tr.Start(ctx, "Signup")
	defer span.End()

	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	ve := &ValidationError{}
	if in.FullName == "" || in.Email == "" || in.Password == "" || in.ConfirmPassword == "" {
		ve.Summary = "All fields are required."
	} else if in.Password != in.ConfirmPassword {
		ve.Summary = "Passwords do not match."
	}
	if err := checkStruct(ve, in); err != nil {
		return nil, err
	}
	if len(in.Password) > auth.MaxPasswordBytes {
		ve.add("password", passwordTooLong)
	}
	if err := ve.orNil(); err != nil {
		return nil, err
	}

	taken, err := repo.EmailTaken(ctx, s.DB, in.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrConflict
	}

	hash, err := s.Hasher.Hash(in.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return nil, &ValidationError{Fields: map[string]string{"password": passwordTooLong}}
	}
	if err != nil {
		return nil, err
	}
	first, last, _ := strings.Cut(in.FullName, " ")
	u := &domain.User{
		Username:     in.Email,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    first,
		LastName:     strings.TrimSpace(last),
		Role:         domain.RoleCustomer,
		IsActive:     true,
	}
	if err := repo.CreateUser(ctx, s.DB, u); err != nil {
		// Lost a race with a concurrent signup for the same email.
		if taken, terr := repo.EmailTaken(ctx, s.DB, in.Email); terr == nil && taken {
			return nil, ErrConflict
		}
		return nil, err
	}
	span.SetAttributes(attribute.Int("user.id", int(u.ID)))
	signups.Inc()
	return u, nil
}

// Login matches usernameOrEmail against usernames first, then resolves it
// as an email (case-insensitively) and retries with that identity's
// username. Inactive identities never match. Any failure is ErrUnauthorized.
func (s *AccountService) Login(ctx context.Context, usernameOrEmail, password string) (*domain.User, error) {
	tr := otel.Tracer("services/AccountService")
	ctx, span := tr.Start(ctx, "Login")
	defer span.End()

	ident := strings.TrimSpace(usernameOrEmail)
	if ident == "" || password == "" {
		logins.WithLabelValues("failure").Inc()
		return nil, ErrUnauthorized
	}

	u, err := s.authenticate(ctx, ident, password)
	if errors.Is(err, ErrUnauthorized) {
		var byEmail *domain.User
		byEmail, err = repo.FindUserByEmail(ctx, s.DB, ident)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			err = ErrUnauthorized
		case err == nil:
			u, err = s.authenticate(ctx, byEmail.Username, password)
		}
	}
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			logins.WithLabelValues("failure").Inc()
		}
		return nil, err
	}

	span.SetAttributes(attribute.Int("user.id", int(u.ID)))
	logins.WithLabelValues("success").Inc()
	return u, nil
}

// authenticate checks password for the active identity named username.
func (s *AccountService) authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	u, err := repo.FindUserByUsername(ctx, s.DB, username)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrUnauthorized
	}
	if err := s.Hasher.Check(u.PasswordHash, password); err != nil {
		return nil, ErrUnauthorized
	}
	return u, nil
}

// Get returns the identity with the given id, or ErrNotFound.
func (s *AccountService) Get(ctx context.Context, id uint) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	return u, err
}

// EnsureAdmin creates a superuser administrator named username unless one
// with that username already exists. It reports whether a new identity was
// created.
func (s *AccountService) EnsureAdmin(ctx context.Context, username, email, password string) (*domain.User, bool, error) {
	tr := otel.Tracer("services/AccountService")
	ctx, span := tr.Start(ctx, "EnsureAdmin", trace.WithAttributes(attribute.String("user.username", username)))
	defer span.End()

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, false, &ValidationError{Fields: map[string]string{"username": "Administrator username and password are required."}}
	}

	existing, err := repo.FindUserByUsername(ctx, s.DB, username)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, false, err
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return nil, false, err
	}
	u := &domain.User{
		Username:     username,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		FirstName:    username,
		Role:         domain.RoleAdmin,
		IsSuperuser:  true,
		IsActive:     true,
	}
	if err := repo.CreateUser(ctx, s.DB, u); err != nil {
		return nil, false, err
	}
	return u, true, nil
}
