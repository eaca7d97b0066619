// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
// In a well-structured Go web app, code is organised into three layers:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services accept primitives and small structs, never *http.Request, and
// return domain errors (apperror), never status codes. Handlers translate
// in both directions. Every service takes its dependencies as interfaces
// so tests can substitute mocks (see the _test.go files in this package).
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dailybite/dailybite/internal/apperror"
	"github.com/dailybite/dailybite/internal/auth"
	"github.com/dailybite/dailybite/internal/model"
	"github.com/dailybite/dailybite/internal/repository"
)

// Account validation rules. Calorie goals outside 1000–5000 are either a
// typo or medically unreasonable for this app's audience, so they're
// rejected rather than clamped.
const (
	MinUsernameLength  = 3
	MaxUsernameLength  = 50
	MinPasswordLength  = 6
	MaxPasswordLength  = 100
	MinCalorieGoal     = 1000
	MaxCalorieGoal     = 5000
	DefaultCalorieGoal = 2000
)

// AuthService handles registration, login, and profile management.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
// Call this in server.go when wiring the dependency graph.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// RegisterInput carries everything needed to create an account.
// CalorieGoal <= 0 means "not provided" and falls back to the default;
// a provided value must be in [MinCalorieGoal, MaxCalorieGoal].
type RegisterInput struct {
	Email            string
	Username         string
	Password         string
	CalorieGoal      int
	AutoDeleteImages bool
}

// AuthResult bundles the user record and the issued JWT so the handler can
// respond with both in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register validates the input, hashes the password, creates the account,
// and issues a token — a successful registration logs the user straight in.
//
// Uniqueness of email and username is NOT checked here: the repository's
// UNIQUE constraints enforce it atomically and report apperror.ErrConflict,
// which the handler maps to 409. A pre-check here would just add a race.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)

	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be between %d and %d characters", MinUsernameLength, MaxUsernameLength))
	}
	if len(in.Password) < MinPasswordLength || len(in.Password) > MaxPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be between %d and %d characters", MinPasswordLength, MaxPasswordLength))
	}

	goal := in.CalorieGoal
	if goal <= 0 {
		goal = DefaultCalorieGoal
	} else if goal < MinCalorieGoal || goal > MaxCalorieGoal {
		return nil, apperror.ValidationFailed("calorieGoal",
			fmt.Sprintf("calorie goal must be between %d and %d", MinCalorieGoal, MaxCalorieGoal))
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Email:            email,
		Username:         username,
		PasswordHash:     hash,
		CalorieGoal:      goal,
		IsActive:         true,
		AutoDeleteImages: in.AutoDeleteImages,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err // Conflict or ValidationFailed pass through untouched
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	token, err := s.tokens.Generate(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Login verifies the credentials and issues a token.
//
// SECURITY: the error for a wrong password and for an unknown email is the
// SAME generic Unauthorized. Distinguishing them would let an attacker
// enumerate which emails have accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		// NotFound becomes the generic login failure; real DB errors pass
		// through wrapped so they surface as 500s, not 401s.
		if isNotFound(err) {
			return nil, apperror.Unauthorized("incorrect email or password")
		}
		return nil, fmt.Errorf("service/auth: looking up %s: %w", email, err)
	}

	if !user.IsActive {
		return nil, apperror.Unauthorized("account is inactive")
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("incorrect email or password")
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	token, err := s.tokens.Generate(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// GetUser returns the user's own profile.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile applies a merge-patch to the user's profile: only fields
// present in the patch change, everything else keeps its current value.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, patch model.UserPatch) (*model.User, error) {
	if patch.Email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*patch.Email))
		if err := validateEmail(normalized); err != nil {
			return nil, err
		}
		patch.Email = &normalized
	}
	if patch.Username != nil {
		trimmed := strings.TrimSpace(*patch.Username)
		if len(trimmed) < MinUsernameLength || len(trimmed) > MaxUsernameLength {
			return nil, apperror.ValidationFailed("username",
				fmt.Sprintf("username must be between %d and %d characters", MinUsernameLength, MaxUsernameLength))
		}
		patch.Username = &trimmed
	}
	if patch.CalorieGoal != nil {
		if *patch.CalorieGoal < MinCalorieGoal || *patch.CalorieGoal > MaxCalorieGoal {
			return nil, apperror.ValidationFailed("calorieGoal",
				fmt.Sprintf("calorie goal must be between %d and %d", MinCalorieGoal, MaxCalorieGoal))
		}
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	patch.Merge(user)

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err // Conflict on a taken email/username passes through
	}

	s.logger.Info("profile updated", slog.String("userID", user.ID))

	return user, nil
}

// validateEmail is intentionally loose: the one structural property an
// email must have is a single "@" with something on both sides. Full
// RFC 5322 validation rejects real addresses and still can't prove
// deliverability — that's what verification emails are for.
func validateEmail(email string) error {
	if email == "" {
		return apperror.ValidationFailed("email", "email is required")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || strings.Count(email, "@") != 1 {
		return apperror.ValidationFailed("email", "email address is not valid")
	}
	return nil
}
