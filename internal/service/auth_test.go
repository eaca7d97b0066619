package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dailybite/dailybite/internal/apperror"
	"github.com/dailybite/dailybite/internal/auth"
	"github.com/dailybite/dailybite/internal/model"
)

func newTestAuthService(t *testing.T) (*AuthService, *mockUserRepo) {
	t.Helper()
	users := newMockUserRepo()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars", 30*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	passwords := auth.NewPasswordServiceForTest(4) // bcrypt min cost, fast tests
	svc := NewAuthService(users, tokens, passwords, testLogger(t))
	return svc, users
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "secret123",
	}
}

// =========================================================================
// REGISTER
// =========================================================================

func TestRegister_Success(t *testing.T) {
	svc, _ := newTestAuthService(t)

	result, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if result.Token == "" {
		t.Error("Register() should issue a token")
	}
	if result.User.ID == "" {
		t.Error("Register() should persist the user")
	}
	if result.User.CalorieGoal != DefaultCalorieGoal {
		t.Errorf("calorieGoal = %d, want default %d", result.User.CalorieGoal, DefaultCalorieGoal)
	}
	if !result.User.IsActive {
		t.Error("new accounts should be active")
	}
	if result.User.PasswordHash == "secret123" {
		t.Error("password stored in plain text")
	}
}

func TestRegister_NormalizesEmail(t *testing.T) {
	svc, _ := newTestAuthService(t)

	in := validRegisterInput()
	in.Email = "  Alice@Example.COM "
	result, err := svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if result.User.Email != "alice@example.com" {
		t.Errorf("email = %q, want lowercased and trimmed", result.User.Email)
	}
}

func TestRegister_CustomCalorieGoal(t *testing.T) {
	svc, _ := newTestAuthService(t)

	in := validRegisterInput()
	in.CalorieGoal = 1500
	result, err := svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if result.User.CalorieGoal != 1500 {
		t.Errorf("calorieGoal = %d, want 1500", result.User.CalorieGoal)
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"empty email", func(in *RegisterInput) { in.Email = "" }},
		{"malformed email", func(in *RegisterInput) { in.Email = "not-an-email" }},
		{"username too short", func(in *RegisterInput) { in.Username = "ab" }},
		{"username too long", func(in *RegisterInput) { in.Username = strings.Repeat("x", 51) }},
		{"password too short", func(in *RegisterInput) { in.Password = "12345" }},
		{"password too long", func(in *RegisterInput) { in.Password = strings.Repeat("x", 101) }},
		{"goal too low", func(in *RegisterInput) { in.CalorieGoal = 999 }},
		{"goal too high", func(in *RegisterInput) { in.CalorieGoal = 5001 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestAuthService(t)
			in := validRegisterInput()
			tt.mutate(&in)

			_, err := svc.Register(context.Background(), in)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Register() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService(t)

	if _, err := svc.Register(context.Background(), validRegisterInput()); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	in := validRegisterInput()
	in.Username = "different"
	_, err := svc.Register(context.Background(), in)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Register() error = %v, want ErrConflict", err)
	}
}

// =========================================================================
// LOGIN
// =========================================================================

func TestLogin_Success(t *testing.T) {
	svc, _ := newTestAuthService(t)
	registered, _ := svc.Register(context.Background(), validRegisterInput())

	result, err := svc.Login(context.Background(), "alice@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.User.ID != registered.User.ID {
		t.Errorf("logged in as %q, want %q", result.User.ID, registered.User.ID)
	}
	if result.Token == "" {
		t.Error("Login() should issue a token")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestAuthService(t)
	svc.Register(context.Background(), validRegisterInput())

	_, err := svc.Login(context.Background(), "alice@example.com", "wrongpassword")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("Login() error = %v, want ErrUnauthorized", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _ := newTestAuthService(t)
	svc.Register(context.Background(), validRegisterInput())

	_, err := svc.Login(context.Background(), "nobody@example.com", "secret123")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("Login() error = %v, want ErrUnauthorized", err)
	}
}

func TestLogin_SameErrorForBothFailures(t *testing.T) {
	// Unknown email and wrong password must be indistinguishable, or the
	// login endpoint becomes an account-enumeration oracle.
	svc, _ := newTestAuthService(t)
	svc.Register(context.Background(), validRegisterInput())

	_, errUnknown := svc.Login(context.Background(), "nobody@example.com", "secret123")
	_, errWrong := svc.Login(context.Background(), "alice@example.com", "wrongpassword")

	if errUnknown == nil || errWrong == nil {
		t.Fatal("both logins should fail")
	}
	if errUnknown.Error() != errWrong.Error() {
		t.Errorf("error messages differ: %q vs %q", errUnknown, errWrong)
	}
}

func TestLogin_InactiveAccount(t *testing.T) {
	svc, users := newTestAuthService(t)
	registered, _ := svc.Register(context.Background(), validRegisterInput())

	// Deactivate behind the service's back.
	u := users.users[registered.User.ID]
	u.IsActive = false

	_, err := svc.Login(context.Background(), "alice@example.com", "secret123")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Login() on inactive account error = %v, want ErrUnauthorized", err)
	}
}

// =========================================================================
// PROFILE
// =========================================================================

func TestUpdateProfile_MergePatch(t *testing.T) {
	svc, _ := newTestAuthService(t)
	registered, _ := svc.Register(context.Background(), validRegisterInput())

	newGoal := 2500
	updated, err := svc.UpdateProfile(context.Background(), registered.User.ID, model.UserPatch{
		CalorieGoal: &newGoal,
	})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}

	if updated.CalorieGoal != 2500 {
		t.Errorf("calorieGoal = %d, want 2500", updated.CalorieGoal)
	}
	// Untouched fields keep their values.
	if updated.Email != "alice@example.com" || updated.Username != "alice" {
		t.Errorf("merge-patch changed fields it shouldn't: %+v", updated)
	}
}

func TestUpdateProfile_InvalidGoal(t *testing.T) {
	svc, _ := newTestAuthService(t)
	registered, _ := svc.Register(context.Background(), validRegisterInput())

	badGoal := 100
	_, err := svc.UpdateProfile(context.Background(), registered.User.ID, model.UserPatch{
		CalorieGoal: &badGoal,
	})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("UpdateProfile() error = %v, want ErrValidation", err)
	}
}

func TestUpdateProfile_TakenUsername(t *testing.T) {
	svc, _ := newTestAuthService(t)
	svc.Register(context.Background(), validRegisterInput())

	other := validRegisterInput()
	other.Email = "bob@example.com"
	other.Username = "bob"
	registered, _ := svc.Register(context.Background(), other)

	taken := "alice"
	_, err := svc.UpdateProfile(context.Background(), registered.User.ID, model.UserPatch{
		Username: &taken,
	})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("UpdateProfile() error = %v, want ErrConflict", err)
	}
}
