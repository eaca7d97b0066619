package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/dailybite/dailybite/internal/apperror"
	"github.com/dailybite/dailybite/internal/model"
	"github.com/dailybite/dailybite/internal/recognition"
	"github.com/dailybite/dailybite/internal/repository"
)

// =========================================================================
// MOCK REPOSITORIES
// =========================================================================
//
// Hand-written in-memory fakes of the repository interfaces. They mirror
// the real stores' contracts — uniqueness conflicts, owner-scoped lookups,
// idempotent deletes — so service tests exercise the same error paths the
// SQLite implementations produce, without any I/O.

type mockUserRepo struct {
	users  map[string]*model.User
	nextID int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return apperror.Conflict("user", "email already registered")
		}
		if u.Username == user.Username {
			return apperror.Conflict("user", "username already taken")
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return apperror.NotFound("user", user.ID)
	}
	for id, u := range m.users {
		if id == user.ID {
			continue
		}
		if u.Email == user.Email {
			return apperror.Conflict("user", "email already registered")
		}
		if u.Username == user.Username {
			return apperror.Conflict("user", "username already taken")
		}
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

type mockMealRepo struct {
	meals  map[string]*model.Meal
	nextID int
}

func newMockMealRepo() *mockMealRepo {
	return &mockMealRepo{meals: make(map[string]*model.Meal)}
}

func (m *mockMealRepo) Create(_ context.Context, meal *model.Meal) error {
	m.nextID++
	meal.ID = fmt.Sprintf("meal-%d", m.nextID)
	meal.CreatedAt = time.Now()
	meal.UpdatedAt = meal.CreatedAt
	stored := *meal
	m.meals[meal.ID] = &stored
	return nil
}

func (m *mockMealRepo) GetByID(_ context.Context, id, userID string) (*model.Meal, error) {
	meal, ok := m.meals[id]
	if !ok || meal.UserID != userID {
		return nil, apperror.NotFound("meal", id)
	}
	result := *meal
	return &result, nil
}

func (m *mockMealRepo) ListByUser(_ context.Context, userID string, opts repository.ListOptions) ([]model.Meal, error) {
	result := m.mealsOf(userID, time.Time{}, time.Time{})
	if opts.Offset >= len(result) {
		return []model.Meal{}, nil
	}
	result = result[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}
	return result, nil
}

func (m *mockMealRepo) ListByUserBetween(_ context.Context, userID string, from, to time.Time) ([]model.Meal, error) {
	return m.mealsOf(userID, from, to), nil
}

// mealsOf returns the user's meals newest first, optionally windowed to
// [from, to).
func (m *mockMealRepo) mealsOf(userID string, from, to time.Time) []model.Meal {
	result := make([]model.Meal, 0)
	for _, meal := range m.meals {
		if meal.UserID != userID {
			continue
		}
		if !from.IsZero() && meal.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && !meal.Timestamp.Before(to) {
			continue
		}
		result = append(result, *meal)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	return result
}

func (m *mockMealRepo) Update(_ context.Context, meal *model.Meal) error {
	existing, ok := m.meals[meal.ID]
	if !ok || existing.UserID != meal.UserID {
		return apperror.NotFound("meal", meal.ID)
	}
	stored := *meal
	m.meals[meal.ID] = &stored
	return nil
}

func (m *mockMealRepo) Delete(_ context.Context, id, userID string) (bool, error) {
	meal, ok := m.meals[id]
	if !ok || meal.UserID != userID {
		return false, nil
	}
	delete(m.meals, id)
	return true, nil
}

// stubRecognizer returns a canned analysis, or an error if failWith is set.
type stubRecognizer struct {
	result   *recognition.Result
	failWith error
}

func (s *stubRecognizer) Analyze(_ context.Context, _ []byte) (*recognition.Result, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	return s.result, nil
}

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
