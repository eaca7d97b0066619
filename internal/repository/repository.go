// Package repository defines the storage interfaces the service layer
// depends on. Concrete implementations live in subpackages (sqlite);
// services only ever see these interfaces, which is what lets tests swap in
// in-memory mocks.
package repository

import (
	"context"
	"time"

	"github.com/dailybite/dailybite/internal/model"
)

// ListOptions controls pagination for list queries.
type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository is the identity store.
//
// Create must enforce uniqueness of both email and username — a violation
// surfaces as apperror.ErrConflict. Users are never hard-deleted.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

// MealRepository is the meal ledger.
//
// OWNERSHIP CONTRACT:
// Every query takes the owning user's ID and filters on it. A meal that
// exists under a different user behaves exactly like a missing meal
// (apperror.ErrNotFound). There is no way to reach another user's rows
// through this interface.
//
// Delete returns (false, nil) when nothing matched — absence is a normal
// outcome (idempotent delete), not an error.
type MealRepository interface {
	Create(ctx context.Context, meal *model.Meal) error
	GetByID(ctx context.Context, id, userID string) (*model.Meal, error)
	ListByUser(ctx context.Context, userID string, opts ListOptions) ([]model.Meal, error)
	// ListByUserBetween returns meals with Timestamp in [from, to),
	// newest first. Callers compute the window; the repository doesn't
	// know about time zones or calendar days.
	ListByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]model.Meal, error)
	Update(ctx context.Context, meal *model.Meal) error
	Delete(ctx context.Context, id, userID string) (bool, error)
}

// PostRepository stores legacy blog posts.
type PostRepository interface {
	Create(ctx context.Context, post *model.BlogPost) error
	GetByID(ctx context.Context, id string) (*model.BlogPost, error)
	List(ctx context.Context, opts ListOptions, publishedOnly bool) ([]model.BlogPost, error)
	Update(ctx context.Context, post *model.BlogPost) error
	Delete(ctx context.Context, id string) error
}

// PartnerRepository stores legacy partner records. Create and Update must
// enforce email uniqueness (apperror.ErrConflict on violation).
type PartnerRepository interface {
	Create(ctx context.Context, partner *model.Partner) error
	GetByID(ctx context.Context, id string) (*model.Partner, error)
	List(ctx context.Context, opts ListOptions, activeOnly bool) ([]model.Partner, error)
	Update(ctx context.Context, partner *model.Partner) error
	Delete(ctx context.Context, id string) error
}
