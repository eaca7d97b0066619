package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/dailybite/dailybite/internal/apperror"
	"github.com/dailybite/dailybite/internal/model"
	"github.com/dailybite/dailybite/internal/repository"
)

// COMPILE-TIME INTERFACE CHECK:
// `var _ X = (*Y)(nil)` assigns a nil *Y to a variable of interface type X.
// If *Y stops implementing X, compilation fails right here instead of at
// some distant call site. Costs nothing at runtime.
var _ repository.UserRepository = (*UserStore)(nil)

// UserStore is the identity-store facet of DB.
type UserStore struct {
	conn *sql.DB
}

// Create inserts a new user.
//
// The UNIQUE constraints on email and username do the heavy lifting:
// instead of SELECT-then-INSERT (which races between the check and the
// insert), we just INSERT and translate a constraint failure into the
// domain Conflict error. Concurrent duplicate registrations can't both
// succeed — the database picks exactly one winner.
func (db *UserStore) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, username, password_hash, calorie_goal, is_active, auto_delete_images, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.CalorieGoal,
		user.IsActive,
		user.AutoDeleteImages,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if col, ok := isUniqueViolation(err); ok {
			return conflictForUserColumn(col)
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}

	return nil
}

// GetByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no such user exists.
func (db *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUserWhere(ctx, "id = ?", id)
}

// GetByEmail retrieves a user by email — the login lookup.
func (db *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUserWhere(ctx, "email = ?", email)
}

func (db *UserStore) getUserWhere(ctx context.Context, where string, arg any) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, email, username, password_hash, calorie_goal, is_active, auto_delete_images, created_at, updated_at
		 FROM users WHERE `+where,
		arg,
	).Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.PasswordHash,
		&u.CalorieGoal,
		&u.IsActive,
		&u.AutoDeleteImages,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		// sql.ErrNoRows isn't really an error — it means "no matching row".
		// Translate it to the domain NotFound so handlers return 404/401.
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", fmt.Sprint(arg))
		}
		return nil, fmt.Errorf("sqlite: getting user (%s): %w", where, err)
	}

	return &u, nil
}

// Update persists profile changes. ID and CreatedAt are immutable; email
// and username keep their UNIQUE enforcement, so a profile update that
// collides with another account comes back as a Conflict.
func (db *UserStore) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE users
		 SET email = ?, username = ?, password_hash = ?, calorie_goal = ?, is_active = ?, auto_delete_images = ?, updated_at = ?
		 WHERE id = ?`,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.CalorieGoal,
		user.IsActive,
		user.AutoDeleteImages,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if col, ok := isUniqueViolation(err); ok {
			return conflictForUserColumn(col)
		}
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}

// conflictForUserColumn names the offending field in the Conflict message
// so clients can highlight the right input.
func conflictForUserColumn(column string) error {
	switch {
	case strings.HasSuffix(column, ".email"):
		return apperror.Conflict("user", "email already registered")
	case strings.HasSuffix(column, ".username"):
		return apperror.Conflict("user", "username already taken")
	}
	return apperror.Conflict("user", "duplicate value for "+column)
}
