package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/dailybite/dailybite/internal/apperror"
	"github.com/dailybite/dailybite/internal/model"
	"github.com/dailybite/dailybite/internal/repository"
)

var _ repository.MealRepository = (*MealStore)(nil)

// MealStore is the meal-ledger facet of DB.
type MealStore struct {
	conn *sql.DB
}

// TIMESTAMP NORMALIZATION:
// Meal timestamps are stored in UTC. SQLite compares DATETIME values
// lexically in the format the driver writes them, so mixing offsets would
// break range queries — a meal written at "+09:00" would sort against a
// UTC bound incorrectly. Normalizing at the write path (and for the query
// bounds in ListByUserBetween) keeps the ordering sound; callers get the
// values back as absolute instants and render them in whatever zone the
// service is configured for.

// Create inserts a new meal row. ID, CreatedAt, and UpdatedAt are filled
// in here (pointer receiver — the caller's struct gets the values).
// Items are serialized to a JSON array in the items_json column.
func (db *MealStore) Create(ctx context.Context, meal *model.Meal) error {
	now := time.Now()
	meal.ID = xid.New().String()
	meal.CreatedAt = now
	meal.UpdatedAt = now
	if meal.Timestamp.IsZero() {
		meal.Timestamp = now
	}
	meal.Timestamp = meal.Timestamp.UTC()

	itemsJSON, err := json.Marshal(meal.Items)
	if err != nil {
		return fmt.Errorf("sqlite: encoding meal items: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO meals (id, user_id, timestamp, estimated_calories, items_json, status, image_ref, confidence, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meal.ID,
		meal.UserID,
		meal.Timestamp,
		meal.EstimatedCalories,
		string(itemsJSON),
		string(meal.Status),
		meal.ImageRef,
		meal.Confidence,
		meal.Notes,
		meal.CreatedAt,
		meal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting meal for user %s: %w", meal.UserID, err)
	}

	return nil
}

const mealColumns = `id, user_id, timestamp, estimated_calories, items_json, status, image_ref, confidence, notes, created_at, updated_at`

// scanMeal reads one meal row. Shared by every query in this file so the
// column order lives in exactly one place (mealColumns above).
func scanMeal(scan func(...any) error) (*model.Meal, error) {
	var m model.Meal
	var itemsJSON string
	var status string

	if err := scan(
		&m.ID,
		&m.UserID,
		&m.Timestamp,
		&m.EstimatedCalories,
		&itemsJSON,
		&status,
		&m.ImageRef,
		&m.Confidence,
		&m.Notes,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}

	m.Status = model.MealStatus(status)
	if err := json.Unmarshal([]byte(itemsJSON), &m.Items); err != nil {
		return nil, fmt.Errorf("decoding meal items for %s: %w", m.ID, err)
	}

	return &m, nil
}

// GetByID retrieves a meal scoped to its owner.
//
// The WHERE clause filters on BOTH id and user_id: a meal owned by someone
// else produces the same NotFound as a meal that doesn't exist. This is the
// single enforcement point for meal ownership — every caller goes through
// a user-scoped query, never a bare id lookup.
func (db *MealStore) GetByID(ctx context.Context, id, userID string) (*model.Meal, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+mealColumns+` FROM meals WHERE id = ? AND user_id = ?`,
		id, userID,
	)

	meal, err := scanMeal(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("meal", id)
		}
		return nil, fmt.Errorf("sqlite: getting meal %s: %w", id, err)
	}

	return meal, nil
}

// ListByUser returns the user's meals newest first, paginated.
func (db *MealStore) ListByUser(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Meal, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+mealColumns+` FROM meals
		 WHERE user_id = ?
		 ORDER BY timestamp DESC
		 LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing meals for user %s: %w", userID, err)
	}
	defer rows.Close()

	return collectMeals(rows, limit)
}

// ListByUserBetween returns the user's meals with Timestamp in [from, to),
// newest first.
//
// The half-open interval is the precise version of "00:00:00 through
// 23:59:59 inclusive": [startOfDay, startOfNextDay) includes a meal stamped
// exactly at midnight and one at 23:59:59.999…, and never double counts
// across adjacent days. Bounds are normalized to UTC to match the stored
// representation.
func (db *MealStore) ListByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]model.Meal, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+mealColumns+` FROM meals
		 WHERE user_id = ? AND timestamp >= ? AND timestamp < ?
		 ORDER BY timestamp DESC`,
		userID, from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing meals for user %s between %s and %s: %w",
			userID, from.Format(time.RFC3339), to.Format(time.RFC3339), err)
	}
	defer rows.Close()

	return collectMeals(rows, 16)
}

func collectMeals(rows *sql.Rows, sizeHint int) ([]model.Meal, error) {
	meals := make([]model.Meal, 0, sizeHint)

	for rows.Next() {
		m, err := scanMeal(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning meal row: %w", err)
		}
		meals = append(meals, *m)
	}

	// rows.Err() catches failures that happened during iteration, which
	// rows.Next() reports only as "no more rows".
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating meals: %w", err)
	}

	return meals, nil
}

// Update persists status, notes, and image-ref changes, still scoped to the
// owner. RowsAffected == 0 means the meal vanished (or was never this
// user's) → NotFound.
//
// There is deliberately no version column here: two concurrent
// confirmations of the same meal both succeed and the second one wins,
// which is the documented last-write-wins policy.
func (db *MealStore) Update(ctx context.Context, meal *model.Meal) error {
	meal.UpdatedAt = time.Now()

	itemsJSON, err := json.Marshal(meal.Items)
	if err != nil {
		return fmt.Errorf("sqlite: encoding meal items: %w", err)
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE meals
		 SET estimated_calories = ?, items_json = ?, status = ?, image_ref = ?, confidence = ?, notes = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		meal.EstimatedCalories,
		string(itemsJSON),
		string(meal.Status),
		meal.ImageRef,
		meal.Confidence,
		meal.Notes,
		meal.UpdatedAt,
		meal.ID,
		meal.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating meal %s: %w", meal.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("meal", meal.ID)
	}

	return nil
}

// Delete removes a meal, scoped to the owner. Returns whether a row was
// actually removed — deleting an absent (or foreign) meal is (false, nil),
// not an error, so the operation is idempotent.
func (db *MealStore) Delete(ctx context.Context, id, userID string) (bool, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM meals WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: deleting meal %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}
