package model

import "time"

// MealStatus is the confirmation state of a meal.
//
// STATE MACHINE:
// Every meal starts as StatusPending when a photo is analysed. The user then
// confirms it as StatusEat (calories count toward the daily total) or
// StatusNotEat (they didn't eat it — kept for history, excluded from totals).
//
// Re-confirming an already-confirmed meal is allowed and simply overwrites
// the status (last write wins). There is no transition back to pending.
type MealStatus string

const (
	StatusPending MealStatus = "pending"
	StatusEat     MealStatus = "eat"
	StatusNotEat  MealStatus = "not_eat"
)

// Valid reports whether s is one of the three defined statuses.
func (s MealStatus) Valid() bool {
	switch s {
	case StatusPending, StatusEat, StatusNotEat:
		return true
	}
	return false
}

// FoodItem is a single food detected in a photo.
// Confidence is in [0, 1], rounded to 2 decimal places by the recognizer.
type FoodItem struct {
	Name         string  `json:"name"`
	Calories     int     `json:"calories"`
	Confidence   float64 `json:"confidence"`
	PortionLabel string  `json:"portionLabel"` // "small" | "medium" | "large"
}

// Meal represents one photo-analysis event and its confirmation outcome.
//
// OWNERSHIP:
// A meal belongs to exactly one user via UserID. Ownership is enforced in
// every repository query by filtering on the caller's user ID — there is no
// reverse pointer from User to its meals. A meal that exists but belongs to
// someone else is indistinguishable from one that doesn't exist.
//
// Timestamp is when the photo was captured/analysed; CreatedAt/UpdatedAt are
// row bookkeeping. They usually coincide at creation but only Timestamp
// participates in day-window queries.
type Meal struct {
	ID                string     `json:"id"`
	UserID            string     `json:"userId"`
	Timestamp         time.Time  `json:"timestamp"`
	EstimatedCalories int        `json:"estimatedCalories"` // ≥ 0
	Items             []FoodItem `json:"items"`
	Status            MealStatus `json:"status"`
	ImageRef          string     `json:"imageRef,omitempty"` // empty once auto-deleted
	Confidence        float64    `json:"confidence"`
	Notes             string     `json:"notes,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// DailySummary is the derived goal-vs-consumed view for one calendar day.
// It is computed on demand and never persisted.
//
// INVARIANT: Remaining == max(0, Goal − Consumed). When the user overshoots
// the goal, Remaining is clamped to 0 rather than going negative.
// Meals holds ALL of the day's meals (any status), most recent first, so the
// client can render history alongside the totals.
type DailySummary struct {
	Date      string `json:"date"` // YYYY-MM-DD in the configured time zone
	Goal      int    `json:"goal"`
	Consumed  int    `json:"consumed"`
	Remaining int    `json:"remaining"`
	Meals     []Meal `json:"meals"`
}
