// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other
// languages, but without inheritance. Go favours composition over inheritance.
package model

import "time"

// User represents a registered account.
//
// WHY PasswordHash WITH json:"-"?
// The stored credential is an opaque bcrypt hash, never the raw password.
// The `json:"-"` tag tells encoding/json to ALWAYS skip this field, so the
// hash can never leak into an API response by accident — even if a handler
// serializes the whole struct.
//
// CalorieGoal is the user's daily target in kcal, constrained to 1000–5000
// at the service layer. AutoDeleteImages is a privacy preference: when true,
// uploaded photos are removed as soon as analysis completes.
type User struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`    // unique across all users
	Username         string    `json:"username"` // unique across all users
	PasswordHash     string    `json:"-"`
	CalorieGoal      int       `json:"calorieGoal"`
	IsActive         bool      `json:"isActive"`
	AutoDeleteImages bool      `json:"autoDeleteImages"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// UserPatch is a partial update to a user profile. Nil fields mean
// "leave unchanged" — only fields the client actually sent are applied.
//
// WHY POINTERS INSTEAD OF ZERO VALUES?
// With plain fields we couldn't tell "set calorieGoal to 0" apart from
// "calorieGoal wasn't in the request". A nil pointer is unambiguous: the
// field was absent. This replaces the dynamic set-every-attribute approach
// with an explicit merge the compiler can check.
type UserPatch struct {
	Email            *string `json:"email"`
	Username         *string `json:"username"`
	CalorieGoal      *int    `json:"calorieGoal"`
	AutoDeleteImages *bool   `json:"autoDeleteImages"`
}

// Merge applies the patch to u, field by field. Only non-nil fields change.
func (p UserPatch) Merge(u *User) {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.CalorieGoal != nil {
		u.CalorieGoal = *p.CalorieGoal
	}
	if p.AutoDeleteImages != nil {
		u.AutoDeleteImages = *p.AutoDeleteImages
	}
}
