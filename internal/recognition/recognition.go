// Package recognition estimates the food content of a meal photo.
//
// The Recognizer interface is the seam where a real computer-vision backend
// would plug in. The shipped implementation is a mock that returns plausible
// random results — good enough to exercise the whole meal pipeline
// end-to-end without an ML dependency. Handlers and services only ever see
// the interface, so swapping in a real model later touches exactly one
// constructor call in the wiring layer.
package recognition

import (
	"context"

	"github.com/dailybite/dailybite/internal/model"
)

// Result is what an image analysis produces: the recognized items, their
// calorie total, and an overall confidence score in [0, 1].
type Result struct {
	Items         []model.FoodItem
	TotalCalories int
	Confidence    float64
}

// Recognizer analyzes a meal photo. Implementations must be safe for
// concurrent use — the HTTP layer calls Analyze from many goroutines.
type Recognizer interface {
	Analyze(ctx context.Context, image []byte) (*Result, error)
}
