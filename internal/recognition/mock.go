package recognition

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"github.com/dailybite/dailybite/internal/model"
)

// catalogEntry is a food the mock knows how to "recognize", with nutrition
// figures per 100g and a typical serving size.
type catalogEntry struct {
	name           string
	caloriesPer100 int
	typicalPortion int // grams
}

// The catalog the mock samples from. Calories are per 100g; the reported
// item calories are scaled to the typical portion.
var catalog = []catalogEntry{
	{"grilled chicken breast", 165, 150},
	{"white rice", 130, 200},
	{"mixed salad", 20, 100},
	{"apple", 52, 180},
	{"banana", 89, 120},
	{"pasta", 131, 200},
	{"pizza slice", 266, 100},
	{"burger", 295, 250},
	{"french fries", 365, 150},
	{"sushi roll", 200, 120},
}

var portionLabels = []string{"small", "medium", "large"}

var _ Recognizer = (*Mock)(nil)

// Mock is a development stand-in for a real food recognition backend.
// Each Analyze call picks 1–3 distinct foods from the catalog with random
// confidences in [0.70, 0.95].
//
// math/rand (not crypto/rand) is the right tool here: the results are
// deliberately non-secret randomness, and a seedable source makes tests
// reproducible.
type Mock struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewMock returns a Mock seeded from the given source. Pass
// rand.NewSource(time.Now().UnixNano()) in production wiring, or a fixed
// seed in tests for deterministic results.
func NewMock(src rand.Source) *Mock {
	return &Mock{rng: rand.New(src)}
}

// Analyze returns a random plausible analysis of the image. The image
// bytes are ignored — a real backend would send them to a vision model.
func (m *Mock) Analyze(ctx context.Context, image []byte) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// *rand.Rand is not goroutine-safe; the lock keeps concurrent
	// Analyze calls from corrupting its state.
	m.mu.Lock()
	defer m.mu.Unlock()

	numItems := 1 + m.rng.Intn(3)
	picks := m.rng.Perm(len(catalog))[:numItems]

	items := make([]model.FoodItem, 0, numItems)
	total := 0
	confidenceSum := 0.0

	for _, idx := range picks {
		food := catalog[idx]
		calories := food.caloriesPer100 * food.typicalPortion / 100
		confidence := round2(0.70 + m.rng.Float64()*0.25)

		items = append(items, model.FoodItem{
			Name:         food.name,
			Calories:     calories,
			Confidence:   confidence,
			PortionLabel: portionLabels[m.rng.Intn(len(portionLabels))],
		})
		total += calories
		confidenceSum += confidence
	}

	return &Result{
		Items:         items,
		TotalCalories: total,
		Confidence:    round2(confidenceSum / float64(numItems)),
	}, nil
}

// round2 rounds to two decimal places — confidences are presented as
// percentages with two significant digits.
func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
