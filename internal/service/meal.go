package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dailybite/dailybite/internal/apperror"
	"github.com/dailybite/dailybite/internal/model"
	"github.com/dailybite/dailybite/internal/recognition"
	"github.com/dailybite/dailybite/internal/repository"
	"github.com/dailybite/dailybite/internal/storage"
)

// Meal listing pagination bounds.
const (
	DefaultMealListLimit = 10
	MaxMealListLimit     = 100
)

// MealService orchestrates the photo-to-meal pipeline and meal queries.
//
// The pipeline for an upload:
//
//	validate type+size → store image → recognize → create pending meal
//	→ (optionally) auto-delete the image
//
// Validation of content type and size happens in Analyze, not the handler,
// so the rules hold no matter who calls it.
type MealService struct {
	meals      repository.MealRepository
	users      repository.UserRepository
	recognizer recognition.Recognizer
	images     *storage.ImageStore
	logger     *slog.Logger

	allowedTypes   map[string]bool
	maxUploadBytes int64
	autoDeleteFlag bool // server-wide switch; the user preference gates it further
	location       *time.Location
}

// MealConfig carries the upload and timezone policy into the service.
type MealConfig struct {
	AllowedImageTypes []string
	MaxUploadBytes    int64
	AutoDeleteImages  bool
	Location          *time.Location
}

// NewMealService wires the meal pipeline together.
func NewMealService(
	meals repository.MealRepository,
	users repository.UserRepository,
	recognizer recognition.Recognizer,
	images *storage.ImageStore,
	cfg MealConfig,
	logger *slog.Logger,
) *MealService {
	allowed := make(map[string]bool, len(cfg.AllowedImageTypes))
	for _, t := range cfg.AllowedImageTypes {
		allowed[t] = true
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &MealService{
		meals:          meals,
		users:          users,
		recognizer:     recognizer,
		images:         images,
		logger:         logger,
		allowedTypes:   allowed,
		maxUploadBytes: cfg.MaxUploadBytes,
		autoDeleteFlag: cfg.AutoDeleteImages,
		location:       loc,
	}
}

// AnalyzePhoto runs the full upload pipeline and returns the new pending
// meal. contentType is the client-declared MIME type; filename is only
// used for the stored file's extension.
func (s *MealService) AnalyzePhoto(ctx context.Context, userID, filename, contentType string, image []byte) (*model.Meal, error) {
	if !s.allowedTypes[contentType] {
		return nil, apperror.ValidationFailed("file",
			fmt.Sprintf("file type %s is not allowed", contentType))
	}
	if int64(len(image)) > s.maxUploadBytes {
		return nil, apperror.ValidationFailed("file",
			fmt.Sprintf("file size %d exceeds the maximum of %d bytes", len(image), s.maxUploadBytes))
	}
	if len(image) == 0 {
		return nil, apperror.ValidationFailed("file", "uploaded file is empty")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	imagePath, err := s.images.Save(userID, filename, image)
	if err != nil {
		return nil, fmt.Errorf("service/meal: storing upload: %w", err)
	}

	result, err := s.recognizer.Analyze(ctx, image)
	if err != nil {
		// The meal record never existed — don't leave its image behind.
		if rmErr := s.images.Remove(imagePath); rmErr != nil {
			s.logger.Warn("failed to clean up image after analysis failure",
				slog.String("path", imagePath), slog.String("error", rmErr.Error()))
		}
		return nil, fmt.Errorf("service/meal: analyzing photo: %w", err)
	}

	meal := &model.Meal{
		UserID:            userID,
		Timestamp:         time.Now(),
		EstimatedCalories: result.TotalCalories,
		Items:             result.Items,
		Status:            model.StatusPending,
		ImageRef:          imagePath,
		Confidence:        result.Confidence,
	}

	// Auto-delete needs BOTH the server flag and the user preference; the
	// image is removed before the row is written so the stored ref is
	// already empty.
	if s.autoDeleteFlag && user.AutoDeleteImages {
		if err := s.images.Remove(imagePath); err != nil {
			s.logger.Warn("failed to auto-delete image",
				slog.String("path", imagePath), slog.String("error", err.Error()))
		}
		meal.ImageRef = ""
	}

	if err := s.meals.Create(ctx, meal); err != nil {
		if meal.ImageRef != "" {
			if rmErr := s.images.Remove(meal.ImageRef); rmErr != nil {
				s.logger.Warn("failed to clean up image after create failure",
					slog.String("path", meal.ImageRef), slog.String("error", rmErr.Error()))
			}
		}
		return nil, fmt.Errorf("service/meal: creating meal: %w", err)
	}

	s.logger.Info("meal created from photo",
		slog.String("mealID", meal.ID),
		slog.String("userID", userID),
		slog.Int("estimatedCalories", meal.EstimatedCalories),
		slog.Int("items", len(meal.Items)),
	)

	return meal, nil
}

// Confirm records the user's verdict on a pending meal: eat or not_eat,
// with optional notes.
//
// Re-confirming an already-confirmed meal is allowed and simply overwrites
// the previous verdict (last write wins). Notes are only replaced when the
// caller provides non-empty ones, matching how the mobile client sends the
// field.
func (s *MealService) Confirm(ctx context.Context, userID, mealID string, status model.MealStatus, notes string) (*model.Meal, error) {
	if !status.Valid() || status == model.StatusPending {
		return nil, apperror.ValidationFailed("action", "action must be eat or not_eat")
	}

	meal, err := s.meals.GetByID(ctx, mealID, userID)
	if err != nil {
		return nil, err
	}

	meal.Status = status
	if notes != "" {
		meal.Notes = notes
	}

	if err := s.meals.Update(ctx, meal); err != nil {
		return nil, err
	}

	s.logger.Info("meal confirmed",
		slog.String("mealID", meal.ID),
		slog.String("userID", userID),
		slog.String("status", string(status)),
	)

	return meal, nil
}

// Get returns a single meal, scoped to its owner.
func (s *MealService) Get(ctx context.Context, userID, mealID string) (*model.Meal, error) {
	return s.meals.GetByID(ctx, mealID, userID)
}

// List returns the user's meals newest first with clamped pagination.
func (s *MealService) List(ctx context.Context, userID string, limit, offset int) ([]model.Meal, error) {
	if limit <= 0 {
		limit = DefaultMealListLimit
	}
	if limit > MaxMealListLimit {
		limit = MaxMealListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.meals.ListByUser(ctx, userID, repository.ListOptions{Limit: limit, Offset: offset})
}

// ListByDate returns all of the user's meals on the given calendar date,
// in the service's configured timezone.
func (s *MealService) ListByDate(ctx context.Context, userID string, date time.Time) ([]model.Meal, error) {
	from, to := s.dayWindow(date)
	return s.meals.ListByUserBetween(ctx, userID, from, to)
}

// Delete removes a meal and its stored image (if any). Deleting a meal
// that doesn't exist — or isn't yours — reports deleted=false rather than
// an error, so the operation is idempotent.
func (s *MealService) Delete(ctx context.Context, userID, mealID string) (bool, error) {
	// Fetch first so the image ref is known; a NotFound here just means
	// there's nothing to do.
	meal, err := s.meals.GetByID(ctx, mealID, userID)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}

	deleted, err := s.meals.Delete(ctx, mealID, userID)
	if err != nil {
		return false, err
	}

	if deleted && meal.ImageRef != "" {
		if err := s.images.Remove(meal.ImageRef); err != nil {
			s.logger.Warn("failed to remove image of deleted meal",
				slog.String("path", meal.ImageRef), slog.String("error", err.Error()))
		}
	}

	if deleted {
		s.logger.Info("meal deleted", slog.String("mealID", mealID), slog.String("userID", userID))
	}

	return deleted, nil
}

// DailySummary computes the calorie report for one calendar date:
// consumed counts only meals confirmed as eaten, remaining never goes
// negative, and the meal list includes everything that day regardless of
// status (skipped meals stay visible as history).
func (s *MealService) DailySummary(ctx context.Context, userID string, date time.Time) (*model.DailySummary, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	from, to := s.dayWindow(date)
	meals, err := s.meals.ListByUserBetween(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	consumed := 0
	for _, m := range meals {
		if m.Status == model.StatusEat {
			consumed += m.EstimatedCalories
		}
	}

	remaining := user.CalorieGoal - consumed
	if remaining < 0 {
		remaining = 0
	}

	return &model.DailySummary{
		Date:      date.In(s.location).Format("2006-01-02"),
		Goal:      user.CalorieGoal,
		Consumed:  consumed,
		Remaining: remaining,
		Meals:     meals,
	}, nil
}

// ParseDate parses a YYYY-MM-DD query value as midnight in the service's
// configured timezone. Parsing in UTC and converting later would shift the
// civil day for zones west of Greenwich, so the location has to be applied
// at parse time.
func (s *MealService) ParseDate(value string) (time.Time, error) {
	date, err := time.ParseInLocation("2006-01-02", value, s.location)
	if err != nil {
		return time.Time{}, apperror.ValidationFailed("date", "invalid date format, use YYYY-MM-DD")
	}
	return date, nil
}

// dayWindow maps a date to the half-open interval [00:00:00 of that day,
// 00:00:00 of the next) in the configured timezone. Every query that asks
// "which meals belong to this date" goes through here, so midnight meals
// are counted exactly once and never split across days.
func (s *MealService) dayWindow(date time.Time) (from, to time.Time) {
	d := date.In(s.location)
	from = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, s.location)
	to = from.AddDate(0, 0, 1)
	return from, to
}

func isNotFound(err error) bool {
	return errors.Is(err, apperror.ErrNotFound)
}
