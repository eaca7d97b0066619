package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dailybite/dailybite/internal/auth"
	"github.com/dailybite/dailybite/internal/model"
	"github.com/dailybite/dailybite/internal/service"
)

// MealHandler exposes the meal tracking endpoints: photo upload and
// analysis, confirmation, listing, and the daily summary.
type MealHandler struct {
	meals          *service.MealService
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewMealHandler creates a MealHandler. maxUploadBytes caps how much of a
// request body the handler will read before the service even sees it.
func NewMealHandler(meals *service.MealService, maxUploadBytes int64, logger *slog.Logger) *MealHandler {
	return &MealHandler{meals: meals, maxUploadBytes: maxUploadBytes, logger: logger}
}

// analysisResponse is the payload returned right after a photo upload:
// enough for the client to render the confirmation screen.
type analysisResponse struct {
	ID                string           `json:"id"`
	EstimatedCalories int              `json:"estimatedCalories"`
	Items             []model.FoodItem `json:"items"`
	Confidence        float64          `json:"confidence"`
	Status            model.MealStatus `json:"status"`
}

// HandleUpload accepts a meal photo, runs recognition, and creates a
// pending meal.
//
// HTTP: POST /api/photos/upload (requires auth)
// BODY: multipart/form-data with a "file" part
//
// MaxBytesReader enforces the size cap WHILE reading, so an oversized
// upload is cut off at the limit instead of buffered whole and rejected
// after the fact. The +1KiB headroom covers the multipart framing around
// the file itself.
func (h *MealHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1024)

	file, header, err := r.FormFile("file")
	if err != nil {
		h.logger.Warn("upload without usable file part", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "multipart \"file\" field is required"})
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "could not read uploaded file"})
		return
	}

	contentType := header.Header.Get("Content-Type")

	meal, err := h.meals.AnalyzePhoto(r.Context(), identity.UserID, header.Filename, contentType, image)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, analysisResponse{
		ID:                meal.ID,
		EstimatedCalories: meal.EstimatedCalories,
		Items:             meal.Items,
		Confidence:        meal.Confidence,
		Status:            meal.Status,
	})
}

// confirmRequest is the JSON body for POST /api/meals/{id}/confirm.
type confirmRequest struct {
	Action model.MealStatus `json:"action"`
	Notes  string           `json:"notes"`
}

// HandleConfirm records the eat / not_eat verdict on a meal.
//
// HTTP: POST /api/meals/{id}/confirm (requires auth)
func (h *MealHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	meal, err := h.meals.Confirm(r.Context(), identity.UserID, r.PathValue("id"), req.Action, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, meal)
}

// HandleList returns the caller's meals.
//
// HTTP: GET /api/meals (requires auth)
// QUERY: ?date=YYYY-MM-DD for one calendar day, or ?limit=&offset= to page
// through everything. The date filter wins when both are present.
func (h *MealHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	if dateParam := r.URL.Query().Get("date"); dateParam != "" {
		date, err := h.meals.ParseDate(dateParam)
		if err != nil {
			writeError(w, err)
			return
		}
		meals, err := h.meals.ListByDate(r.Context(), identity.UserID, date)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, meals)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	meals, err := h.meals.List(r.Context(), identity.UserID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, meals)
}

// HandleGet returns a single meal.
//
// HTTP: GET /api/meals/{id} (requires auth; owner only)
func (h *MealHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	meal, err := h.meals.Get(r.Context(), identity.UserID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, meal)
}

// HandleDelete removes a meal.
//
// HTTP: DELETE /api/meals/{id} (requires auth; owner only)
//
// The service's delete is idempotent; HTTP is not — a meal that wasn't
// there (or wasn't yours) comes back 404 so clients notice stale state.
func (h *MealHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	deleted, err := h.meals.Delete(r.Context(), identity.UserID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "meal not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "meal deleted successfully"})
}

// HandleSummary returns the caller's daily calorie summary.
//
// HTTP: GET /api/summary (requires auth)
// QUERY: ?date=YYYY-MM-DD, defaulting to today in the server's timezone.
func (h *MealHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	h.summary(w, r, identity.UserID)
}

// HandleUserSummary is the by-id variant kept for older clients.
//
// HTTP: GET /api/users/{id}/summary (requires auth)
// A caller asking for anyone else's summary gets a 403 — summaries are
// private even between authenticated users.
func (h *MealHandler) HandleUserSummary(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	if r.PathValue("id") != identity.UserID {
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "forbidden", Message: "access denied"})
		return
	}

	h.summary(w, r, identity.UserID)
}

func (h *MealHandler) summary(w http.ResponseWriter, r *http.Request, userID string) {
	date := time.Now()
	if dateParam := r.URL.Query().Get("date"); dateParam != "" {
		parsed, err := h.meals.ParseDate(dateParam)
		if err != nil {
			writeError(w, err)
			return
		}
		date = parsed
	}

	summary, err := h.meals.DailySummary(r.Context(), userID, date)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
