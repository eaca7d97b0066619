package handler

import "net/http"

// Version is stamped at build time with
// -ldflags "-X github.com/dailybite/dailybite/internal/handler.Version=...".
var Version = "dev"

// HealthHandler serves the banner and the monitoring health check.
type HealthHandler struct{}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// HandleRoot is the API banner.
//
// HTTP: GET /
func (h *HealthHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to DailyBite - AI-powered food photo calorie tracker",
		"status":  "running",
		"version": Version,
	})
}

// HandleHealth is the health check endpoint for monitoring.
//
// HTTP: GET /health
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": Version,
	})
}
