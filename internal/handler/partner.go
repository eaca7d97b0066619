package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dailybite/dailybite/internal/model"
	"github.com/dailybite/dailybite/internal/service"
)

// PartnerHandler exposes the legacy business-partner CRUD.
type PartnerHandler struct {
	partners *service.PartnerService
	logger   *slog.Logger
}

// NewPartnerHandler creates a PartnerHandler.
func NewPartnerHandler(partners *service.PartnerService, logger *slog.Logger) *PartnerHandler {
	return &PartnerHandler{partners: partners, logger: logger}
}

// createPartnerRequest is the JSON body for POST /partners. Active
// defaults to true when omitted.
type createPartnerRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Phone   string `json:"phone"`
	Website string `json:"website"`
	Active  *bool  `json:"active"`
}

// HandleCreate registers a new partner.
//
// HTTP: POST /partners
// RESPONSE: 201, 400 on validation, 409 on duplicate email.
func (h *PartnerHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createPartnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	partner, err := h.partners.Create(r.Context(), service.PartnerInput{
		Name:    req.Name,
		Email:   req.Email,
		Company: req.Company,
		Phone:   req.Phone,
		Website: req.Website,
		Active:  active,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, partner)
}

// HandleList returns partners.
//
// HTTP: GET /partners
// QUERY: ?limit=&offset=&active_only=true
func (h *PartnerHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	activeOnly := r.URL.Query().Get("active_only") == "true"

	partners, err := h.partners.List(r.Context(), limit, offset, activeOnly)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, partners)
}

// HandleGet returns a single partner.
//
// HTTP: GET /partners/{id}
func (h *PartnerHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	partner, err := h.partners.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, partner)
}

// HandlePatch merge-patches a partner.
//
// HTTP: PATCH /partners/{id}
func (h *PartnerHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	var patch model.PartnerPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	partner, err := h.partners.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, partner)
}

// HandleDelete removes a partner.
//
// HTTP: DELETE /partners/{id}
func (h *PartnerHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.partners.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
