package alerts

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/carelink/clinic-alerts/pkg/logger"
	"github.com/carelink/clinic-alerts/pkg/types"
)

// Handlers handles HTTP requests for the alerts service
type Handlers struct {
	service *Service
	logger  *logger.Logger
}

// NewHandlers creates new HTTP handlers
func NewHandlers(service *Service, log *logger.Logger) *Handlers {
	return &Handlers{
		service: service,
		logger:  log,
	}
}

// RegisterRoutes registers HTTP routes
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	// Dosing hold routes
	router.HandleFunc("/holds", h.ListHolds).Methods("GET")
	router.HandleFunc("/holds", h.CreateHold).Methods("POST")
	router.HandleFunc("/holds/{holdID}/clearances", h.ClearHold).Methods("POST")

	// Patient precaution routes
	router.HandleFunc("/precautions", h.ListPrecautions).Methods("GET")
	router.HandleFunc("/precautions", h.CreatePrecaution).Methods("POST")
	router.HandleFunc("/precautions/catalog", h.PrecautionCatalog).Methods("GET")

	// Facility alert routes
	router.HandleFunc("/facility-alerts", h.ListFacilityAlerts).Methods("GET")
	router.HandleFunc("/facility-alerts", h.CreateFacilityAlert).Methods("POST")
	router.HandleFunc("/facility-alerts/{alertID}", h.UpdateFacilityAlert).Methods("PUT")
	router.HandleFunc("/facility-alerts/{alertID}/dismiss", h.DismissFacilityAlert).Methods("POST")

	// Patient directory
	router.HandleFunc("/patients", h.ListPatients).Methods("GET")

	// Manual refresh
	router.HandleFunc("/reload", h.Reload).Methods("POST")
}

// ListHolds returns the hold collection annotated with clearance state
func (h *Handlers) ListHolds(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.HoldViews())
}

// CreateHold handles dosing hold creation
func (h *Handlers) CreateHold(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.getActor(r)
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", "User ID not found in request")
		return
	}

	var input types.HoldInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	hold, err := h.service.CreateHold(r.Context(), &input, actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, hold)
}

// ClearHold records a single clearance against a hold
func (h *Handlers) ClearHold(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.getActor(r)
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", "User ID not found in request")
		return
	}

	vars := mux.Vars(r)
	holdID := vars["holdID"]

	var body struct {
		Role  types.Role `json:"role"`
		Label string     `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	clearance := types.Clearance{
		Actor:     actor.ID,
		Role:      body.Role,
		Label:     body.Label,
		ClearedAt: time.Now(),
	}
	if clearance.Role == "" {
		clearance.Role = actor.Role
	}
	if clearance.Label == "" {
		clearance.Label = actor.Label()
	}

	hold, err := h.service.ClearHold(r.Context(), holdID, clearance)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, NewHoldView(hold))
}

// ListPrecautions returns the precaution collection
func (h *Handlers) ListPrecautions(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.Store().Precautions())
}

// CreatePrecaution handles patient precaution creation
func (h *Handlers) CreatePrecaution(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.getActor(r)
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", "User ID not found in request")
		return
	}

	var input types.PrecautionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	precaution, err := h.service.CreatePrecaution(r.Context(), &input, actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, precaution)
}

// PrecautionCatalog returns the precaution type catalog for pickers
func (h *Handlers) PrecautionCatalog(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, Catalog())
}

// ListFacilityAlerts returns the facility alert collection
func (h *Handlers) ListFacilityAlerts(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.Store().FacilityAlerts())
}

// CreateFacilityAlert handles facility alert creation
func (h *Handlers) CreateFacilityAlert(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.getActor(r)
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", "User ID not found in request")
		return
	}

	var input types.FacilityAlertInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	alert, err := h.service.CreateFacilityAlert(r.Context(), &input, actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, alert)
}

// UpdateFacilityAlert handles facility alert edits
func (h *Handlers) UpdateFacilityAlert(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.getActor(r)
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", "User ID not found in request")
		return
	}

	vars := mux.Vars(r)
	alertID := vars["alertID"]

	var input types.FacilityAlertInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	alert, err := h.service.UpdateFacilityAlert(r.Context(), alertID, &input, actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, alert)
}

// DismissFacilityAlert deactivates a facility alert
func (h *Handlers) DismissFacilityAlert(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.getActor(r)
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", "User ID not found in request")
		return
	}

	vars := mux.Vars(r)
	alertID := vars["alertID"]

	alert, err := h.service.DismissFacilityAlert(r.Context(), alertID, actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, alert)
}

// ListPatients proxies the patient directory for selection dropdowns
func (h *Handlers) ListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := h.service.ListPatients(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, patients)
}

// Reload forces a refresh of all three collections
func (h *Handlers) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ReloadAll(r.Context()); err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "reloaded",
		"last_synced": h.service.Store().LastSynced().Format(time.RFC3339),
	})
}

// getActor extracts the acting user from request headers. The gateway
// authenticates upstream and forwards identity in headers.
func (h *Handlers) getActor(r *http.Request) (types.Actor, bool) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		return types.Actor{}, false
	}

	name := r.Header.Get("X-User-Name")
	if name == "" {
		name = userID
	}

	return types.Actor{
		ID:   userID,
		Name: name,
		Role: types.Role(r.Header.Get("X-User-Role")),
	}, true
}

// writeServiceError maps the service error taxonomy onto HTTP status
// codes: validation errors are the caller's fault, request failures
// mean the registry call did not succeed
func (h *Handlers) writeServiceError(w http.ResponseWriter, err error) {
	var alertErr *types.AlertError
	if errors.As(err, &alertErr) {
		switch alertErr.Kind {
		case types.ErrorKindValidation:
			h.writeError(w, http.StatusBadRequest, "validation_error", alertErr.Message)
			return
		case types.ErrorKindRequestFailed:
			if alertErr.StatusCode == http.StatusNotFound {
				h.writeError(w, http.StatusNotFound, "not_found", alertErr.Message)
				return
			}
			h.writeError(w, http.StatusBadGateway, "request_failed", alertErr.Message)
			return
		}
	}
	h.writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
}

// writeJSON writes a JSON response
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.WithError(err).Error("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *Handlers) writeError(w http.ResponseWriter, status int, code, message string) {
	errorResponse := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"timestamp": time.Now().Format(time.RFC3339),
	}

	h.writeJSON(w, status, errorResponse)
}
