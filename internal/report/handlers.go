package report

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/carewatch/stewardship/pkg/dateutil"
	"github.com/carewatch/stewardship/pkg/types"
)

// Handlers exposes the surveillance service over HTTP.
type Handlers struct {
	service   *Service
	validator *ExportTokenValidator
}

// NewHandlers creates the HTTP handler set for the surveillance service
func NewHandlers(service *Service, validator *ExportTokenValidator) *Handlers {
	return &Handlers{service: service, validator: validator}
}

// SetupRoutes configures HTTP routes for the surveillance service
func (h *Handlers) SetupRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/v1").Subrouter()

	// Report routes
	api.HandleFunc("/reports/surveillance", h.surveillanceReportHandler).Methods("GET")
	api.HandleFunc("/reports/export", h.exportHandler).Methods("GET")

	// Snapshot import
	api.HandleFunc("/snapshots/import", h.importSnapshotHandler).Methods("POST")

	// Workflow metrics routes
	api.HandleFunc("/workflow-metrics", h.recordWorkflowMetricHandler).Methods("POST")
	api.HandleFunc("/workflow-metrics/efficiency", h.workflowEfficiencyHandler).Methods("GET")

	// Outbreak lifecycle
	api.HandleFunc("/outbreaks/{outbreakID}/transition", h.transitionOutbreakHandler).Methods("POST")

	// Health check
	api.HandleFunc("/health", h.healthHandler).Methods("GET")

	h.service.logger.Info("Surveillance service routes configured")
}

// surveillanceReportHandler computes the full surveillance report for a
// facility and date range.
func (h *Handlers) surveillanceReportHandler(w http.ResponseWriter, r *http.Request) {
	facilityID, dr, ok := h.facilityAndRange(w, r)
	if !ok {
		return
	}

	report, err := h.service.GenerateReport(r.Context(), facilityID, dr)
	if err != nil {
		h.writeErrorResponse(w, http.StatusInternalServerError, "Failed to generate report", err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, report)
}

// exportHandler produces redacted export rows. The redaction profile comes
// from the bearer token's role claim; requests without a valid token, or
// with a role that maps to no profile, are rejected before redaction runs.
func (h *Handlers) exportHandler(w http.ResponseWriter, r *http.Request) {
	profile, err := h.validator.ResolveProfile(bearerToken(r))
	if err != nil {
		status := http.StatusUnauthorized
		if serr, ok := err.(*types.StewardshipError); ok && serr.Type == types.ErrorTypeAuthorization {
			status = http.StatusForbidden
		}
		h.writeErrorResponse(w, status, "Export not authorized", err)
		return
	}

	facilityID, dr, ok := h.facilityAndRange(w, r)
	if !ok {
		return
	}

	rows, err := h.service.ExportSurveillanceRows(r.Context(), facilityID, dr, profile)
	if err != nil {
		h.writeErrorResponse(w, http.StatusInternalServerError, "Failed to build export", err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"profile": string(profile),
		"rows":    rows,
	})
}

// importSnapshotHandler ingests a raw legacy snapshot document.
func (h *Handlers) importSnapshotHandler(w http.ResponseWriter, r *http.Request) {
	facilityID := r.URL.Query().Get("facility_id")
	if facilityID == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "facility_id is required", nil)
		return
	}

	var raw map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	snap, err := h.service.ImportSnapshot(r.Context(), facilityID, raw)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Failed to import snapshot", err)
		return
	}

	h.writeJSONResponse(w, http.StatusCreated, map[string]interface{}{
		"residents":      len(snap.ResidentsByMRN),
		"schema_version": snap.Meta.SchemaVersion,
	})
}

// recordWorkflowMetricHandler appends one workflow event.
func (h *Handlers) recordWorkflowMetricHandler(w http.ResponseWriter, r *http.Request) {
	facilityID := r.URL.Query().Get("facility_id")
	if facilityID == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "facility_id is required", nil)
		return
	}

	var metric types.WorkflowMetric
	if err := json.NewDecoder(r.Body).Decode(&metric); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if metric.Timestamp.IsZero() {
		metric.Timestamp = time.Now()
	}

	if err := h.service.RecordWorkflowMetric(r.Context(), facilityID, &metric); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Failed to record workflow metric", err)
		return
	}

	h.writeJSONResponse(w, http.StatusCreated, map[string]string{"message": "Workflow metric recorded"})
}

// workflowEfficiencyHandler returns process-efficiency statistics.
func (h *Handlers) workflowEfficiencyHandler(w http.ResponseWriter, r *http.Request) {
	facilityID := r.URL.Query().Get("facility_id")
	if facilityID == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "facility_id is required", nil)
		return
	}

	report, err := h.service.WorkflowEfficiency(r.Context(), facilityID)
	if err != nil {
		h.writeErrorResponse(w, http.StatusInternalServerError, "Failed to compute efficiency", err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, report)
}

// transitionOutbreakHandler advances an outbreak lifecycle state.
func (h *Handlers) transitionOutbreakHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	outbreakID := vars["outbreakID"]

	facilityID := r.URL.Query().Get("facility_id")
	if facilityID == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "facility_id is required", nil)
		return
	}

	var body struct {
		Target string `json:"target"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	updated, err := h.service.TransitionOutbreak(r.Context(), facilityID, outbreakID, types.OutbreakStatus(body.Target), time.Now())
	if err != nil {
		status := http.StatusBadRequest
		if serr, ok := err.(*types.StewardshipError); ok {
			switch serr.Type {
			case types.ErrorTypeNotFound:
				status = http.StatusNotFound
			case types.ErrorTypeConflict:
				status = http.StatusConflict
			}
		}
		h.writeErrorResponse(w, status, "Failed to transition outbreak", err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, updated)
}

// healthHandler reports service liveness.
func (h *Handlers) healthHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, h.service.Health(r.Context()))
}

// facilityAndRange extracts the facility id and inclusive date range from
// query parameters, writing the error response itself on failure.
func (h *Handlers) facilityAndRange(w http.ResponseWriter, r *http.Request) (string, dateutil.DateRange, bool) {
	facilityID := r.URL.Query().Get("facility_id")
	if facilityID == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "facility_id is required", nil)
		return "", dateutil.DateRange{}, false
	}

	dr, err := dateutil.NewRange(r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date"))
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid date range", err)
		return "", dateutil.DateRange{}, false
	}

	return facilityID, dr, true
}

// bearerToken extracts the bearer token from the Authorization header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// writeJSONResponse writes a JSON response
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.service.logger.WithError(err).Error("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (h *Handlers) writeErrorResponse(w http.ResponseWriter, statusCode int, message string, err error) {
	h.service.logger.WithError(err).Error(message)

	response := map[string]interface{}{
		"error":  message,
		"status": statusCode,
	}
	if err != nil {
		response["details"] = err.Error()
	}

	h.writeJSONResponse(w, statusCode, response)
}
