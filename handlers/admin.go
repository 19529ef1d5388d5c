package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"mmjira/appctx"
	"mmjira/clients"
	"mmjira/core"
	"mmjira/middleware"
	"mmjira/models"
	"mmjira/models/api"
	"mmjira/services"
	"mmjira/utils"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// AdminHTTPHandler serves the mapping, log and report management API
type AdminHTTPHandler struct {
	mappingsService services.MappingsService
	logsService     services.InvocationLogsService
	reportsService  services.ReportsService
	tracker         clients.TrackerClient
}

func NewAdminHTTPHandler(
	mappingsService services.MappingsService,
	logsService services.InvocationLogsService,
	reportsService services.ReportsService,
	tracker clients.TrackerClient,
) *AdminHTTPHandler {
	return &AdminHTTPHandler{
		mappingsService: mappingsService,
		logsService:     logsService,
		reportsService:  reportsService,
		tracker:         tracker,
	}
}

func (h *AdminHTTPHandler) HandleListMappings(w http.ResponseWriter, r *http.Request) {
	log.Printf("📋 List mappings request received from %s", adminName(r))

	mappings, err := h.mappingsService.ListMappings(r.Context())
	if err != nil {
		log.Printf("❌ Failed to list mappings: %v", err)
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, api.DomainMappingsToAPIMappings(mappings))
}

func (h *AdminHTTPHandler) HandleCreateMapping(w http.ResponseWriter, r *http.Request) {
	log.Printf("➕ Create mapping request received from %s", adminName(r))

	var req api.CreateMappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Failed to decode request body: %v", err)
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	mapping, err := h.mappingsService.CreateMapping(r.Context(), req.ChannelID, req.ChannelName, req.ProjectKey)
	if err != nil {
		log.Printf("❌ Failed to create mapping: %v", err)
		writeServiceError(w, err)
		return
	}

	log.Printf("✅ Mapping created: %s → %s", mapping.ChannelID, mapping.ProjectKey)
	writeJSONResponse(w, http.StatusCreated, api.DomainMappingToAPIMapping(mapping))
}

func (h *AdminHTTPHandler) HandleDeleteMapping(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	log.Printf("🗑️ Delete mapping %s request received from %s", id, adminName(r))

	if err := h.mappingsService.DeleteMappingByID(r.Context(), id); err != nil {
		log.Printf("❌ Failed to delete mapping %s: %v", id, err)
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHTTPHandler) HandleListLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filters := models.LogFilters{
		ChannelID: query.Get("channel_id"),
		UserName:  query.Get("user_name"),
		Status:    models.InvocationStatus(query.Get("status")),
	}
	page := queryInt(r, "page", 1)
	pageSize := min(queryInt(r, "page_size", defaultPageSize), maxPageSize)

	result, err := h.logsService.QueryLogs(r.Context(), filters, page, pageSize)
	if err != nil {
		log.Printf("❌ Failed to query logs: %v", err)
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, api.DomainLogPageToAPILogPage(result))
}

func (h *AdminHTTPHandler) HandleLogStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.logsService.GetStatistics(r.Context())
	if err != nil {
		log.Printf("❌ Failed to get log statistics: %v", err)
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, stats)
}

func (h *AdminHTTPHandler) HandleGetLog(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	entry, err := h.logsService.GetLogByID(r.Context(), id)
	if err != nil {
		log.Printf("❌ Failed to get log %s: %v", id, err)
		writeServiceError(w, err)
		return
	}
	if entry.IsAbsent() {
		writeErrorJSON(w, http.StatusNotFound, "log entry not found")
		return
	}

	writeJSONResponse(w, http.StatusOK, api.DomainLogToAPILogDetail(entry.MustGet()))
}

// HandleDeleteLogs clears everything, or only entries older than older_than_days when given.
func (h *AdminHTTPHandler) HandleDeleteLogs(w http.ResponseWriter, r *http.Request) {
	log.Printf("🗑️ Delete logs request received from %s", adminName(r))

	var (
		deleted int64
		err     error
	)
	if raw := r.URL.Query().Get("older_than_days"); raw != "" {
		days, convErr := strconv.Atoi(raw)
		if convErr != nil || days <= 0 {
			writeErrorJSON(w, http.StatusBadRequest, "older_than_days must be a positive integer")
			return
		}
		deleted, err = h.logsService.CleanupOldLogs(r.Context(), days)
	} else {
		deleted, err = h.logsService.ClearLogs(r.Context())
	}
	if err != nil {
		log.Printf("❌ Failed to delete logs: %v", err)
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, api.DeletedModel{Deleted: deleted})
}

func (h *AdminHTTPHandler) HandleListIssueTypes(w http.ResponseWriter, r *http.Request) {
	projectKey, err := utils.NormalizeProjectKey(mux.Vars(r)["key"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	issueTypes, err := h.tracker.GetIssueTypes(r.Context(), projectKey)
	if err != nil {
		log.Printf("❌ Failed to get issue types for %s: %v", projectKey, err)
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, issueTypes)
}

func (h *AdminHTTPHandler) HandleSubmitReport(w http.ResponseWriter, r *http.Request) {
	log.Printf("📝 Report submission received from %s", adminName(r))

	var report models.Report
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		log.Printf("❌ Failed to decode request body: %v", err)
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// server side file paths are only accepted from the CLI
	if len(report.AttachmentPaths) > 0 {
		writeErrorJSON(w, http.StatusBadRequest, "attachment_paths are not accepted over HTTP")
		return
	}

	result, err := h.reportsService.SubmitReport(r.Context(), report)
	if err != nil {
		log.Printf("❌ Failed to submit report: %v", err)
		writeServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Created == nil {
		status = http.StatusOK
	}
	writeJSONResponse(w, status, result)
}

func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AdminHTTPHandler) SetupEndpoints(router *mux.Router, authMiddleware *middleware.ClerkAuthMiddleware) {
	log.Printf("🚀 Registering admin API endpoints")

	router.HandleFunc("/health", HandleHealth).Methods("GET")
	log.Printf("✅ GET /health endpoint registered")

	router.HandleFunc("/api/mappings", authMiddleware.WithAuth(h.HandleListMappings)).Methods("GET")
	log.Printf("✅ GET /api/mappings endpoint registered")

	router.HandleFunc("/api/mappings", authMiddleware.WithAuth(h.HandleCreateMapping)).Methods("POST")
	log.Printf("✅ POST /api/mappings endpoint registered")

	router.HandleFunc("/api/mappings/{id}", authMiddleware.WithAuth(h.HandleDeleteMapping)).Methods("DELETE")
	log.Printf("✅ DELETE /api/mappings/{id} endpoint registered")

	router.HandleFunc("/api/logs", authMiddleware.WithAuth(h.HandleListLogs)).Methods("GET")
	log.Printf("✅ GET /api/logs endpoint registered")

	router.HandleFunc("/api/logs", authMiddleware.WithAuth(h.HandleDeleteLogs)).Methods("DELETE")
	log.Printf("✅ DELETE /api/logs endpoint registered")

	router.HandleFunc("/api/logs/stats", authMiddleware.WithAuth(h.HandleLogStatistics)).Methods("GET")
	log.Printf("✅ GET /api/logs/stats endpoint registered")

	router.HandleFunc("/api/logs/{id}", authMiddleware.WithAuth(h.HandleGetLog)).Methods("GET")
	log.Printf("✅ GET /api/logs/{id} endpoint registered")

	router.HandleFunc("/api/projects/{key}/issue-types", authMiddleware.WithAuth(h.HandleListIssueTypes)).
		Methods("GET")
	log.Printf("✅ GET /api/projects/{key}/issue-types endpoint registered")

	router.HandleFunc("/api/reports", authMiddleware.WithAuth(h.HandleSubmitReport)).Methods("POST")
	log.Printf("✅ POST /api/reports endpoint registered")

	log.Printf("✅ All admin API endpoints registered successfully")
}

// writeServiceError maps the error taxonomy onto HTTP statuses
func writeServiceError(w http.ResponseWriter, err error) {
	var (
		validationErr *core.ValidationError
		configErr     *core.ConfigurationError
		apiErr        *core.APIError
		transportErr  *core.TransportError
	)

	switch {
	case errors.As(err, &validationErr):
		writeErrorJSON(w, http.StatusBadRequest, validationErr.Message)
	case errors.Is(err, core.ErrAlreadyExists):
		writeErrorJSON(w, http.StatusConflict, err.Error())
	case core.IsNotFoundError(err):
		writeErrorJSON(w, http.StatusNotFound, err.Error())
	case errors.As(err, &configErr):
		writeErrorJSON(w, http.StatusServiceUnavailable, configErr.Error())
	case errors.As(err, &apiErr):
		writeErrorJSON(w, http.StatusBadGateway, apiErr.Message)
	case errors.As(err, &transportErr):
		writeErrorJSON(w, http.StatusBadGateway, "tracker unreachable")
	default:
		writeErrorJSON(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeErrorJSON(w http.ResponseWriter, statusCode int, message string) {
	writeJSONResponse(w, statusCode, map[string]string{"error": message})
}

func writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("❌ Failed to encode JSON response: %v", err)
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	value, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func adminName(r *http.Request) string {
	if admin, ok := appctx.GetAdmin(r.Context()); ok {
		return admin.AuthProviderID
	}
	return r.RemoteAddr
}
