package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harbordata/dbbroker/pkg/apperrors"
	"github.com/harbordata/dbbroker/pkg/auth"
	"github.com/harbordata/dbbroker/pkg/descriptor"
	"github.com/harbordata/dbbroker/pkg/jsonutil"
	"github.com/harbordata/dbbroker/pkg/logging"
	"github.com/harbordata/dbbroker/pkg/models"
	"github.com/harbordata/dbbroker/pkg/services"
)

// DatabaseRequest is the POST/PUT body for registering a connection.
// Port accepts both JSON strings and numbers since clients disagree.
type DatabaseRequest struct {
	Name             string          `json:"name"`
	ServerType       string          `json:"serverType"`
	EngineType       string          `json:"engineType"`
	Host             string          `json:"host"`
	Port             jsonutil.Port   `json:"port"`
	Username         string          `json:"username"`
	Password         *string         `json:"password"`
	Database         string          `json:"database"`
	ConnectionString string          `json:"connectionString"`
	SSL              bool            `json:"ssl"`
}

func (r *DatabaseRequest) toDescriptor() *descriptor.Request {
	return &descriptor.Request{
		Name:             r.Name,
		ServerType:       models.ServerType(r.ServerType),
		EngineType:       models.EngineType(r.EngineType),
		Host:             r.Host,
		Port:             r.Port.String(),
		Username:         r.Username,
		Password:         r.Password,
		Database:         r.Database,
		ConnectionString: r.ConnectionString,
		SSL:              r.SSL,
	}
}

// ListDatabasesResponse is the paginated listing envelope.
type ListDatabasesResponse struct {
	Databases   []*models.Connection `json:"databases"`
	Total       int                  `json:"total"`
	TotalPages  int                  `json:"totalPages"`
	CurrentPage int                  `json:"currentPage"`
}

// DatabasesHandler handles connection registry and lifecycle requests.
type DatabasesHandler struct {
	service services.ConnectionService
	logger  *zap.Logger
}

// NewDatabasesHandler creates a new databases handler.
func NewDatabasesHandler(service services.ConnectionService, logger *zap.Logger) *DatabasesHandler {
	return &DatabasesHandler{service: service, logger: logger}
}

// RegisterRoutes registers the databases routes on the given mux.
// Every route requires authentication.
func (h *DatabasesHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/databases", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("POST /api/databases", authMiddleware.RequireAuth(h.Add))
	mux.HandleFunc("GET /api/databases/{id}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PUT /api/databases/{id}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("DELETE /api/databases/{id}", authMiddleware.RequireAuth(h.Delete))
	mux.HandleFunc("POST /api/databases/{id}/test", authMiddleware.RequireAuth(h.Test))
	mux.HandleFunc("POST /api/databases/{id}/connect", authMiddleware.RequireAuth(h.Connect))
	mux.HandleFunc("POST /api/databases/{id}/disconnect", authMiddleware.RequireAuth(h.Disconnect))
	mux.HandleFunc("GET /api/databases/{id}/schema", authMiddleware.RequireAuth(h.Schema))
	mux.HandleFunc("GET /api/databases/{id}/table-data/{tableName}", authMiddleware.RequireAuth(h.TableData))
}

// List handles GET /api/databases with page/limit query parameters.
func (h *DatabasesHandler) List(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)

	databases, total, err := h.service.List(r.Context(), page, limit)
	if err != nil {
		h.writeServiceError(w, err, "Failed to list databases")
		return
	}
	if databases == nil {
		databases = []*models.Connection{}
	}

	totalPages := (total + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	response := ListDatabasesResponse{
		Databases:   databases,
		Total:       total,
		TotalPages:  totalPages,
		CurrentPage: page,
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/databases/{id}.
func (h *DatabasesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	conn, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "Failed to get database")
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"database": conn}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Add handles POST /api/databases. The descriptor is validated and
// live-tested before it is persisted.
func (h *DatabasesHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req DatabaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	conn, result, err := h.service.Add(r.Context(), req.toDescriptor())
	if err != nil {
		h.writeServiceError(w, err, "Failed to add database")
		return
	}

	response := map[string]any{
		"database": conn,
		"message":  result.Message,
	}
	if result.Warning != "" {
		response["warning"] = result.Warning
	}
	if err := WriteJSON(w, http.StatusCreated, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/databases/{id}.
func (h *DatabasesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req DatabaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	conn, result, err := h.service.Update(r.Context(), id, req.toDescriptor())
	if err != nil {
		h.writeServiceError(w, err, "Failed to update database")
		return
	}

	response := map[string]any{
		"database": conn,
		"message":  result.Message,
	}
	if result.Warning != "" {
		response["warning"] = result.Warning
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/databases/{id}.
func (h *DatabasesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, err, "Failed to delete database")
		return
	}

	response := map[string]any{
		"success": true,
		"message": "Database connection deleted",
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Test handles POST /api/databases/{id}/test.
func (h *DatabasesHandler) Test(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	result, err := h.service.Test(r.Context(), id)
	if err != nil {
		h.writeLifecycleError(w, err, "Connection test failed")
		return
	}

	response := map[string]any{
		"status":  "success",
		"message": result.Message,
	}
	if result.Warning != "" {
		response["warning"] = result.Warning
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Connect handles POST /api/databases/{id}/connect.
func (h *DatabasesHandler) Connect(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	conn, result, err := h.service.Connect(r.Context(), id)
	if err != nil {
		h.writeLifecycleError(w, err, "Failed to connect")
		return
	}

	response := map[string]any{
		"status":          string(conn.Status),
		"databasedetails": conn,
	}
	if result.Warning != "" {
		response["warning"] = result.Warning
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Disconnect handles POST /api/databases/{id}/disconnect.
func (h *DatabasesHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	conn, err := h.service.Disconnect(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "Failed to disconnect")
		return
	}

	response := map[string]any{
		"status":  string(conn.Status),
		"message": "Database disconnected",
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Schema handles GET /api/databases/{id}/schema.
func (h *DatabasesHandler) Schema(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	conn, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "Failed to get database")
		return
	}

	tables, err := h.service.GetSchema(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "Failed to fetch schema")
		return
	}
	if tables == nil {
		tables = []string{}
	}

	response := map[string]any{
		"tables":       tables,
		"collections":  []string{},
		"databaseType": string(conn.EngineType),
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// TableData handles GET /api/databases/{id}/table-data/{tableName}.
func (h *DatabasesHandler) TableData(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	tableName := r.PathValue("tableName")
	limit := queryInt(r, "limit", 0)

	rows, err := h.service.GetTableData(r.Context(), id, tableName, limit)
	if err != nil {
		h.writeServiceError(w, err, "Failed to fetch table data")
		return
	}
	if rows == nil {
		rows = []map[string]any{}
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"data": rows}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// pathID parses the {id} path segment, writing a 400 on failure.
func (h *DatabasesHandler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid database ID")
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}

func (h *DatabasesHandler) writeError(w http.ResponseWriter, statusCode int, message string) {
	if err := ErrorResponse(w, statusCode, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}

// writeServiceError maps service-layer errors onto HTTP responses. Engine
// errors surface their classified message; everything else gets a generic
// message so driver internals never leak to clients.
func (h *DatabasesHandler) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	statusCode, message := h.mapServiceError(err, fallback)
	h.writeError(w, statusCode, message)
}

// writeLifecycleError is writeServiceError plus the resulting status field,
// used by test/connect where clients track the lifecycle outcome.
func (h *DatabasesHandler) writeLifecycleError(w http.ResponseWriter, err error, fallback string) {
	statusCode, message := h.mapServiceError(err, fallback)
	if err := LifecycleErrorResponse(w, statusCode, message, string(models.StatusDisconnected)); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}

func (h *DatabasesHandler) mapServiceError(err error, fallback string) (int, string) {
	var engineErr *apperrors.EngineError
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, "Database connection not found"
	case errors.Is(err, apperrors.ErrNotConnected):
		return http.StatusBadRequest, "Database is not connected"
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusBadRequest, "A connection to this database already exists"
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest, strings.TrimPrefix(err.Error(), apperrors.ErrValidation.Error()+": ")
	case errors.As(err, &engineErr):
		return http.StatusBadRequest, engineErr.Message
	default:
		h.logger.Error(fallback, zap.String("error", logging.SanitizeError(err)))
		return http.StatusInternalServerError, fallback
	}
}
