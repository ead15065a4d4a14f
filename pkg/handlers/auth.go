package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/harbordata/dbbroker/pkg/audit"
	"github.com/harbordata/dbbroker/pkg/auth"
)

// AuthHandler handles session endpoints. The broker is stateless apart from
// token revocation: logout marks the presented bearer token as revoked until
// it would have expired anyway.
type AuthHandler struct {
	service auth.AuthService
	auditor *audit.SecurityAuditor
	logger  *zap.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(service auth.AuthService, auditor *audit.SecurityAuditor, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{service: service, auditor: auditor, logger: logger}
}

// RegisterRoutes registers the auth handler's routes on the given mux.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/auth/logout", authMiddleware.RequireAuth(h.Logout))
}

// Logout handles POST /api/auth/logout. The token that authenticated this
// request is revoked; subsequent requests carrying it are rejected.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := auth.GetToken(r.Context())
	if !ok {
		_ = ErrorResponse(w, http.StatusUnauthorized, "No token to revoke")
		return
	}

	h.service.RevokeToken(token)
	h.auditor.LogTokenRevoked(r.Context())

	if err := WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out",
	}); err != nil {
		h.logger.Error("Failed to write logout response", zap.Error(err))
	}
}
