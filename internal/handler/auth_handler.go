package handler

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trevnoctilla/campaigns-api/internal/auth"
)

// AuthHandler exchanges the operator access key for a bearer token. There
// is no user store; user management lives in the hosting backend.
type AuthHandler struct {
	jwtManager  *auth.JWTManager
	operatorKey string
}

// NewAuthHandler wires the handler with the configured operator key.
func NewAuthHandler(jwtManager *auth.JWTManager, operatorKey string) *AuthHandler {
	return &AuthHandler{jwtManager: jwtManager, operatorKey: operatorKey}
}

type loginRequest struct {
	AccessKey string `json:"access_key"`
}

// Login handles POST /auth/login requests.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	key := strings.TrimSpace(req.AccessKey)
	if key == "" {
		return Error(c, http.StatusBadRequest, "access_key is required")
	}
	if subtle.ConstantTimeCompare([]byte(key), []byte(h.operatorKey)) != 1 {
		return Error(c, http.StatusUnauthorized, "invalid access key")
	}

	token, err := h.jwtManager.GenerateToken("operator", "operator")
	if err != nil {
		return Error(c, http.StatusInternalServerError, "failed to issue token")
	}
	return Success(c, http.StatusOK, "authenticated", map[string]any{"token": token})
}
