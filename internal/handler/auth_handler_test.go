package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trevnoctilla/campaigns-api/internal/auth"
)

func loginRequestContext(t *testing.T, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthHandler_Login(t *testing.T) {
	manager := auth.NewJWTManager("test-secret", time.Hour)
	handler := NewAuthHandler(manager, "operator-key")

	c, rec := loginRequestContext(t, `{"access_key":"operator-key"}`)
	if err := handler.Login(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	data, ok := payload.Data.(map[string]any)
	if !ok || data["token"] == "" {
		t.Fatalf("expected token in response, got %+v", payload.Data)
	}

	claims, err := manager.ParseToken(data["token"].(string))
	if err != nil {
		t.Fatalf("issued token must parse: %v", err)
	}
	if claims.Role != "operator" {
		t.Fatalf("expected operator role, got %q", claims.Role)
	}
}

func TestAuthHandler_WrongKey(t *testing.T) {
	handler := NewAuthHandler(auth.NewJWTManager("test-secret", time.Hour), "operator-key")

	c, rec := loginRequestContext(t, `{"access_key":"guess"}`)
	_ = handler.Login(c)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthHandler_MissingKey(t *testing.T) {
	handler := NewAuthHandler(auth.NewJWTManager("test-secret", time.Hour), "operator-key")

	c, rec := loginRequestContext(t, `{}`)
	_ = handler.Login(c)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
