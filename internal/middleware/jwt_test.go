package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	authpkg "github.com/trevnoctilla/campaigns-api/internal/auth"
)

func issueToken(t *testing.T, manager *authpkg.JWTManager) string {
	t.Helper()
	token, err := manager.GenerateToken("operator", "operator")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func runJWT(t *testing.T, manager *authpkg.JWTManager, decorate func(*http.Request)) (*httptest.ResponseRecorder, echo.Context, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/campaigns", nil)
	if decorate != nil {
		decorate(req)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := JWT(manager)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec, c, called
}

func TestJWT_MissingAuthorization(t *testing.T) {
	manager := authpkg.NewJWTManager("test-secret", time.Hour)

	rec, _, called := runJWT(t, manager, nil)
	if called {
		t.Fatalf("next handler must not run")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestJWT_InvalidToken(t *testing.T) {
	manager := authpkg.NewJWTManager("test-secret", time.Hour)

	rec, _, called := runJWT(t, manager, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer not-a-token")
	})
	if called || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected rejection, called=%v code=%d", called, rec.Code)
	}
}

func TestJWT_BearerToken(t *testing.T) {
	manager := authpkg.NewJWTManager("test-secret", time.Hour)
	token := issueToken(t, manager)

	rec, c, called := runJWT(t, manager, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	})
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected pass-through, called=%v code=%d", called, rec.Code)
	}
	if role, _ := c.Get(ContextKeyUserRole).(string); role != "operator" {
		t.Fatalf("expected role in context, got %q", role)
	}
}

func TestJWT_QueryParamToken(t *testing.T) {
	manager := authpkg.NewJWTManager("test-secret", time.Hour)
	token := issueToken(t, manager)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/campaigns/x/events?token="+token, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := JWT(manager)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("expected query token accepted")
	}
}
