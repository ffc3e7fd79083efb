package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func newContext(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestExtractToken_BearerHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok123")
	c, _ := newContext(req)

	if got := extractToken(c); got != "tok123" {
		t.Errorf("expected tok123, got %q", got)
	}
}

func TestExtractToken_SessionCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "cookie-tok"})
	c, _ := newContext(req)

	if got := extractToken(c); got != "cookie-tok" {
		t.Errorf("expected cookie-tok, got %q", got)
	}
}

func TestExtractToken_MalformedHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	c, _ := newContext(req)

	if got := extractToken(c); got != "" {
		t.Errorf("expected empty token, got %q", got)
	}
}

func signToken(t *testing.T, key []byte, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	key := []byte("test-signing-key")
	mw := JWTMiddleware(JWTConfig{SigningKey: key})

	tokenStr := signToken(t, key, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		TenantID: "clinique_a",
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	c, _ := newContext(req)

	var userID string
	handler := mw(func(c echo.Context) error {
		userID = UserIDFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "user-42" {
		t.Errorf("expected user-42 in context, got %q", userID)
	}
	if tid := c.Get("jwt_tenant_id"); tid != "clinique_a" {
		t.Errorf("expected tenant claim propagated, got %v", tid)
	}
}

func TestJWTMiddleware_MissingToken(t *testing.T) {
	mw := JWTMiddleware(JWTConfig{SigningKey: []byte("k")})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c, _ := newContext(req)

	err := mw(func(c echo.Context) error { return nil })(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	key := []byte("test-signing-key")
	mw := JWTMiddleware(JWTConfig{SigningKey: key})

	tokenStr := signToken(t, key, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	c, _ := newContext(req)

	err := mw(func(c echo.Context) error { return nil })(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for expired token, got %v", err)
	}
}

func TestJWTMiddleware_MissingSubject(t *testing.T) {
	key := []byte("test-signing-key")
	mw := JWTMiddleware(JWTConfig{SigningKey: key})

	tokenStr := signToken(t, key, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	c, _ := newContext(req)

	err := mw(func(c echo.Context) error { return nil })(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for token without subject, got %v", err)
	}
}

func TestDevAuthMiddleware(t *testing.T) {
	mw := DevAuthMiddleware()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c, _ := newContext(req)

	var userID string
	handler := mw(func(c echo.Context) error {
		userID = UserIDFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "dev-user" {
		t.Errorf("expected dev identity, got %q", userID)
	}
}
