package db

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func tenantContext(setup func(c echo.Context, req *http.Request)) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if setup != nil {
		setup(c, req)
	}
	return c
}

func TestExtractTenantID_Default(t *testing.T) {
	c := tenantContext(nil)
	if got := extractTenantID(c, "default"); got != "default" {
		t.Errorf("expected default tenant, got %q", got)
	}
}

func TestExtractTenantID_Header(t *testing.T) {
	c := tenantContext(func(_ echo.Context, req *http.Request) {
		req.Header.Set("X-Tenant-ID", "clinique_a")
	})
	if got := extractTenantID(c, "default"); got != "clinique_a" {
		t.Errorf("expected clinique_a, got %q", got)
	}
}

func TestExtractTenantID_JWTClaimWins(t *testing.T) {
	c := tenantContext(func(c echo.Context, req *http.Request) {
		req.Header.Set("X-Tenant-ID", "header_tenant")
		c.Set("jwt_tenant_id", "jwt_tenant")
	})
	if got := extractTenantID(c, "default"); got != "jwt_tenant" {
		t.Errorf("expected jwt claim to win, got %q", got)
	}
}

func TestTenantMiddleware_SkipsPublicPaths(t *testing.T) {
	c := tenantContext(func(c echo.Context, _ *http.Request) {
		c.SetPath("/health")
	})

	// nil pool: a skipped request must never touch the database.
	mw := TenantMiddleware(nil, "default", func(c echo.Context) bool {
		return c.Path() == "/health"
	})

	var handlerCalled bool
	handler := func(c echo.Context) error {
		handlerCalled = true
		if conn := ConnFromContext(c.Request().Context()); conn != nil {
			t.Error("expected no tenant connection on skipped path")
		}
		return c.String(http.StatusOK, "ok")
	}

	if err := mw(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handlerCalled {
		t.Error("handler was not called for skipped path")
	}
}

func TestTenantIDPattern(t *testing.T) {
	valid := []string{"default", "clinique_a", "Tenant01"}
	for _, id := range valid {
		if !tenantIDPattern.MatchString(id) {
			t.Errorf("expected %q to be valid", id)
		}
	}

	invalid := []string{"", "a-b", "x;DROP SCHEMA public", "a b", "é"}
	for _, id := range invalid {
		if tenantIDPattern.MatchString(id) {
			t.Errorf("expected %q to be rejected", id)
		}
	}
}
