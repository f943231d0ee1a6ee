package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func requestWithRoles(roles ...string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.WithValue(req.Context(), UserRolesKey, roles)
	ctx = context.WithValue(ctx, UserIDKey, "u-1")
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func TestRequireRole_Allows(t *testing.T) {
	mw := RequireRole(RoleBilling)
	called := false
	h := mw(func(c echo.Context) error {
		called = true
		return nil
	})
	if err := h(requestWithRoles("billing")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected handler to be called")
	}
}

func TestRequireRole_AdminOverride(t *testing.T) {
	mw := RequireRole(RoleBilling)
	h := mw(func(c echo.Context) error { return nil })
	if err := h(requestWithRoles("admin")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequireRole_Forbidden(t *testing.T) {
	mw := RequireRole(RoleBilling)
	h := mw(func(c echo.Context) error { return nil })
	err := h(requestWithRoles("reception"))
	if err == nil {
		t.Fatal("expected error for missing role")
	}
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %v", err)
	}
}

func TestActorFromContext(t *testing.T) {
	c := requestWithRoles("billing")
	a := ActorFromContext(c.Request().Context())
	if a.ID != "u-1" {
		t.Errorf("expected actor id u-1, got %s", a.ID)
	}
	if a.Role != RoleBilling {
		t.Errorf("expected billing role, got %s", a.Role)
	}
}

func TestActorFromContext_UnknownRoleDefaults(t *testing.T) {
	c := requestWithRoles("janitor")
	a := ActorFromContext(c.Request().Context())
	if a.Role != RoleReception {
		t.Errorf("expected reception fallback, got %s", a.Role)
	}
}
