package billing

import (
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRegisterRoutes(t *testing.T) {
	e := echo.New()
	h := NewHandler(NewService(&mockChargeRepo{}, &mockPolicyRepo{}, &mockVisitSource{}, &trackingRunner{}))
	h.RegisterRoutes(e.Group("/api/v1"))

	want := map[string]bool{
		"POST /api/v1/visits/:id/charges":   true,
		"GET /api/v1/visits/:id/charges":    true,
		"POST /api/v1/charges/:id/reverse":  true,
		"GET /api/v1/visits/:id/summary":    true,
		"POST /api/v1/visits/:id/policies":  true,
		"GET /api/v1/visits/:id/policies":   true,
		"PUT /api/v1/policies/:id/approval": true,
	}
	for _, r := range e.Routes() {
		delete(want, r.Method+" "+r.Path)
	}
	for route := range want {
		t.Errorf("route not registered: %s", route)
	}
}
