package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/agendavendas/scheduling-api/internal/core/domain"
	"github.com/agendavendas/scheduling-api/internal/core/ports"
)

type stubPolicy struct {
	authorizeFn func(actor ports.Actor, capability ports.Capability) error
}

func (p *stubPolicy) Authorize(actor ports.Actor, capability ports.Capability) error {
	return p.authorizeFn(actor, capability)
}

func runIdentity(t *testing.T, target string, headers map[string]string) ports.Actor {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	var got ports.Actor
	handler := Identity()(func(c echo.Context) error {
		got, _ = c.Get(ActorKey).(ports.Actor)
		return nil
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return got
}

func TestIdentity_ReadsQuery(t *testing.T) {
	actor := runIdentity(t, "/clients?seller_id=7&role=seller", nil)
	if actor.UserID != 7 || actor.Role != domain.RoleSeller {
		t.Fatalf("unexpected actor %+v", actor)
	}
}

func TestIdentity_HeadersWinOverQuery(t *testing.T) {
	actor := runIdentity(t, "/clients?seller_id=7&role=seller", map[string]string{
		HeaderUserID:   "3",
		HeaderUserRole: "Admin",
	})
	if actor.UserID != 3 || actor.Role != domain.RoleAdmin {
		t.Fatalf("unexpected actor %+v", actor)
	}
}

func TestIdentity_IgnoresGarbage(t *testing.T) {
	actor := runIdentity(t, "/clients?seller_id=abc&role=root", nil)
	if actor != (ports.Actor{}) {
		t.Fatalf("expected zero actor, got %+v", actor)
	}
}

func TestRequire_Allows(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(ActorKey, ports.Actor{UserID: 1, Role: domain.RoleAdmin})

	policy := &stubPolicy{authorizeFn: func(actor ports.Actor, capability ports.Capability) error {
		if actor.Role != domain.RoleAdmin || capability != ports.CapManageUsers {
			t.Fatalf("unexpected args: %+v %s", actor, capability)
		}
		return nil
	}}

	called := false
	handler := Require(policy, ports.CapManageUsers)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequire_Forbids(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	policy := &stubPolicy{authorizeFn: func(ports.Actor, ports.Capability) error {
		return domain.ErrForbidden
	}}
	handler := Require(policy, ports.CapManageUsers)(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	if err := handler(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
