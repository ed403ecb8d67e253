package middleware

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/agendavendas/scheduling-api/internal/core/domain"
	"github.com/agendavendas/scheduling-api/internal/core/ports"
)

const (
	// ActorKey is the echo context key holding the caller's ports.Actor.
	ActorKey = "actor"

	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"
)

// Identity records the identity the caller asserts. Headers win over the
// seller_id and role query parameters. Nothing is verified: a malformed id
// is treated as absent and an unknown role as no role.
func Identity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			id := firstNonEmpty(req.Header.Get(HeaderUserID), c.QueryParam("seller_id"))
			role := firstNonEmpty(req.Header.Get(HeaderUserRole), c.QueryParam("role"))

			var actor ports.Actor
			if n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64); err == nil && n > 0 {
				actor.UserID = n
			}
			if r := domain.Role(strings.ToLower(strings.TrimSpace(role))); r.Valid() {
				actor.Role = r
			}

			c.Set(ActorKey, actor)
			return next(c)
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
