package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/agendavendas/scheduling-api/internal/core/ports"
)

// Require asks policy whether the caller holds capability. Must run after
// Identity.
func Require(policy ports.AccessPolicy, capability ports.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, _ := c.Get(ActorKey).(ports.Actor)
			if err := policy.Authorize(actor, capability); err != nil {
				return err
			}
			return next(c)
		}
	}
}
