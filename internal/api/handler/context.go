package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/agendavendas/scheduling-api/internal/api/middleware"
	"github.com/agendavendas/scheduling-api/internal/core/domain"
	"github.com/agendavendas/scheduling-api/internal/core/ports"
)

// ctxActor returns the identity asserted by the caller. The zero Actor
// means nothing was asserted.
func ctxActor(c echo.Context) ports.Actor {
	actor, _ := c.Get(middleware.ActorKey).(ports.Actor)
	return actor
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.InvalidField("id", "must be a positive integer")
	}
	return id, nil
}
