package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/agendavendas/scheduling-api/internal/core/domain"
	"github.com/agendavendas/scheduling-api/internal/core/ports"
)

// ClientHandler handles HTTP requests for client records.
type ClientHandler struct {
	service ports.ClientService
	policy  ports.AccessPolicy
	loc     *time.Location
}

// NewClientHandler creates a ClientHandler. Timestamps are parsed and
// rendered in loc; nil means UTC.
func NewClientHandler(service ports.ClientService, policy ports.AccessPolicy, loc *time.Location) *ClientHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ClientHandler{service: service, policy: policy, loc: loc}
}

// List returns the caller's clients, or every client for admins.
//
// @Summary      List clients
// @Tags         clients
// @Produce      json
// @Param        seller_id  query     int     false  "Seller whose clients to list"
// @Param        role       query     string  false  "admin lists every client"  Enums(admin, seller)
// @Param        view       query     string  false  "Agenda tab"  Enums(today, day, week, month, unscheduled, history)
// @Param        date       query     string  false  "Anchor day for day/week/month (YYYY-MM-DD)"
// @Param        q          query     string  false  "Name or phone search"
// @Success      200        {array}   clientResponse
// @Failure      400        {object}  errorResponse
// @Failure      403        {object}  errorResponse
// @Router       /clients [get]
func (h *ClientHandler) List(c echo.Context) error {
	actor := ctxActor(c)
	if actor.Role == domain.RoleAdmin {
		if err := h.policy.Authorize(actor, ports.CapReadAllClients); err != nil {
			return err
		}
	}

	date, err := parseDate(c.QueryParam("date"), h.loc)
	if err != nil {
		return err
	}

	views, err := h.service.ListClients(c.Request().Context(), ports.ListClientsInput{
		SellerID: actor.UserID,
		Role:     actor.Role,
		Filter: domain.ClientFilter{
			View:  domain.View(c.QueryParam("view")),
			Date:  date,
			Query: c.QueryParam("q"),
		},
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toClientResponses(views, h.loc))
}

// Create stores a new pending client.
//
// @Summary      Create a client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        body  body      createClientRequest  true  "Client"
// @Success      200   {object}  clientResponse
// @Failure      400   {object}  errorResponse
// @Router       /clients [post]
func (h *ClientHandler) Create(c echo.Context) error {
	var req createClientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	at, err := parseSchedule(req.ScheduledAt, h.loc)
	if err != nil {
		return err
	}

	view, err := h.service.CreateClient(c.Request().Context(), toNewClient(req, at))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toClientResponse(view, h.loc))
}

// Update replaces a client's editable fields. Sending status=completed
// concludes it; status=pending reopens it.
//
// @Summary      Update a client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        id    path      int                  true  "Client id"
// @Param        body  body      updateClientRequest  true  "Client"
// @Success      200   {object}  clientResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /clients/{id} [put]
func (h *ClientHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req updateClientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	at, err := parseSchedule(req.ScheduledAt, h.loc)
	if err != nil {
		return err
	}

	view, err := h.service.UpdateClient(c.Request().Context(), id, toClientChanges(req, at))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toClientResponse(view, h.loc))
}

// Delete removes a client.
//
// @Summary      Delete a client
// @Tags         clients
// @Produce      json
// @Param        id   path      int  true  "Client id"
// @Success      200  {object}  successResponse
// @Failure      404  {object}  errorResponse
// @Router       /clients/{id} [delete]
func (h *ClientHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteClient(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, successResponse{Success: true})
}
