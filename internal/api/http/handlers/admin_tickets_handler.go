package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/curadesk/support-platform/internal/api/dto"
	"github.com/curadesk/support-platform/internal/domain"
	"github.com/curadesk/support-platform/internal/ticket"
	"github.com/curadesk/support-platform/pkg/util/errorutil"
)

// AdminTicketsHandler serves the staff ticket surface. Routes using it sit
// behind the staff guard; per-action authorization still runs in the service.
type AdminTicketsHandler struct {
	service *ticket.Service
	tickets *TicketsHandler
}

// NewAdminTicketsHandler constructs handler.
func NewAdminTicketsHandler(service *ticket.Service, tickets *TicketsHandler) *AdminTicketsHandler {
	return &AdminTicketsHandler{service: service, tickets: tickets}
}

// ListTickets GET /admin/tickets.
func (h *AdminTicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	tickets, err := h.service.ListAll(c.UserContext(), principal, c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}

	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /admin/tickets/:id.
func (h *AdminTicketsHandler) GetTicket(c *fiber.Ctx) error {
	return h.tickets.GetTicket(c)
}

// UpdateState PUT /admin/tickets/:id/state.
func (h *AdminTicketsHandler) UpdateState(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticketID, err := parseID(c)
	if err != nil {
		return err
	}

	var req dto.UpdateStateRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewMalformed("invalid payload", nil)
	}
	if err := dto.Validate(&req); err != nil {
		return errorutil.NewMalformed("state required", nil)
	}
	state, ok := domain.ParseTicketState(req.State)
	if !ok {
		return errorutil.NewMalformed("unknown state", map[string]any{"state": req.State})
	}

	updated, err := h.service.ChangeState(c.UserContext(), principal, ticketID, state)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(updated)})
}

// AddComment POST /admin/tickets/:id/comments.
func (h *AdminTicketsHandler) AddComment(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticketID, err := parseID(c)
	if err != nil {
		return err
	}

	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewMalformed("invalid payload", nil)
	}
	if err := dto.Validate(&req); err != nil {
		return errorutil.NewMalformed("body required", nil)
	}

	comment, err := h.service.AddComment(c.UserContext(), principal, ticketID, req.Body)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewCommentResponse(comment)})
}

// DownloadBundle GET /admin/tickets/:id/zip.
func (h *AdminTicketsHandler) DownloadBundle(c *fiber.Ctx) error {
	return h.tickets.DownloadBundle(c)
}
