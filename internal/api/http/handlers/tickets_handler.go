package handlers

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/curadesk/support-platform/internal/api/dto"
	"github.com/curadesk/support-platform/internal/auth"
	"github.com/curadesk/support-platform/internal/authz"
	"github.com/curadesk/support-platform/internal/ticket"
	"github.com/curadesk/support-platform/pkg/util/errorutil"
)

// TicketsHandler manages the customer-facing ticket endpoints.
type TicketsHandler struct {
	service *ticket.Service
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(service *ticket.Service) *TicketsHandler {
	return &TicketsHandler{service: service}
}

// CreateTicket POST /tickets. Multipart form: `description` plus an optional
// `zip` part carrying a diagnostic bundle.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	description := c.FormValue("description")
	var (
		bundle   []byte
		fileName string
	)
	if header, err := c.FormFile("zip"); err == nil {
		file, err := header.Open()
		if err != nil {
			return errorutil.NewMalformed("unreadable zip part", nil)
		}
		defer file.Close()
		bundle, err = io.ReadAll(file)
		if err != nil {
			return errorutil.NewMalformed("unreadable zip part", nil)
		}
		fileName = header.Filename
	}

	created, stored, err := h.service.Create(c.UserContext(), principal, description, bundle, fileName)
	if err != nil {
		return err
	}

	response := fiber.Map{"data": dto.NewTicketSummary(created)}
	if stored != nil {
		response["bundle"] = dto.NewBundleSummary(stored)
	}
	return c.Status(fiber.StatusCreated).JSON(response)
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	tickets, err := h.service.ListOwned(c.UserContext(), principal, c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}

	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticketID, err := parseID(c)
	if err != nil {
		return err
	}

	found, comments, err := h.service.Get(c.UserContext(), principal, ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(found, comments)})
}

// DownloadBundle GET /tickets/:id/zip. Streams the stored original bytes.
func (h *TicketsHandler) DownloadBundle(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticketID, err := parseID(c)
	if err != nil {
		return err
	}

	bundle, file, err := h.service.OpenBundle(c.UserContext(), principal, ticketID)
	if err != nil {
		return err
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return errorutil.NewInternalError(err)
	}

	name := bundle.FileName
	if name == "" {
		name = "bundle.zip"
	}
	c.Set(fiber.HeaderContentType, "application/zip")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.SendStream(file, int(stat.Size()))
}

func requirePrincipal(c *fiber.Ctx) (authz.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return authz.Principal{}, errorutil.NewUnauthenticated("authentication required")
	}
	return principal, nil
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errorutil.NewMalformed("invalid ticket id", nil)
	}
	return id, nil
}
