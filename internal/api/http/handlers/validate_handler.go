package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/curadesk/support-platform/internal/api/dto"
	"github.com/curadesk/support-platform/internal/identity"
	"github.com/curadesk/support-platform/internal/observability"
)

// ValidateHandler serves the trust-boundary check on the identity side.
type ValidateHandler struct {
	validator *identity.Validator
	metrics   *observability.Metrics
}

// NewValidateHandler constructs handler.
func NewValidateHandler(validator *identity.Validator, metrics *observability.Metrics) *ValidateHandler {
	return &ValidateHandler{validator: validator, metrics: metrics}
}

// Validate POST /validate. Every failure, including an unparseable body,
// produces 200 with `{"valid": false}`. Anything else would tell a caller
// which check a candidate key failed.
func (h *ValidateHandler) Validate(c *fiber.Ctx) error {
	var req dto.ValidateRequest
	if err := c.BodyParser(&req); err != nil || dto.Validate(&req) != nil {
		h.metrics.RecordVerdict(false)
		return c.JSON(dto.ValidateResponse{Valid: false})
	}

	verdict := h.validator.Validate(c.UserContext(), req.APIKey)
	h.metrics.RecordVerdict(verdict.Valid)
	return c.JSON(dto.NewValidateResponse(verdict))
}
