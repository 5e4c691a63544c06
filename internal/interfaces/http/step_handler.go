package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/planta-ops/internal/application/dto"
	"github.com/tu-usuario/planta-ops/internal/application/inventory"
)

// StepHandler maneja el flujo de material a nivel de paso:
// NEEDED -> RESERVED -> ISSUED y sus reversas.
type StepHandler struct {
	orchestrator *inventory.Orchestrator
}

// NewStepHandler construye el handler.
func NewStepHandler(orchestrator *inventory.Orchestrator) *StepHandler {
	return &StepHandler{orchestrator: orchestrator}
}

// AddItem ata un material al paso como línea NEEDED.
func (h *StepHandler) AddItem(c *fiber.Ctx) error {
	actorID := GetUserID(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.UpsertGuideItemRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	line, err := h.orchestrator.AddStepItem(c.Context(), actorID, c.Params("id"), c.Params("itemId"), in.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"line_id": line.ID, "status": line.Status})
}

// Reserve pasa la línea del paso a RESERVED si el disponible alcanza.
func (h *StepHandler) Reserve(c *fiber.Ctx) error {
	return h.transition(c, h.orchestrator.ReserveStepItem, "material reservado")
}

// Issue entrega el material reservado del paso (descuenta stock físico).
func (h *StepHandler) Issue(c *fiber.Ctx) error {
	return h.transition(c, h.orchestrator.IssueStepItem, "material entregado")
}

// Release regresa la línea a NEEDED; desde ISSUED devuelve el material al stock.
func (h *StepHandler) Release(c *fiber.Ctx) error {
	return h.transition(c, h.orchestrator.ReleaseStepItem, "material liberado")
}

// transition factoriza el patrón común de las tres transiciones de estado.
func (h *StepHandler) transition(c *fiber.Ctx, op func(ctx context.Context, actorID, stepID, itemID string) error, message string) error {
	actorID := GetUserID(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	if err := op(c.Context(), actorID, c.Params("id"), c.Params("itemId")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": message})
}
