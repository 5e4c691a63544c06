package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/planta-ops/internal/application/dto"
	"github.com/tu-usuario/planta-ops/internal/application/inventory"
)

// GuideHandler maneja las peticiones HTTP de guías de producción y su material
// (protegido).
type GuideHandler struct {
	orchestrator *inventory.Orchestrator
	query        *inventory.QueryService
}

// NewGuideHandler construye el handler.
func NewGuideHandler(orchestrator *inventory.Orchestrator, query *inventory.QueryService) *GuideHandler {
	return &GuideHandler{orchestrator: orchestrator, query: query}
}

// CreateGuide godoc
// @Summary      Crear guía de producción con materiales
// @Description  Crea la guía (código de barras PG-AÑO-SEC-RAND) y reserva los
//               materiales. El éxito parcial es explícito: los items que fallan
//               viajan en errors sin abortar a los demás.
// @Tags         guides
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateGuideRequest  true  "title, items[{item_id, quantity}]"
// @Success      201   {object}  dto.CreateGuideResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/guides [post]
func (h *GuideHandler) CreateGuide(c *fiber.Ctx) error {
	actorID := GetUserID(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CreateGuideRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	resp, err := h.orchestrator.CreateGuideWithMaterials(c.Context(), actorID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// UpsertGuideItem agrega o actualiza un material de la guía (idempotente).
func (h *GuideHandler) UpsertGuideItem(c *fiber.Ctx) error {
	actorID := GetUserID(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.UpsertGuideItemRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.orchestrator.AddOrUpdateGuideItem(c.Context(), actorID, c.Params("id"), c.Params("itemId"), in.Quantity); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "material actualizado"})
}

// RemoveGuideItem quita un material de la guía con RELEASE compensatorio.
func (h *GuideHandler) RemoveGuideItem(c *fiber.Ctx) error {
	actorID := GetUserID(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	if err := h.orchestrator.RemoveGuideItem(c.Context(), actorID, c.Params("id"), c.Params("itemId")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "material eliminado"})
}

// Withdraw godoc
// @Summary      Retirar material reservado de una guía
// @Description  Por cada (item, cantidad): descuenta stock físico, asienta el
//               ISSUE y aplica split/flip de la línea. Errores por item en errors.
// @Tags         guides
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.WithdrawRequest  true  "items[{item_id, quantity}]"
// @Success      200   {object}  dto.WithdrawResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/guides/{id}/withdraw [post]
func (h *GuideHandler) Withdraw(c *fiber.Ctx) error {
	actorID := GetUserID(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.WithdrawRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	resp, err := h.orchestrator.WithdrawReservedItems(c.Context(), actorID, c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// DeleteGuide borra la guía en cascada con RELEASE compensatorios.
func (h *GuideHandler) DeleteGuide(c *fiber.Ctx) error {
	actorID := GetUserID(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	if err := h.orchestrator.DeleteGuide(c.Context(), actorID, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "guía eliminada"})
}

// ListGuideLedger lista los asientos del libro referidos a una guía (funciona
// aunque la guía ya haya sido borrada).
func (h *GuideHandler) ListGuideLedger(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "paginación inválida"})
	}
	page.DefaultPage()
	entries, err := h.query.ListLedgerByGuide(c.Context(), c.Params("id"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"entries": ledgerResponses(entries), "limit": page.Limit, "offset": page.Offset})
}
