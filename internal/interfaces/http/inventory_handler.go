package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/planta-ops/internal/application/dto"
	"github.com/tu-usuario/planta-ops/internal/application/inventory"
	"github.com/tu-usuario/planta-ops/internal/domain/entity"
)

// InventoryHandler maneja las peticiones HTTP de items y stock (protegido).
type InventoryHandler struct {
	orchestrator *inventory.Orchestrator
	query        *inventory.QueryService
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(orchestrator *inventory.Orchestrator, query *inventory.QueryService) *InventoryHandler {
	return &InventoryHandler{orchestrator: orchestrator, query: query}
}

// CreateItem godoc
// @Summary      Crear item de inventario
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateItemRequest  true  "name, unit, quantity inicial, min_quantity opcional"
// @Success      201   {object}  dto.ItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/items [post]
func (h *InventoryHandler) CreateItem(c *fiber.Ctx) error {
	actorID := GetUserID(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CreateItemRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	item, err := h.orchestrator.CreateItem(c.Context(), actorID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(itemResponse(item))
}

// ListItems lista items paginados.
func (h *InventoryHandler) ListItems(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "paginación inválida"})
	}
	page.DefaultPage()
	items, err := h.query.ListItems(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.ItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, itemResponse(item))
	}
	return c.JSON(fiber.Map{"items": out, "limit": page.Limit, "offset": page.Offset})
}

// GetItem devuelve un item por id.
func (h *InventoryHandler) GetItem(c *fiber.Ctx) error {
	item, err := h.query.GetItem(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(itemResponse(item))
}

// GetAvailability godoc
// @Summary      Agregados derivados de un item (cantidad, reservado, disponible)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.AvailabilityResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id}/availability [get]
func (h *InventoryHandler) GetAvailability(c *fiber.Ctx) error {
	avail, err := h.query.GetAvailability(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(avail)
}

// ListItemLedger lista el libro de movimientos de un item.
func (h *InventoryHandler) ListItemLedger(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "paginación inválida"})
	}
	page.DefaultPage()
	entries, err := h.query.ListLedgerByItem(c.Context(), c.Params("id"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"entries": ledgerResponses(entries), "limit": page.Limit, "offset": page.Offset})
}

// LookupBarcode godoc
// @Summary      Resolver un código de barras escaneado (item o guía)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.BarcodeLookupResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/barcode/{code} [get]
func (h *InventoryHandler) LookupBarcode(c *fiber.Ctx) error {
	found, err := h.query.LookupBarcode(c.Context(), c.Params("code"))
	if err != nil {
		return respondError(c, err)
	}
	if found.Item != nil {
		item := itemResponse(found.Item)
		return c.JSON(dto.BarcodeLookupResponse{Type: "item", Item: &item})
	}
	guide := guideResponse(found.Guide)
	return c.JSON(dto.BarcodeLookupResponse{Type: "guide", Guide: &guide})
}

// GetLedgerEntry devuelve un asiento puntual del libro.
func (h *InventoryHandler) GetLedgerEntry(c *fiber.Ctx) error {
	entry, err := h.query.GetLedgerEntry(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ledgerResponse(entry))
}

// AddQuantity godoc
// @Summary      Entrada directa de stock (asiento ADD)
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustQuantityRequest  true  "item_id, quantity positiva, reason opcional"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/add [post]
func (h *InventoryHandler) AddQuantity(c *fiber.Ctx) error {
	actorID := GetUserID(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.AdjustQuantityRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.orchestrator.AddInventoryQuantity(c.Context(), actorID, in); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "entrada registrada"})
}

// RemoveQuantity godoc
// @Summary      Salida directa de stock (asiento REMOVE)
// @Description  Valida contra el disponible; force=true permite usar stock
//               reservado (requiere nivel supervisor) sin dejar cantidad negativa.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustQuantityRequest  true  "item_id, quantity positiva, force opcional"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/remove [post]
func (h *InventoryHandler) RemoveQuantity(c *fiber.Ctx) error {
	actorID := GetUserID(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.AdjustQuantityRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.orchestrator.RemoveInventoryQuantity(c.Context(), actorID, in); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "salida registrada"})
}

// DeleteItem borra un item sin líneas de demanda vivas.
func (h *InventoryHandler) DeleteItem(c *fiber.Ctx) error {
	actorID := GetUserID(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	if err := h.orchestrator.DeleteItem(c.Context(), actorID, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "item eliminado"})
}

func itemResponse(item *entity.InventoryItem) dto.ItemResponse {
	return dto.ItemResponse{
		ID:          item.ID,
		Barcode:     item.Barcode,
		Name:        item.Name,
		Unit:        item.Unit,
		Quantity:    item.Quantity,
		MinQuantity: item.MinQuantity,
		Price:       item.Price,
		Category:    item.Category,
		Location:    item.Location,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

func ledgerResponse(e *entity.LedgerEntry) dto.LedgerEntryResponse {
	return dto.LedgerEntryResponse{
		ID:        e.ID,
		ItemID:    e.ItemID,
		GuideID:   e.GuideID,
		Kind:      e.Kind,
		Quantity:  e.Quantity,
		Reason:    e.Reason,
		CreatedBy: e.CreatedBy,
		CreatedAt: e.CreatedAt,
	}
}

func ledgerResponses(entries []*entity.LedgerEntry) []dto.LedgerEntryResponse {
	out := make([]dto.LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, ledgerResponse(e))
	}
	return out
}

func guideResponse(g *entity.Guide) dto.GuideResponse {
	return dto.GuideResponse{
		ID:        g.ID,
		Barcode:   g.Barcode,
		Title:     g.Title,
		Status:    g.Status,
		CreatedBy: g.CreatedBy,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
}
