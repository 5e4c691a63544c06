package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/planta-ops/internal/application/dto"
	"github.com/tu-usuario/planta-ops/internal/domain"
	"github.com/tu-usuario/planta-ops/internal/domain/entity"
	"github.com/tu-usuario/planta-ops/internal/domain/repository"
)

// Prefijo por defecto para códigos de barras de items.
const defaultItemPrefix = "IT"

// CreateItem crea un item de inventario con código asignado por el allocator
// (reintento en colisión dentro de la misma tx). Si trae stock inicial se
// asienta un ADD para que el libro y la cantidad nazcan reconciliados.
func (o *Orchestrator) CreateItem(ctx context.Context, actorID string, in dto.CreateItemRequest) (*entity.InventoryItem, error) {
	if err := o.authorize(ctx, actorID, ModuleInventory, ActionAdjust, LevelOperator); err != nil {
		return nil, err
	}
	if in.Name == "" || in.Unit == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.Quantity.LessThan(decimal.Zero) {
		return nil, domain.ErrInvalidQuantity
	}
	prefix := in.BarcodePrefix
	if prefix == "" {
		prefix = defaultItemPrefix
	}

	now := time.Now()
	item := &entity.InventoryItem{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Unit:        in.Unit,
		Quantity:    in.Quantity,
		MinQuantity: in.MinQuantity,
		Price:       in.Price,
		Category:    in.Category,
		Location:    in.Location,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := o.txRunner.Run(ctx, func(
		itemRepo repository.ItemRepository,
		ledgerRepo repository.LedgerRepository,
		lineRepo repository.DemandLineRepository,
		guideRepo repository.GuideRepository,
	) error {
		if _, err := o.allocator.AllocateItem(prefix, func(candidate string) error {
			item.Barcode = candidate
			return itemRepo.Create(item)
		}); err != nil {
			return err
		}
		if item.Quantity.GreaterThan(decimal.Zero) {
			return appendEntry(ledgerRepo, item.ID, nil, entity.EntryADD, item.Quantity, "stock inicial", actorID, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.audit.Record(ctx, actorID, "create_item", ModuleInventory, item.ID, map[string]any{
		"barcode":  item.Barcode,
		"quantity": item.Quantity.String(),
	})
	return item, nil
}

// AddInventoryQuantity entrada directa de stock, sin guía asociada.
func (o *Orchestrator) AddInventoryQuantity(ctx context.Context, actorID string, in dto.AdjustQuantityRequest) error {
	if err := o.authorize(ctx, actorID, ModuleInventory, ActionAdjust, LevelOperator); err != nil {
		return err
	}
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return domain.ErrInvalidQuantity
	}

	now := time.Now()
	err := o.txRunner.Run(ctx, func(
		itemRepo repository.ItemRepository,
		ledgerRepo repository.LedgerRepository,
		lineRepo repository.DemandLineRepository,
		guideRepo repository.GuideRepository,
	) error {
		item, err := itemRepo.GetForUpdate(in.ItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		if err := itemRepo.AdjustQuantity(item.ID, in.Quantity); err != nil {
			return err
		}
		reason := in.Reason
		if reason == "" {
			reason = "entrada directa"
		}
		return appendEntry(ledgerRepo, item.ID, nil, entity.EntryADD, in.Quantity, reason, actorID, now)
	})
	if err != nil {
		return err
	}

	o.audit.Record(ctx, actorID, "add_quantity", ModuleInventory, in.ItemID, map[string]any{"quantity": in.Quantity.String()})
	return nil
}

// RemoveInventoryQuantity salida directa de stock. Valida contra el DISPONIBLE
// (no solo la cantidad cruda); Force permite comerse stock reservado: válvula
// de escape de política que exige permiso de supervisor y que el orquestador
// expone como booleano explícito, nunca en silencio. Ni con Force la cantidad
// física puede quedar negativa.
func (o *Orchestrator) RemoveInventoryQuantity(ctx context.Context, actorID string, in dto.AdjustQuantityRequest) error {
	action, level := ActionAdjust, LevelOperator
	if in.Force {
		action, level = ActionForceRemove, LevelSupervisor
	}
	if err := o.authorize(ctx, actorID, ModuleInventory, action, level); err != nil {
		return err
	}
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return domain.ErrInvalidQuantity
	}

	now := time.Now()
	var candidate *alertCandidate
	err := o.txRunner.Run(ctx, func(
		itemRepo repository.ItemRepository,
		ledgerRepo repository.LedgerRepository,
		lineRepo repository.DemandLineRepository,
		guideRepo repository.GuideRepository,
	) error {
		item, err := itemRepo.GetForUpdate(in.ItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		reserved, available, err := availability(lineRepo, item)
		if err != nil {
			return err
		}
		if in.Force {
			if item.Quantity.LessThan(in.Quantity) {
				return insufficientStock(item, in.Quantity, reserved, available)
			}
		} else if available.LessThan(in.Quantity) {
			return insufficientStock(item, in.Quantity, reserved, available)
		}

		prevQty := item.Quantity
		if err := itemRepo.AdjustQuantity(item.ID, in.Quantity.Neg()); err != nil {
			return err
		}
		reason := in.Reason
		if reason == "" {
			reason = "salida directa"
		}
		if err := appendEntry(ledgerRepo, item.ID, nil, entity.EntryREMOVE, in.Quantity.Neg(), reason, actorID, now); err != nil {
			return err
		}
		after := *item
		after.Quantity = item.Quantity.Sub(in.Quantity)
		candidate = &alertCandidate{item: after, prevQty: prevQty}
		return nil
	})
	if err != nil {
		return err
	}

	o.fireAlerts(ctx, []alertCandidate{*candidate})
	o.audit.Record(ctx, actorID, "remove_quantity", ModuleInventory, in.ItemID, map[string]any{
		"quantity": in.Quantity.String(),
		"force":    in.Force,
	})
	return nil
}

// DeleteItem borra un item sin stock referenciado. Se niega con ErrConflict
// mientras exista una línea de demanda viva que lo apunte.
func (o *Orchestrator) DeleteItem(ctx context.Context, actorID, itemID string) error {
	if err := o.authorize(ctx, actorID, ModuleInventory, ActionAdjust, LevelSupervisor); err != nil {
		return err
	}
	err := o.txRunner.Run(ctx, func(
		itemRepo repository.ItemRepository,
		ledgerRepo repository.LedgerRepository,
		lineRepo repository.DemandLineRepository,
		guideRepo repository.GuideRepository,
	) error {
		item, err := itemRepo.GetForUpdate(itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		active, err := lineRepo.HasActiveByItem(itemID)
		if err != nil {
			return err
		}
		if active {
			return domain.ErrConflict
		}
		return itemRepo.Delete(itemID)
	})
	if err != nil {
		return err
	}

	o.audit.Record(ctx, actorID, "delete_item", ModuleInventory, itemID, nil)
	return nil
}
