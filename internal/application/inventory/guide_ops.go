package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/planta-ops/internal/application/dto"
	"github.com/tu-usuario/planta-ops/internal/domain"
	"github.com/tu-usuario/planta-ops/internal/domain/entity"
	"github.com/tu-usuario/planta-ops/internal/domain/repository"
)

// CreateGuideWithMaterials crea la guía (con código de barras asignado por el
// allocator dentro de la misma tx) y una línea de demanda RESERVED por material,
// con su asiento RESERVE. Los fallos de validación por item se recogen en
// Errors sin abortar a los hermanos; el éxito parcial queda explícito en la
// respuesta. El agotamiento del allocator sí aborta toda la operación.
func (o *Orchestrator) CreateGuideWithMaterials(ctx context.Context, actorID string, in dto.CreateGuideRequest) (*dto.CreateGuideResponse, error) {
	if err := o.authorize(ctx, actorID, ModuleGuides, ActionManageGuide, LevelOperator); err != nil {
		return nil, err
	}
	if in.Title == "" {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now()
	guide := &entity.Guide{
		ID:        uuid.New().String(),
		Title:     in.Title,
		Status:    entity.GuideStatusDraft,
		CreatedBy: actorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	resp := &dto.CreateGuideResponse{GuideID: guide.ID}

	err := o.txRunner.Run(ctx, func(
		itemRepo repository.ItemRepository,
		ledgerRepo repository.LedgerRepository,
		lineRepo repository.DemandLineRepository,
		guideRepo repository.GuideRepository,
	) error {
		code, err := o.allocator.AllocateGuide(now, func(candidate string) error {
			guide.Barcode = candidate
			return guideRepo.Create(guide)
		})
		if err != nil {
			return err
		}
		resp.Barcode = code

		for _, req := range in.Items {
			if itemErr := reserveForGuide(itemRepo, ledgerRepo, lineRepo, guide.ID, req, actorID, now); itemErr != nil {
				resp.Errors = append(resp.Errors, *itemErr)
				continue
			}
			resp.ReservedItems = append(resp.ReservedItems, req.ItemID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.audit.Record(ctx, actorID, "create_guide", ModuleGuides, guide.ID, map[string]any{
		"barcode":  resp.Barcode,
		"reserved": len(resp.ReservedItems),
		"errors":   len(resp.Errors),
	})
	return resp, nil
}

// reserveForGuide valida y reserva un material para la guía. Devuelve el error
// estructurado del item (nil si reservó); los errores de infraestructura se
// reportan igual que los de validación para no tumbar el lote.
func reserveForGuide(
	itemRepo repository.ItemRepository,
	ledgerRepo repository.LedgerRepository,
	lineRepo repository.DemandLineRepository,
	guideID string,
	req dto.GuideItemRequest,
	actorID string,
	now time.Time,
) *dto.ItemError {
	if !req.Quantity.GreaterThan(decimal.Zero) {
		return &dto.ItemError{ItemID: req.ItemID, Code: "INVALID_QUANTITY", Message: "la cantidad debe ser positiva", Requested: req.Quantity.String()}
	}
	item, err := itemRepo.GetForUpdate(req.ItemID)
	if err != nil {
		return itemErrorFrom(req.ItemID, req.Quantity, err)
	}
	if item == nil {
		return &dto.ItemError{ItemID: req.ItemID, Code: "NOT_FOUND", Message: "item no encontrado"}
	}
	reserved, available, err := availability(lineRepo, item)
	if err != nil {
		return itemErrorFrom(req.ItemID, req.Quantity, err)
	}
	if available.LessThan(req.Quantity) {
		return itemErrorFrom(req.ItemID, req.Quantity, insufficientStock(item, req.Quantity, reserved, available))
	}

	line := &entity.DemandLine{
		ItemID:    item.ID,
		GuideID:   guideID,
		Quantity:  req.Quantity,
		Status:    entity.StatusReserved,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := lineRepo.Create(line); err != nil {
		return itemErrorFrom(req.ItemID, req.Quantity, err)
	}
	if err := appendEntry(ledgerRepo, item.ID, &guideID, entity.EntryRESERVE, req.Quantity.Neg(), "reserva por creación de guía", actorID, now); err != nil {
		return itemErrorFrom(req.ItemID, req.Quantity, err)
	}
	return nil
}

// AddOrUpdateGuideItem es un upsert idempotente de la línea a nivel de guía.
// Calcula el diff contra el estado previo y emite solo los asientos mínimos
// (RESERVE por el aumento, RELEASE por la disminución) en vez de borrar y
// recrear, para conservar la fidelidad histórica del libro.
func (o *Orchestrator) AddOrUpdateGuideItem(ctx context.Context, actorID, guideID, itemID string, qty decimal.Decimal) error {
	if err := o.authorize(ctx, actorID, ModuleGuides, ActionManageGuide, LevelOperator); err != nil {
		return err
	}
	if qty.LessThan(decimal.Zero) {
		return domain.ErrInvalidQuantity
	}

	now := time.Now()
	err := o.txRunner.Run(ctx, func(
		itemRepo repository.ItemRepository,
		ledgerRepo repository.LedgerRepository,
		lineRepo repository.DemandLineRepository,
		guideRepo repository.GuideRepository,
	) error {
		if guide, err := guideRepo.GetByID(guideID); err != nil {
			return err
		} else if guide == nil {
			return domain.ErrNotFound
		}
		item, err := itemRepo.GetForUpdate(itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		line, err := lineRepo.GetGuideLine(guideID, itemID)
		if err != nil {
			return err
		}

		switch {
		case line == nil:
			if qty.IsZero() {
				return nil // nada que crear ni borrar
			}
			reserved, available, err := availability(lineRepo, item)
			if err != nil {
				return err
			}
			if available.LessThan(qty) {
				return insufficientStock(item, qty, reserved, available)
			}
			newLine := &entity.DemandLine{
				ItemID:    itemID,
				GuideID:   guideID,
				Quantity:  qty,
				Status:    entity.StatusReserved,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := lineRepo.Create(newLine); err != nil {
				return err
			}
			return appendEntry(ledgerRepo, itemID, &guideID, entity.EntryRESERVE, qty.Neg(), "material agregado a guía", actorID, now)

		case qty.IsZero():
			return removeLine(ledgerRepo, lineRepo, line, actorID, now)

		case qty.Equal(line.Quantity):
			return nil // idempotente: sin cambios, sin asientos

		case qty.GreaterThan(line.Quantity):
			delta := qty.Sub(line.Quantity)
			reserved, available, err := availability(lineRepo, item)
			if err != nil {
				return err
			}
			if available.LessThan(delta) {
				return insufficientStock(item, delta, reserved, available)
			}
			line.Quantity = qty
			line.UpdatedAt = now
			if err := lineRepo.Update(line); err != nil {
				return err
			}
			return appendEntry(ledgerRepo, itemID, &guideID, entity.EntryRESERVE, delta.Neg(), "cantidad de material aumentada", actorID, now)

		default: // qty < line.Quantity
			delta := line.Quantity.Sub(qty)
			line.Quantity = qty
			line.UpdatedAt = now
			if err := lineRepo.Update(line); err != nil {
				return err
			}
			return appendEntry(ledgerRepo, itemID, &guideID, entity.EntryRELEASE, delta.Neg(), "cantidad de material reducida", actorID, now)
		}
	})
	if err != nil {
		return err
	}

	o.audit.Record(ctx, actorID, "upsert_guide_item", ModuleGuides, guideID, map[string]any{
		"item_id":  itemID,
		"quantity": qty.String(),
	})
	return nil
}

// RemoveGuideItem elimina la línea a nivel de guía con su RELEASE compensatorio.
func (o *Orchestrator) RemoveGuideItem(ctx context.Context, actorID, guideID, itemID string) error {
	if err := o.authorize(ctx, actorID, ModuleGuides, ActionManageGuide, LevelOperator); err != nil {
		return err
	}
	now := time.Now()
	err := o.txRunner.Run(ctx, func(
		itemRepo repository.ItemRepository,
		ledgerRepo repository.LedgerRepository,
		lineRepo repository.DemandLineRepository,
		guideRepo repository.GuideRepository,
	) error {
		// Bloquear el item mantiene serializadas las operaciones sobre su
		// stock; la línea se lee después para no decidir sobre una copia vieja.
		if _, err := itemRepo.GetForUpdate(itemID); err != nil {
			return err
		}
		line, err := lineRepo.GetGuideLine(guideID, itemID)
		if err != nil {
			return err
		}
		if line == nil {
			return domain.ErrNotFound
		}
		return removeLine(ledgerRepo, lineRepo, line, actorID, now)
	})
	if err != nil {
		return err
	}

	o.audit.Record(ctx, actorID, "remove_guide_item", ModuleGuides, guideID, map[string]any{"item_id": itemID})
	return nil
}

// removeLine borra una línea y, si estaba reservada, asienta el RELEASE
// compensatorio (solo sub-libro de reservas; la cantidad física no cambia).
func removeLine(ledgerRepo repository.LedgerRepository, lineRepo repository.DemandLineRepository, line *entity.DemandLine, actorID string, now time.Time) error {
	if line.Reserved() {
		if err := appendEntry(ledgerRepo, line.ItemID, &line.GuideID, entity.EntryRELEASE, line.Quantity.Neg(), "reserva liberada", actorID, now); err != nil {
			return err
		}
	}
	return lineRepo.Delete(line.ID)
}

// DeleteGuide borra la guía en cascada: por cada línea aún reservada asienta un
// RELEASE compensatorio que conserva el guideID (referencia colgante intencional
// para auditoría: el asiento sobrevive a la guía), borra las líneas y la guía.
func (o *Orchestrator) DeleteGuide(ctx context.Context, actorID, guideID string) error {
	if err := o.authorize(ctx, actorID, ModuleGuides, ActionManageGuide, LevelSupervisor); err != nil {
		return err
	}
	now := time.Now()
	err := o.txRunner.Run(ctx, func(
		itemRepo repository.ItemRepository,
		ledgerRepo repository.LedgerRepository,
		lineRepo repository.DemandLineRepository,
		guideRepo repository.GuideRepository,
	) error {
		guide, err := guideRepo.GetByID(guideID)
		if err != nil {
			return err
		}
		if guide == nil {
			return domain.ErrNotFound
		}
		lines, err := lineRepo.ListByGuide(guideID)
		if err != nil {
			return err
		}
		for _, line := range lines {
			if line.Reserved() {
				if err := appendEntry(ledgerRepo, line.ItemID, &guideID, entity.EntryRELEASE, line.Quantity.Neg(), "guía eliminada", actorID, now); err != nil {
					return err
				}
			}
			if err := lineRepo.Delete(line.ID); err != nil {
				return err
			}
		}
		return guideRepo.Delete(guideID)
	})
	if err != nil {
		return err
	}

	o.audit.Record(ctx, actorID, "delete_guide", ModuleGuides, guideID, nil)
	return nil
}

// itemErrorFrom traduce un error de dominio al error estructurado por item.
func itemErrorFrom(itemID string, requested decimal.Decimal, err error) *dto.ItemError {
	var insufficient *domain.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		return &dto.ItemError{
			ItemID:    itemID,
			Code:      "INSUFFICIENT_STOCK",
			Message:   "stock disponible insuficiente",
			Available: insufficient.Available.String(),
			Requested: insufficient.Requested.String(),
			Reserved:  insufficient.Reserved.String(),
		}
	case errors.Is(err, domain.ErrNotFound):
		return &dto.ItemError{ItemID: itemID, Code: "NOT_FOUND", Message: "item no encontrado"}
	case errors.Is(err, domain.ErrInvalidQuantity):
		return &dto.ItemError{ItemID: itemID, Code: "INVALID_QUANTITY", Message: "la cantidad debe ser positiva", Requested: requested.String()}
	case errors.Is(err, domain.ErrInvalidTransition):
		return &dto.ItemError{ItemID: itemID, Code: "INVALID_STATE", Message: "la línea no está en estado RESERVED"}
	default:
		return &dto.ItemError{ItemID: itemID, Code: "INTERNAL", Message: fmt.Sprintf("error procesando item: %v", err)}
	}
}
