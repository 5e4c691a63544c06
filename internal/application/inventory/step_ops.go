package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/planta-ops/internal/domain"
	"github.com/tu-usuario/planta-ops/internal/domain/entity"
	"github.com/tu-usuario/planta-ops/internal/domain/repository"
)

// Operaciones a nivel de paso: las líneas de paso recorren la máquina completa
// NEEDED --reserve--> RESERVED --issue--> ISSUED, con release como reversa
// (RESERVED->NEEDED solo sub-libro; ISSUED->NEEDED con devolución física).

// AddStepItem ata un material a un paso como línea NEEDED (sin reservar aún).
func (o *Orchestrator) AddStepItem(ctx context.Context, actorID, stepID, itemID string, qty decimal.Decimal) (*entity.DemandLine, error) {
	if err := o.authorize(ctx, actorID, ModuleGuides, ActionManageGuide, LevelOperator); err != nil {
		return nil, err
	}
	if !qty.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidQuantity
	}
	step, err := o.stepRepo.GetByID(stepID)
	if err != nil {
		return nil, err
	}
	if step == nil {
		return nil, domain.ErrNotFound
	}

	now := time.Now()
	line := &entity.DemandLine{
		ItemID:    itemID,
		GuideID:   step.GuideID,
		StepID:    &step.ID,
		Quantity:  qty,
		Status:    entity.StatusNeeded,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = o.txRunner.Run(ctx, func(
		itemRepo repository.ItemRepository,
		ledgerRepo repository.LedgerRepository,
		lineRepo repository.DemandLineRepository,
		guideRepo repository.GuideRepository,
	) error {
		item, err := itemRepo.GetByID(itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		existing, err := lineRepo.GetStepLine(stepID, itemID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicate
		}
		return lineRepo.Create(line)
	})
	if err != nil {
		return nil, err
	}

	o.audit.Record(ctx, actorID, "add_step_item", ModuleGuides, stepID, map[string]any{
		"item_id":  itemID,
		"quantity": qty.String(),
	})
	return line, nil
}

// ReserveStepItem pasa la línea NEEDED -> RESERVED si el disponible alcanza.
// Falla con InsufficientStockError reportando disponible y solicitado para que
// el caller decida (mostrar, forzar por otra vía, etc.).
func (o *Orchestrator) ReserveStepItem(ctx context.Context, actorID, stepID, itemID string) error {
	if err := o.authorize(ctx, actorID, ModuleInventory, ActionReserve, LevelOperator); err != nil {
		return err
	}
	now := time.Now()
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
		// La línea se lee después de bloquear el item: dos reservas
		// concurrentes quedan serializadas por el bloqueo de fila y la
		// segunda ve el estado que dejó la primera, no una copia vencida.
		line, err := lineRepo.GetStepLine(stepID, itemID)
		if err != nil {
			return err
		}
		if line == nil {
			return domain.ErrNotFound
		}
		if !entity.CanTransition(line.Status, entity.StatusReserved) {
			return domain.ErrInvalidTransition
		}
		reserved, available, err := availability(lineRepo, item)
		if err != nil {
			return err
		}
		if available.LessThan(line.Quantity) {
			return insufficientStock(item, line.Quantity, reserved, available)
		}
		line.Status = entity.StatusReserved
		line.UpdatedAt = now
		if err := lineRepo.Update(line); err != nil {
			return err
		}
		return appendEntry(ledgerRepo, itemID, &line.GuideID, entity.EntryRESERVE, line.Quantity.Neg(), "reserva de paso", actorID, now)
	})
	if err != nil {
		return err
	}

	o.audit.Record(ctx, actorID, "reserve_step_item", ModuleInventory, stepID, map[string]any{"item_id": itemID})
	return nil
}

// IssueStepItem pasa la línea RESERVED -> ISSUED descontando cantidad física.
func (o *Orchestrator) IssueStepItem(ctx context.Context, actorID, stepID, itemID string) error {
	if err := o.authorize(ctx, actorID, ModuleInventory, ActionIssue, LevelOperator); err != nil {
		return err
	}
	now := time.Now()
	var candidate *alertCandidate
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
		// Leer la línea bajo el bloqueo de fila: una entrega concurrente ya
		// committeada se ve aquí y la segunda falla la transición en vez de
		// descontar dos veces.
		line, err := lineRepo.GetStepLine(stepID, itemID)
		if err != nil {
			return err
		}
		if line == nil {
			return domain.ErrNotFound
		}
		if !entity.CanTransition(line.Status, entity.StatusIssued) || line.Status != entity.StatusReserved {
			return domain.ErrInvalidTransition
		}
		// La reserva ya descontó del disponible; aquí solo importa lo físico.
		if item.Quantity.LessThan(line.Quantity) {
			reserved, available, aerr := availability(lineRepo, item)
			if aerr != nil {
				return aerr
			}
			return insufficientStock(item, line.Quantity, reserved, available)
		}
		line.Status = entity.StatusIssued
		line.WithdrawnBy = &actorID
		line.WithdrawnAt = &now
		line.UpdatedAt = now
		if err := lineRepo.Update(line); err != nil {
			return err
		}
		prevQty := item.Quantity
		if err := itemRepo.AdjustQuantity(itemID, line.Quantity.Neg()); err != nil {
			return err
		}
		if err := appendEntry(ledgerRepo, itemID, &line.GuideID, entity.EntryISSUE, line.Quantity.Neg(), "entrega de material de paso", actorID, now); err != nil {
			return err
		}
		after := *item
		after.Quantity = item.Quantity.Sub(line.Quantity)
		candidate = &alertCandidate{item: after, prevQty: prevQty}
		return nil
	})
	if err != nil {
		return err
	}

	o.fireAlerts(ctx, []alertCandidate{*candidate})
	o.audit.Record(ctx, actorID, "issue_step_item", ModuleInventory, stepID, map[string]any{"item_id": itemID})
	return nil
}

// ReleaseStepItem devuelve la línea a NEEDED. Desde RESERVED solo libera la
// reserva (asiento RELEASE negativo, sub-libro); desde ISSUED el material
// vuelve físicamente al stock (asiento RELEASE positivo que sí suma cantidad).
func (o *Orchestrator) ReleaseStepItem(ctx context.Context, actorID, stepID, itemID string) error {
	if err := o.authorize(ctx, actorID, ModuleInventory, ActionReserve, LevelOperator); err != nil {
		return err
	}
	now := time.Now()
	err := o.txRunner.Run(ctx, func(
		itemRepo repository.ItemRepository,
		ledgerRepo repository.LedgerRepository,
		lineRepo repository.DemandLineRepository,
		guideRepo repository.GuideRepository,
	) error {
		if _, err := itemRepo.GetForUpdate(itemID); err != nil {
			return err
		}
		// Igual que en la entrega: la línea se lee ya con la fila bloqueada
		// para que dos liberaciones concurrentes no devuelvan stock dos veces.
		line, err := lineRepo.GetStepLine(stepID, itemID)
		if err != nil {
			return err
		}
		if line == nil {
			return domain.ErrNotFound
		}
		if !entity.CanTransition(line.Status, entity.StatusNeeded) {
			return domain.ErrInvalidTransition
		}

		wasIssued := line.Status == entity.StatusIssued
		prevStatus := line.Status
		line.Status = entity.StatusNeeded
		line.WithdrawnBy = nil
		line.WithdrawnAt = nil
		line.UpdatedAt = now
		if err := lineRepo.Update(line); err != nil {
			return err
		}
		if wasIssued {
			if err := itemRepo.AdjustQuantity(itemID, line.Quantity); err != nil {
				return err
			}
			return appendEntry(ledgerRepo, itemID, &line.GuideID, entity.EntryRELEASE, line.Quantity, "devolución de material entregado", actorID, now)
		}
		if prevStatus == entity.StatusReserved {
			return appendEntry(ledgerRepo, itemID, &line.GuideID, entity.EntryRELEASE, line.Quantity.Neg(), "reserva de paso liberada", actorID, now)
		}
		return nil
	})
	if err != nil {
		return err
	}

	o.audit.Record(ctx, actorID, "release_step_item", ModuleInventory, stepID, map[string]any{"item_id": itemID})
	return nil
}
