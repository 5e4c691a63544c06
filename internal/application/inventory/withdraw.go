package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/planta-ops/internal/application/dto"
	"github.com/tu-usuario/planta-ops/internal/domain"
	"github.com/tu-usuario/planta-ops/internal/domain/entity"
	domaininv "github.com/tu-usuario/planta-ops/internal/domain/inventory"
	"github.com/tu-usuario/planta-ops/internal/domain/repository"
)

// WithdrawReservedItems retira material reservado de una guía: por cada
// (item, cantidad) verifica que la línea esté RESERVED, que lo pedido quepa en
// la línea y en la cantidad física, descuenta el stock, asienta el ISSUE y
// aplica el split/flip de la línea. Los errores por item se recogen, no
// tumban el lote; las escrituras del camino exitoso de cada item son atómicas.
func (o *Orchestrator) WithdrawReservedItems(ctx context.Context, actorID, guideID string, in dto.WithdrawRequest) (*dto.WithdrawResponse, error) {
	if err := o.authorize(ctx, actorID, ModuleInventory, ActionIssue, LevelOperator); err != nil {
		return nil, err
	}
	if len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now()
	resp := &dto.WithdrawResponse{}
	var candidates []alertCandidate

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

		for _, req := range in.Items {
			candidate, itemErr := withdrawOne(itemRepo, ledgerRepo, lineRepo, guideID, req, actorID, now)
			if itemErr != nil {
				resp.Errors = append(resp.Errors, *itemErr)
				continue
			}
			candidates = append(candidates, *candidate)
			resp.IssuedItems = append(resp.IssuedItems, req.ItemID)
		}
		// El primer retiro efectivo saca la guía de borrador.
		if len(resp.IssuedItems) > 0 && guide.Status == entity.GuideStatusDraft {
			if err := guideRepo.UpdateStatus(guideID, entity.GuideStatusInProgress); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Efectos post-commit: alertas y auditoría, nunca revierten la operación.
	o.fireAlerts(ctx, candidates)
	o.audit.Record(ctx, actorID, "withdraw_items", ModuleInventory, guideID, map[string]any{
		"issued": len(resp.IssuedItems),
		"errors": len(resp.Errors),
	})
	return resp, nil
}

// withdrawOne procesa un (item, cantidad) del retiro dentro de la tx del lote.
func withdrawOne(
	itemRepo repository.ItemRepository,
	ledgerRepo repository.LedgerRepository,
	lineRepo repository.DemandLineRepository,
	guideID string,
	req dto.GuideItemRequest,
	actorID string,
	now time.Time,
) (*alertCandidate, *dto.ItemError) {
	if !req.Quantity.GreaterThan(decimal.Zero) {
		return nil, &dto.ItemError{ItemID: req.ItemID, Code: "INVALID_QUANTITY", Message: "la cantidad debe ser positiva", Requested: req.Quantity.String()}
	}
	item, err := itemRepo.GetForUpdate(req.ItemID)
	if err != nil {
		return nil, itemErrorFrom(req.ItemID, req.Quantity, err)
	}
	if item == nil {
		return nil, &dto.ItemError{ItemID: req.ItemID, Code: "NOT_FOUND", Message: "item no encontrado"}
	}
	line, err := lineRepo.GetGuideLine(guideID, req.ItemID)
	if err != nil {
		return nil, itemErrorFrom(req.ItemID, req.Quantity, err)
	}
	if line == nil {
		return nil, &dto.ItemError{ItemID: req.ItemID, Code: "NOT_FOUND", Message: "la guía no tiene línea para este item"}
	}
	if !line.Reserved() {
		return nil, &dto.ItemError{ItemID: req.ItemID, Code: "INVALID_STATE", Message: "la línea no está reservada"}
	}
	if req.Quantity.GreaterThan(line.Quantity) {
		return nil, &dto.ItemError{
			ItemID:    req.ItemID,
			Code:      "INVALID_QUANTITY",
			Message:   "se pidió más de lo reservado",
			Requested: req.Quantity.String(),
			Reserved:  line.Quantity.String(),
		}
	}
	// La reserva ya cuenta contra el disponible: aquí se valida contra la
	// cantidad física (revalidación bajo FOR UPDATE, dentro de la misma tx).
	if item.Quantity.LessThan(req.Quantity) {
		reserved, available, aerr := availability(lineRepo, item)
		if aerr != nil {
			return nil, itemErrorFrom(req.ItemID, req.Quantity, aerr)
		}
		return nil, itemErrorFrom(req.ItemID, req.Quantity, insufficientStock(item, req.Quantity, reserved, available))
	}

	remainder, split, err := domaininv.SplitDemandLine(line, req.Quantity, actorID, now)
	if err != nil {
		return nil, itemErrorFrom(req.ItemID, req.Quantity, err)
	}
	if remainder != nil {
		// Retiro parcial: la línea original conserva el resto reservado y el
		// split nace ISSUED como fila nueva.
		if err := lineRepo.Update(remainder); err != nil {
			return nil, itemErrorFrom(req.ItemID, req.Quantity, err)
		}
		if err := lineRepo.Create(split); err != nil {
			return nil, itemErrorFrom(req.ItemID, req.Quantity, err)
		}
	} else {
		// Retiro total: la línea se volteó en sitio a ISSUED.
		if err := lineRepo.Update(split); err != nil {
			return nil, itemErrorFrom(req.ItemID, req.Quantity, err)
		}
	}

	prevQty := item.Quantity
	if err := itemRepo.AdjustQuantity(item.ID, req.Quantity.Neg()); err != nil {
		return nil, itemErrorFrom(req.ItemID, req.Quantity, err)
	}
	item.Quantity = item.Quantity.Sub(req.Quantity)
	if remainder != nil {
		// En el split solo queda reservado el resto: el asiento RESERVE
		// positivo ajusta el sub-libro de reservas (nunca toca lo físico).
		if err := appendEntry(ledgerRepo, item.ID, &guideID, entity.EntryRESERVE, req.Quantity, "ajuste de reserva por retiro parcial", actorID, now); err != nil {
			return nil, itemErrorFrom(req.ItemID, req.Quantity, err)
		}
	}
	if err := appendEntry(ledgerRepo, item.ID, &guideID, entity.EntryISSUE, req.Quantity.Neg(), "retiro de material reservado", actorID, now); err != nil {
		return nil, itemErrorFrom(req.ItemID, req.Quantity, err)
	}
	return &alertCandidate{item: *item, prevQty: prevQty}, nil
}
