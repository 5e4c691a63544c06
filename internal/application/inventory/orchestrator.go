package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/planta-ops/internal/application/barcode"
	"github.com/tu-usuario/planta-ops/internal/domain"
	"github.com/tu-usuario/planta-ops/internal/domain/entity"
	domaininv "github.com/tu-usuario/planta-ops/internal/domain/inventory"
	"github.com/tu-usuario/planta-ops/internal/domain/repository"
	"github.com/tu-usuario/planta-ops/pkg/logger"
)

// Orchestrator es el núcleo transaccional del motor de reservas y entregas:
// ejecuta reservar / entregar / liberar / retirar escribiendo asiento del libro,
// delta de cantidad y estado de línea de demanda dentro de una sola transacción.
// Todos los escritores de cantidad y estado pasan por aquí.
type Orchestrator struct {
	txRunner  TxRunner
	itemRepo  repository.ItemRepository // lecturas fuera de tx (atado al pool)
	stepRepo  repository.StepRepository
	guideRepo repository.GuideRepository
	allocator *barcode.Allocator
	authz     Authorizer
	audit     Auditor
	alerts    *AlertTrigger
	log       *logger.Logger
}

// NewOrchestrator construye el orquestador.
func NewOrchestrator(
	txRunner TxRunner,
	itemRepo repository.ItemRepository,
	stepRepo repository.StepRepository,
	guideRepo repository.GuideRepository,
	allocator *barcode.Allocator,
	authz Authorizer,
	audit Auditor,
	alerts *AlertTrigger,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		txRunner:  txRunner,
		itemRepo:  itemRepo,
		stepRepo:  stepRepo,
		guideRepo: guideRepo,
		allocator: allocator,
		authz:     authz,
		audit:     audit,
		alerts:    alerts,
		log:       log,
	}
}

// authorize consulta al colaborador de permisos antes de cualquier mutación.
func (o *Orchestrator) authorize(ctx context.Context, actorID, module, action string, minLevel int) error {
	ok, err := o.authz.Check(ctx, actorID, module, action, minLevel)
	if err != nil {
		return fmt.Errorf("verificar permiso %s/%s: %w", module, action, err)
	}
	if !ok {
		return domain.ErrForbidden
	}
	return nil
}

// availability calcula reservado y disponible de un item dentro de la tx.
// Debe llamarse después de GetForUpdate para que la validación y la escritura
// vean el mismo estado (evita que dos reservas concurrentes pasen el chequeo).
func availability(lineRepo repository.DemandLineRepository, item *entity.InventoryItem) (reserved, available decimal.Decimal, err error) {
	reserved, err = lineRepo.SumByItemAndStatus(item.ID, entity.StatusReserved)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("sumar reservas: %w", err)
	}
	return reserved, domaininv.Available(item.Quantity, reserved), nil
}

// insufficientStock arma el error estructurado con las cantidades del momento.
func insufficientStock(item *entity.InventoryItem, requested, reserved, available decimal.Decimal) error {
	return &domain.InsufficientStockError{
		ItemID:    item.ID,
		Available: available,
		Requested: requested,
		Reserved:  reserved,
	}
}

// appendEntry persiste un asiento del libro.
//
// Convención de signos: ADD/RELEASE-físico positivos, REMOVE/ISSUE negativos;
// RESERVE negativo y RELEASE de reserva negativo (solo sub-libro de reservas,
// nunca tocan la cantidad física). La naturaleza física la decide únicamente
// domaininv.AffectsPhysicalQuantity.
func appendEntry(ledgerRepo repository.LedgerRepository, itemID string, guideID *string, kind string, qty decimal.Decimal, reason, actorID string, now time.Time) error {
	entry := &entity.LedgerEntry{
		ItemID:    itemID,
		GuideID:   guideID,
		Kind:      kind,
		Quantity:  qty,
		Reason:    reason,
		CreatedBy: actorID,
		CreatedAt: now,
	}
	if err := ledgerRepo.Create(entry); err != nil {
		return fmt.Errorf("asiento %s: %w", kind, err)
	}
	return nil
}

// alertCandidate captura el cruce de umbral detectado dentro de la tx para
// evaluarlo después del commit (el Notifier es efecto no transaccional).
type alertCandidate struct {
	item    entity.InventoryItem
	prevQty decimal.Decimal
}

// fireAlerts evalúa los candidatos tras el commit. Nunca devuelve error.
func (o *Orchestrator) fireAlerts(ctx context.Context, candidates []alertCandidate) {
	for _, c := range candidates {
		o.alerts.Evaluate(ctx, &c.item, c.prevQty)
	}
}
