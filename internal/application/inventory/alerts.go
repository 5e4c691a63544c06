package inventory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/planta-ops/internal/domain/entity"
	"github.com/tu-usuario/planta-ops/pkg/logger"
)

// AlertTrigger evalúa el umbral de stock bajo después de una mutación física y
// dispara el notificador externo. Se dispara solo al CRUZAR el umbral (antes
// por encima, ahora en o por debajo): operaciones repetidas con el stock ya
// bajo no re-alertan.
type AlertTrigger struct {
	notifier AlertNotifier
	log      *logger.Logger
}

// NewAlertTrigger construye el trigger.
func NewAlertTrigger(notifier AlertNotifier, log *logger.Logger) *AlertTrigger {
	return &AlertTrigger{notifier: notifier, log: log}
}

// Evaluate compara cantidad previa y actual contra MinQuantity y notifica si
// hubo cruce. Los fallos del notificador se loguean, nunca se propagan.
func (t *AlertTrigger) Evaluate(ctx context.Context, item *entity.InventoryItem, prevQty decimal.Decimal) {
	if item.MinQuantity == nil {
		return
	}
	min := *item.MinQuantity
	crossed := prevQty.GreaterThan(min) && item.Quantity.LessThanOrEqual(min)
	if !crossed {
		return
	}
	if err := t.notifier.LowStock(ctx, item); err != nil {
		t.log.Warn().Err(err).
			Str("item_id", item.ID).
			Str("quantity", item.Quantity.String()).
			Str("min_quantity", min.String()).
			Msg("no se pudo notificar stock bajo")
		return
	}
	t.log.Info().
		Str("item_id", item.ID).
		Str("quantity", item.Quantity.String()).
		Msg("alerta de stock bajo enviada")
}
