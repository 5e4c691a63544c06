package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/planta-ops/internal/domain"
	"github.com/tu-usuario/planta-ops/internal/domain/entity"
)

// Reconcile verifica el invariante de reconciliación: la cantidad almacenada
// del item debe igualar la suma de los asientos físicos de su libro.
// Un fallo aquí es señal de bug interno, no un error de usuario.
func Reconcile(item *entity.InventoryItem, entries []*entity.LedgerEntry) error {
	sum := PhysicalSum(entries)
	if !item.Quantity.Equal(sum) {
		return &domain.ReconciliationError{ItemID: item.ID, Stored: item.Quantity, LedgerSum: sum}
	}
	return nil
}

// Available calcula la cantidad disponible: física menos reservada, nunca negativa.
func Available(quantity, reserved decimal.Decimal) decimal.Decimal {
	avail := quantity.Sub(reserved)
	if avail.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	return avail
}
