package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/planta-ops/internal/domain/entity"
)

// AffectsPhysicalQuantity es la única fuente de verdad sobre qué asientos del
// libro tocan la cantidad física del item (servicio de dominio).
//
// ADD/REMOVE/ISSUE siempre son físicos. RESERVE nunca lo es: registra intención
// y solo afecta el sub-libro de reservas. RELEASE es físico únicamente cuando su
// cantidad es positiva (devolución de material ya entregado); con cantidad cero
// o el RELEASE de una reserva, no toca la cantidad.
func AffectsPhysicalQuantity(kind string, quantity decimal.Decimal) bool {
	switch kind {
	case entity.EntryADD, entity.EntryREMOVE, entity.EntryISSUE:
		return true
	case entity.EntryRELEASE:
		return quantity.GreaterThan(decimal.Zero)
	case entity.EntryRESERVE:
		return false
	}
	return false
}

// PhysicalSum suma los deltas de los asientos que afectan cantidad física.
// Por el invariante de reconciliación, debe igualar la cantidad almacenada.
func PhysicalSum(entries []*entity.LedgerEntry) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range entries {
		if AffectsPhysicalQuantity(e.Kind, e.Quantity) {
			sum = sum.Add(e.Quantity)
		}
	}
	return sum
}
