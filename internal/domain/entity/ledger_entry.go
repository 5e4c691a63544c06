package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de asiento del libro de movimientos.
const (
	EntryADD     = "ADD"     // entrada directa de stock (positivo)
	EntryREMOVE  = "REMOVE"  // salida directa de stock (negativo)
	EntryRESERVE = "RESERVE" // reserva para una guía/paso (no toca cantidad física)
	EntryRELEASE = "RELEASE" // liberación de reserva; positivo = devolución física
	EntryISSUE   = "ISSUE"   // entrega de material reservado (negativo, físico)
)

// LedgerEntry es un asiento inmutable del libro de movimientos de stock.
// Nunca se actualiza ni se borra; GuideID se conserva aunque la guía ya no exista
// (referencia colgante intencional, para auditoría).
type LedgerEntry struct {
	ID        string
	ItemID    string
	GuideID   *string
	Kind      string // ADD, REMOVE, RESERVE, RELEASE, ISSUE
	Quantity  decimal.Decimal // delta con signo
	Reason    string
	CreatedBy string
	CreatedAt time.Time
}

// ValidEntryKind valida el tipo de asiento.
func ValidEntryKind(kind string) bool {
	switch kind {
	case EntryADD, EntryREMOVE, EntryRESERVE, EntryRELEASE, EntryISSUE:
		return true
	}
	return false
}
