package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una línea de demanda.
const (
	StatusNeeded   = "NEEDED"   // material requerido, sin reservar
	StatusReserved = "RESERVED" // reservado contra el stock disponible
	StatusIssued   = "ISSUED"   // entregado físicamente (retirado)
)

// DemandLine representa "N unidades del item X las necesita la guía/paso Y".
// Las líneas a nivel de guía llevan StepID nil y solo usan NEEDED/RESERVED;
// las líneas de paso recorren la máquina completa NEEDED→RESERVED→ISSUED.
// Tras un retiro parcial pueden existir varias líneas para el mismo (guía, item).
type DemandLine struct {
	ID          string
	ItemID      string
	GuideID     string
	StepID      *string
	Quantity    decimal.Decimal
	Status      string // NEEDED, RESERVED, ISSUED
	WithdrawnBy *string
	WithdrawnAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Reserved indica si la línea está contando contra el stock disponible.
func (l *DemandLine) Reserved() bool { return l.Status == StatusReserved }

// CanTransition valida la máquina de estados:
// NEEDED --reserve--> RESERVED --issue--> ISSUED;
// RESERVED --release--> NEEDED; ISSUED --return--> NEEDED (con devolución física).
func CanTransition(from, to string) bool {
	switch from {
	case StatusNeeded:
		return to == StatusReserved
	case StatusReserved:
		return to == StatusIssued || to == StatusNeeded
	case StatusIssued:
		return to == StatusNeeded
	}
	return false
}
