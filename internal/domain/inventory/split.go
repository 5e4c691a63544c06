package inventory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/planta-ops/internal/domain"
	"github.com/tu-usuario/planta-ops/internal/domain/entity"
)

// SplitDemandLine materializa un retiro parcial sobre una línea RESERVED
// (servicio de dominio, puro: no toca almacenamiento).
//
// Si qty < line.Quantity: la línea original queda RESERVED con Quantity-qty
// (remainder) y se crea una nueva línea ISSUED de qty (split) apuntando a la
// misma guía/paso. Si qty == line.Quantity: la línea se voltea en sitio a
// ISSUED (remainder nil, split es la misma línea modificada).
//
// El split NO lleva ID: lo asigna el repositorio al insertarlo.
func SplitDemandLine(line *entity.DemandLine, qty decimal.Decimal, withdrawnBy string, now time.Time) (remainder, split *entity.DemandLine, err error) {
	if line.Status != entity.StatusReserved {
		return nil, nil, domain.ErrInvalidTransition
	}
	if !qty.GreaterThan(decimal.Zero) {
		return nil, nil, domain.ErrInvalidQuantity
	}
	if qty.GreaterThan(line.Quantity) {
		return nil, nil, domain.ErrInvalidQuantity
	}

	if qty.Equal(line.Quantity) {
		// Retiro total: voltear en sitio, sin duplicar filas.
		line.Status = entity.StatusIssued
		line.WithdrawnBy = &withdrawnBy
		line.WithdrawnAt = &now
		line.UpdatedAt = now
		return nil, line, nil
	}

	line.Quantity = line.Quantity.Sub(qty)
	line.UpdatedAt = now

	split = &entity.DemandLine{
		ItemID:      line.ItemID,
		GuideID:     line.GuideID,
		StepID:      line.StepID,
		Quantity:    qty,
		Status:      entity.StatusIssued,
		WithdrawnBy: &withdrawnBy,
		WithdrawnAt: &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return line, split, nil
}
