package repository

import (
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/planta-ops/internal/domain/entity"
)

// DemandLineRepository define el puerto de persistencia para líneas de demanda.
// Los agregados derivados (reservado, necesitado, entregado) se calculan en vivo
// con SumByItemAndStatus para evitar caches desactualizados.
type DemandLineRepository interface {
	Create(line *entity.DemandLine) error
	GetByID(id string) (*entity.DemandLine, error)
	// GetGuideLine devuelve la línea a nivel de guía (StepID nil) para (guía, item).
	GetGuideLine(guideID, itemID string) (*entity.DemandLine, error)
	GetStepLine(stepID, itemID string) (*entity.DemandLine, error)
	ListByGuide(guideID string) ([]*entity.DemandLine, error)
	ListByItem(itemID string) ([]*entity.DemandLine, error)
	Update(line *entity.DemandLine) error
	Delete(id string) error
	// SumByItemAndStatus suma las cantidades de las líneas de un item en un estado.
	SumByItemAndStatus(itemID, status string) (decimal.Decimal, error)
	// HasActiveByItem indica si existe alguna línea viva (NEEDED o RESERVED)
	// que referencie el item; las ISSUED son consumo histórico y no cuentan.
	HasActiveByItem(itemID string) (bool, error)
}
