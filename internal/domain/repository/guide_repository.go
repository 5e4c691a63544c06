package repository

import (
	"github.com/tu-usuario/planta-ops/internal/domain/entity"
)

// GuideRepository define el puerto de persistencia para guías de producción.
type GuideRepository interface {
	Create(guide *entity.Guide) error
	GetByID(id string) (*entity.Guide, error)
	GetByBarcode(barcode string) (*entity.Guide, error)
	UpdateStatus(id, status string) error
	Delete(id string) error
}

// StepRepository define el puerto de lectura de pasos (el ciclo de vida del paso
// pertenece al módulo de producción; el motor solo necesita existencia y guía).
type StepRepository interface {
	GetByID(id string) (*entity.Step, error)
	ListByGuide(guideID string) ([]*entity.Step, error)
}
