package repository

import (
	"github.com/tu-usuario/planta-ops/internal/domain/entity"
)

// LedgerRepository define el puerto de persistencia del libro de movimientos.
// El libro es append-only: no existen métodos de actualización ni borrado.
type LedgerRepository interface {
	Create(entry *entity.LedgerEntry) error
	GetByID(id string) (*entity.LedgerEntry, error)
	ListByItem(itemID string, limit, offset int) ([]*entity.LedgerEntry, error)
	ListByGuide(guideID string, limit, offset int) ([]*entity.LedgerEntry, error)
	// ListAllByItem devuelve el libro completo de un item (para reconciliación).
	ListAllByItem(itemID string) ([]*entity.LedgerEntry, error)
}
