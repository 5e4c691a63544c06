package repository

import (
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/planta-ops/internal/domain/entity"
)

// ItemRepository define el puerto de persistencia para InventoryItem.
// AdjustQuantity es el único mutador de cantidad y solo debe invocarse dentro
// de la misma transacción que el asiento correspondiente del libro.
type ItemRepository interface {
	Create(item *entity.InventoryItem) error
	GetByID(id string) (*entity.InventoryItem, error)
	GetByBarcode(barcode string) (*entity.InventoryItem, error)
	// GetForUpdate bloquea la fila para update (SELECT FOR UPDATE).
	GetForUpdate(id string) (*entity.InventoryItem, error)
	AdjustQuantity(id string, delta decimal.Decimal) error
	Update(item *entity.InventoryItem) error
	List(limit, offset int) ([]*entity.InventoryItem, error)
	Delete(id string) error
}
