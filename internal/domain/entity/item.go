package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryItem representa un artículo del pool de inventario compartido.
// Quantity es la cantidad física actual; la cantidad reservada y disponible
// se derivan de las líneas de demanda, nunca se almacenan aquí.
type InventoryItem struct {
	ID          string
	Barcode     string // código legible único (prefijo + sufijo aleatorio)
	Name        string
	Unit        string // unidad de medida: kg, m, unidad, etc.
	Quantity    decimal.Decimal
	MinQuantity *decimal.Decimal // umbral de alerta de stock bajo (opcional)
	Price       *decimal.Decimal
	Category    string
	Location    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LowStock indica si la cantidad está en o por debajo del umbral configurado.
func (i *InventoryItem) LowStock() bool {
	if i.MinQuantity == nil {
		return false
	}
	return i.Quantity.LessThanOrEqual(*i.MinQuantity)
}
