package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateItemRequest body para POST /api/items.
type CreateItemRequest struct {
	Name          string           `json:"name"`
	Unit          string           `json:"unit"`
	BarcodePrefix string           `json:"barcode_prefix,omitempty"` // por defecto "IT"
	Quantity      decimal.Decimal  `json:"quantity"`                 // stock inicial (>= 0)
	MinQuantity   *decimal.Decimal `json:"min_quantity,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	Category      string           `json:"category,omitempty"`
	Location      string           `json:"location,omitempty"`
}

// ItemResponse representación HTTP de un item.
type ItemResponse struct {
	ID          string           `json:"id"`
	Barcode     string           `json:"barcode"`
	Name        string           `json:"name"`
	Unit        string           `json:"unit"`
	Quantity    decimal.Decimal  `json:"quantity"`
	MinQuantity *decimal.Decimal `json:"min_quantity,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Category    string           `json:"category,omitempty"`
	Location    string           `json:"location,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// AvailabilityResponse agregados derivados de un item (calculados en vivo).
type AvailabilityResponse struct {
	ItemID    string          `json:"item_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Reserved  decimal.Decimal `json:"reserved"`
	Available decimal.Decimal `json:"available"`
	Needed    decimal.Decimal `json:"needed"`
	Issued    decimal.Decimal `json:"issued"`
}

// BarcodeLookupResponse resultado de resolver un código escaneado: Type indica
// cuál de los dos campos viene poblado ("item" o "guide").
type BarcodeLookupResponse struct {
	Type  string         `json:"type"`
	Item  *ItemResponse  `json:"item,omitempty"`
	Guide *GuideResponse `json:"guide,omitempty"`
}

// AdjustQuantityRequest body para POST /api/inventory/add y /api/inventory/remove.
// Force solo aplica a remove: permite comerse stock reservado (requiere permiso
// de supervisor); aun forzado, la cantidad física no puede quedar negativa.
type AdjustQuantityRequest struct {
	ItemID   string          `json:"item_id"`
	Quantity decimal.Decimal `json:"quantity"` // siempre positiva; el signo lo pone la operación
	Reason   string          `json:"reason,omitempty"`
	Force    bool            `json:"force,omitempty"`
}

// LedgerEntryResponse asiento del libro en respuestas HTTP.
type LedgerEntryResponse struct {
	ID        string          `json:"id"`
	ItemID    string          `json:"item_id"`
	GuideID   *string         `json:"guide_id,omitempty"`
	Kind      string          `json:"kind"`
	Quantity  decimal.Decimal `json:"quantity"`
	Reason    string          `json:"reason,omitempty"`
	CreatedBy string          `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
}
