package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// GuideItemRequest un material solicitado para una guía o paso.
type GuideItemRequest struct {
	ItemID   string          `json:"item_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// CreateGuideRequest body para POST /api/guides.
type CreateGuideRequest struct {
	Title string             `json:"title"`
	Items []GuideItemRequest `json:"items,omitempty"`
}

// CreateGuideResponse éxito parcial explícito: la guía se crea aunque algunos
// materiales fallen; los fallos viajan en Errors, item por item.
type CreateGuideResponse struct {
	GuideID       string      `json:"guide_id"`
	Barcode       string      `json:"barcode"`
	ReservedItems []string    `json:"reserved_items"`
	Errors        []ItemError `json:"errors,omitempty"`
}

// GuideResponse representación HTTP de una guía de producción.
type GuideResponse struct {
	ID        string    `json:"id"`
	Barcode   string    `json:"barcode"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpsertGuideItemRequest body para PUT /api/guides/:id/items/:itemId.
type UpsertGuideItemRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// WithdrawRequest body para POST /api/guides/:id/withdraw.
type WithdrawRequest struct {
	Items []GuideItemRequest `json:"items"`
}

// WithdrawResponse resultado por lotes del retiro de material reservado.
type WithdrawResponse struct {
	IssuedItems []string    `json:"issued_items"`
	Errors      []ItemError `json:"errors,omitempty"`
}
