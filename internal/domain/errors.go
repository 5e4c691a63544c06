package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidQuantity   = errors.New("cantidad inválida")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrBarcodeAllocation = errors.New("no fue posible generar un código de barras único")
	ErrReconciliation    = errors.New("cantidad almacenada no coincide con el libro de movimientos")
	ErrInvalidTransition = errors.New("transición de estado no permitida")
)

// InsufficientStockError lleva las cantidades involucradas para que el caller
// decida (mostrar disponible, ofrecer forzar, etc.). Envuelve ErrInsufficientStock.
type InsufficientStockError struct {
	ItemID    string
	Available decimal.Decimal
	Requested decimal.Decimal
	Reserved  decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para item %s: disponible %s, solicitado %s (reservado %s)",
		e.ItemID, e.Available.String(), e.Requested.String(), e.Reserved.String())
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// BarcodeAllocationError indica que se agotaron los reintentos de generación.
// Es fatal para la operación de creación que lo envuelve; el caller no reintenta.
type BarcodeAllocationError struct {
	Prefix   string
	Attempts int
}

func (e *BarcodeAllocationError) Error() string {
	return fmt.Sprintf("generación de código de barras agotada para prefijo %q tras %d intentos", e.Prefix, e.Attempts)
}

func (e *BarcodeAllocationError) Unwrap() error { return ErrBarcodeAllocation }

// ReconciliationError señala que la suma del libro no coincide con la cantidad
// almacenada. Señal de bug interno, nunca un error de usuario.
type ReconciliationError struct {
	ItemID    string
	Stored    decimal.Decimal
	LedgerSum decimal.Decimal
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconciliación fallida para item %s: almacenado %s, suma del libro %s",
		e.ItemID, e.Stored.String(), e.LedgerSum.String())
}

func (e *ReconciliationError) Unwrap() error { return ErrReconciliation }
