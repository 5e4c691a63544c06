package inventory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/planta-ops/internal/domain"
	"github.com/tu-usuario/planta-ops/internal/domain/entity"
	domaininv "github.com/tu-usuario/planta-ops/internal/domain/inventory"
)

const (
	testActor   = "00000000-0000-0000-0000-000000000009"
	testGuideID = "00000000-0000-0000-0000-000000000010"
	testItemID  = "00000000-0000-0000-0000-000000000011"
)

func reservedLine(qty int64) *entity.DemandLine {
	return &entity.DemandLine{
		ID:       "linea-1",
		ItemID:   testItemID,
		GuideID:  testGuideID,
		Quantity: decimal.NewFromInt(qty),
		Status:   entity.StatusReserved,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Retiro parcial: la línea original se reduce y aparece una línea ISSUED nueva
// ──────────────────────────────────────────────────────────────────────────────

func TestSplitDemandLine_RetiroParcial(t *testing.T) {
	line := reservedLine(10)
	now := time.Now()

	remainder, split, err := domaininv.SplitDemandLine(line, decimal.NewFromInt(4), testActor, now)
	require.NoError(t, err)

	require.NotNil(t, remainder, "un retiro parcial debe dejar un resto reservado")
	assert.Same(t, line, remainder, "el resto es la línea original modificada")
	assert.True(t, decimal.NewFromInt(6).Equal(remainder.Quantity))
	assert.Equal(t, entity.StatusReserved, remainder.Status)
	assert.Nil(t, remainder.WithdrawnBy, "el resto no registra retiro")

	require.NotNil(t, split)
	assert.Empty(t, split.ID, "la línea nueva no lleva ID, lo asigna el repositorio")
	assert.True(t, decimal.NewFromInt(4).Equal(split.Quantity))
	assert.Equal(t, entity.StatusIssued, split.Status)
	assert.Equal(t, testGuideID, split.GuideID)
	assert.Equal(t, testItemID, split.ItemID)
	require.NotNil(t, split.WithdrawnBy)
	assert.Equal(t, testActor, *split.WithdrawnBy)
	require.NotNil(t, split.WithdrawnAt)
	assert.True(t, split.WithdrawnAt.Equal(now))
}

// Retiro total: la línea se voltea en sitio, sin duplicar filas.
func TestSplitDemandLine_RetiroTotal_VolteaEnSitio(t *testing.T) {
	line := reservedLine(10)
	now := time.Now()

	remainder, split, err := domaininv.SplitDemandLine(line, decimal.NewFromInt(10), testActor, now)
	require.NoError(t, err)

	assert.Nil(t, remainder, "un retiro total no deja resto")
	assert.Same(t, line, split, "la misma línea pasa a ISSUED")
	assert.Equal(t, entity.StatusIssued, line.Status)
	assert.True(t, decimal.NewFromInt(10).Equal(line.Quantity), "la cantidad no cambia en un retiro total")
	require.NotNil(t, line.WithdrawnBy)
	assert.Equal(t, testActor, *line.WithdrawnBy)
}

// ── Validaciones ──────────────────────────────────────────────────────────────

func TestSplitDemandLine_CantidadMayorQueLinea(t *testing.T) {
	line := reservedLine(5)
	_, _, err := domaininv.SplitDemandLine(line, decimal.NewFromInt(6), testActor, time.Now())
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.Equal(t, entity.StatusReserved, line.Status, "la línea no debe mutar si la validación falla")
	assert.True(t, decimal.NewFromInt(5).Equal(line.Quantity))
}

func TestSplitDemandLine_CantidadCeroONegativa(t *testing.T) {
	_, _, err := domaininv.SplitDemandLine(reservedLine(5), decimal.Zero, testActor, time.Now())
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, _, err = domaininv.SplitDemandLine(reservedLine(5), decimal.NewFromInt(-1), testActor, time.Now())
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestSplitDemandLine_LineaNoReservada(t *testing.T) {
	line := reservedLine(5)
	line.Status = entity.StatusNeeded
	_, _, err := domaininv.SplitDemandLine(line, decimal.NewFromInt(2), testActor, time.Now())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition,
		"solo una línea RESERVED puede retirarse")
}

// Cantidades fraccionarias: 2.5 de una línea de 7.5 deja 5 reservado.
func TestSplitDemandLine_CantidadesDecimales(t *testing.T) {
	line := reservedLine(0)
	line.Quantity = decimal.RequireFromString("7.5")

	remainder, split, err := domaininv.SplitDemandLine(line, decimal.RequireFromString("2.5"), testActor, time.Now())
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(5).Equal(remainder.Quantity))
	assert.True(t, decimal.RequireFromString("2.5").Equal(split.Quantity))
}
