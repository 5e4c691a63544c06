package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/planta-ops/internal/application/barcode"
	"github.com/tu-usuario/planta-ops/internal/domain"
	"github.com/tu-usuario/planta-ops/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Los Create con barcode corren bajo savepoint: en PostgreSQL un 23505 aborta
// la transacción en curso, y sin savepoint el reintento del allocator se
// estrellaría contra una tx muerta (25P02). Estos tests verifican con un
// Querier de mentira que la colisión revierte solo su savepoint y que el
// siguiente intento abre uno nuevo.
// ──────────────────────────────────────────────────────────────────────────────

// stubTx savepoint simulado: registra commits y rollbacks y falla el Exec con
// el error configurado.
type stubTx struct {
	pgx.Tx
	execErr   error
	commits   int
	rollbacks int
}

func (t *stubTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if t.execErr != nil {
		return pgconn.CommandTag{}, t.execErr
	}
	return pgconn.CommandTag{}, nil
}

func (t *stubTx) Commit(ctx context.Context) error {
	t.commits++
	return nil
}

func (t *stubTx) Rollback(ctx context.Context) error {
	t.rollbacks++
	return nil
}

// stubQuerier reparte un stubTx por cada Begin, con los errores de Exec
// encolados en orden de intento.
type stubQuerier struct {
	execErrs []error
	txs      []*stubTx
}

func (q *stubQuerier) Begin(ctx context.Context) (pgx.Tx, error) {
	tx := &stubTx{}
	if len(q.execErrs) > 0 {
		tx.execErr = q.execErrs[0]
		q.execErrs = q.execErrs[1:]
	}
	q.txs = append(q.txs, tx)
	return tx, nil
}

func (q *stubQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (q *stubQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (q *stubQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505", ConstraintName: "production_guides_barcode_key"}
}

func testGuide(code string) *entity.Guide {
	now := time.Now()
	return &entity.Guide{ID: "guia-1", Barcode: code, Title: "mesa", Status: entity.GuideStatusDraft, CreatedBy: "op-1", CreatedAt: now, UpdatedAt: now}
}

func TestGuideCreate_ColisionRevierteSoloElSavepoint(t *testing.T) {
	q := &stubQuerier{execErrs: []error{uniqueViolation()}}
	repo := NewGuideRepository(q)

	err := repo.Create(testGuide("PG-2026-0001-0001"))
	require.ErrorIs(t, err, domain.ErrDuplicate)

	require.Len(t, q.txs, 1)
	assert.Equal(t, 0, q.txs[0].commits, "una colisión no debe committear el savepoint")
	assert.Equal(t, 1, q.txs[0].rollbacks)
}

func TestGuideCreate_ExitoCommitteaElSavepoint(t *testing.T) {
	q := &stubQuerier{}
	repo := NewGuideRepository(q)

	require.NoError(t, repo.Create(testGuide("PG-2026-0001-0002")))
	require.Len(t, q.txs, 1)
	assert.Equal(t, 1, q.txs[0].commits)
}

// El camino completo del allocator: el primer candidato choca, el segundo
// entra, y cada intento vive en su propio savepoint.
func TestAllocateGuide_ReintentaTrasColision(t *testing.T) {
	q := &stubQuerier{execErrs: []error{uniqueViolation(), nil}}
	repo := NewGuideRepository(q)
	alloc := barcode.NewAllocator()

	guide := testGuide("")
	code, err := alloc.AllocateGuide(time.Now(), func(candidate string) error {
		guide.Barcode = candidate
		return repo.Create(guide)
	})
	require.NoError(t, err)
	assert.NotEmpty(t, code)
	assert.Equal(t, code, guide.Barcode)

	require.Len(t, q.txs, 2, "cada intento abre su propio savepoint")
	assert.Equal(t, 1, q.txs[0].rollbacks)
	assert.Equal(t, 0, q.txs[0].commits)
	assert.Equal(t, 1, q.txs[1].commits)
}

func TestItemCreate_ColisionSenalaReintento(t *testing.T) {
	q := &stubQuerier{execErrs: []error{uniqueViolation()}}
	repo := NewItemRepository(q)

	item := &entity.InventoryItem{Barcode: "MAT000001", Name: "tornillo", Unit: "unidad", Quantity: decimal.NewFromInt(10)}
	err := repo.Create(item)
	require.ErrorIs(t, err, domain.ErrDuplicate)
	require.Len(t, q.txs, 1)
	assert.Equal(t, 1, q.txs[0].rollbacks)
	assert.Equal(t, 0, q.txs[0].commits)
}
