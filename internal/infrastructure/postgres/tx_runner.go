package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tu-usuario/planta-ops/internal/application/inventory"
	"github.com/tu-usuario/planta-ops/internal/domain/repository"
)

// Ensure TxRunner implements inventory.TxRunner.
var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL. Es la única
// frontera de atomicidad del motor: leer, validar y escribir libro + cantidad +
// líneas ocurre dentro del mismo Begin/Commit, con FOR UPDATE sobre el item.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	itemRepo repository.ItemRepository,
	ledgerRepo repository.LedgerRepository,
	lineRepo repository.DemandLineRepository,
	guideRepo repository.GuideRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	itemRepo := NewItemRepository(tx)
	ledgerRepo := NewLedgerRepository(tx)
	lineRepo := NewDemandLineRepository(tx)
	guideRepo := NewGuideRepository(tx)

	if err := fn(itemRepo, ledgerRepo, lineRepo, guideRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
