package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/planta-ops/internal/domain"
	"github.com/tu-usuario/planta-ops/internal/domain/entity"
	"github.com/tu-usuario/planta-ops/internal/domain/repository"
)

var _ repository.DemandLineRepository = (*DemandLineRepo)(nil)

// DemandLineRepo implementación de DemandLineRepository sobre PostgreSQL.
type DemandLineRepo struct {
	q Querier
}

// NewDemandLineRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDemandLineRepository(q Querier) *DemandLineRepo {
	return &DemandLineRepo{q: q}
}

const lineColumns = `id, item_id, guide_id, step_id, quantity, status, withdrawn_by, withdrawn_at, created_at, updated_at`

// Create persiste una línea de demanda.
func (r *DemandLineRepo) Create(line *entity.DemandLine) error {
	if line.ID == "" {
		line.ID = uuid.New().String()
	}
	query := `
		INSERT INTO demand_lines (` + lineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(context.Background(), query,
		line.ID, line.ItemID, line.GuideID, line.StepID, line.Quantity,
		line.Status, line.WithdrawnBy, line.WithdrawnAt, line.CreatedAt, line.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create demand line: %w", err)
	}
	return nil
}

// GetByID obtiene una línea por id.
func (r *DemandLineRepo) GetByID(id string) (*entity.DemandLine, error) {
	query := `SELECT ` + lineColumns + ` FROM demand_lines WHERE id = $1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id), "get demand line")
}

// GetGuideLine devuelve la línea a nivel de guía (step_id IS NULL) para
// (guía, item). Tras un split puede haber varias filas para el par: se
// devuelve la línea aún reservada/necesitada más antigua, que es sobre la que
// operan upsert y retiro.
func (r *DemandLineRepo) GetGuideLine(guideID, itemID string) (*entity.DemandLine, error) {
	query := `
		SELECT ` + lineColumns + ` FROM demand_lines
		WHERE guide_id = $1 AND item_id = $2 AND step_id IS NULL AND status <> $3
		ORDER BY created_at ASC
		LIMIT 1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, guideID, itemID, entity.StatusIssued), "get guide line")
}

// GetStepLine devuelve la línea activa de un (paso, item).
func (r *DemandLineRepo) GetStepLine(stepID, itemID string) (*entity.DemandLine, error) {
	query := `
		SELECT ` + lineColumns + ` FROM demand_lines
		WHERE step_id = $1 AND item_id = $2
		ORDER BY created_at ASC
		LIMIT 1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, stepID, itemID), "get step line")
}

// ListByGuide lista todas las líneas de una guía.
func (r *DemandLineRepo) ListByGuide(guideID string) ([]*entity.DemandLine, error) {
	query := `SELECT ` + lineColumns + ` FROM demand_lines WHERE guide_id = $1 ORDER BY created_at ASC`
	return r.list(query, guideID)
}

// ListByItem lista todas las líneas que referencian un item.
func (r *DemandLineRepo) ListByItem(itemID string) ([]*entity.DemandLine, error) {
	query := `SELECT ` + lineColumns + ` FROM demand_lines WHERE item_id = $1 ORDER BY created_at ASC`
	return r.list(query, itemID)
}

// Update actualiza cantidad, estado y marcas de retiro de una línea.
func (r *DemandLineRepo) Update(line *entity.DemandLine) error {
	query := `
		UPDATE demand_lines
		SET quantity = $2, status = $3, withdrawn_by = $4, withdrawn_at = $5, updated_at = $6
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query,
		line.ID, line.Quantity, line.Status, line.WithdrawnBy, line.WithdrawnAt, line.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update demand line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete borra una línea.
func (r *DemandLineRepo) Delete(id string) error {
	tag, err := r.q.Exec(context.Background(), `DELETE FROM demand_lines WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete demand line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SumByItemAndStatus suma en vivo las cantidades de un item en un estado.
// COALESCE evita el NULL de SUM sobre cero filas.
func (r *DemandLineRepo) SumByItemAndStatus(itemID, status string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(quantity), 0) FROM demand_lines
		WHERE item_id = $1 AND status = $2`
	var sum decimal.Decimal
	if err := r.q.QueryRow(context.Background(), query, itemID, status).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum demand lines: %w", err)
	}
	return sum, nil
}

// HasActiveByItem indica si alguna línea viva (NEEDED o RESERVED) referencia
// el item. Las líneas ISSUED son consumo histórico y no bloquean el borrado.
func (r *DemandLineRepo) HasActiveByItem(itemID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM demand_lines WHERE item_id = $1 AND status <> $2)`
	var exists bool
	if err := r.q.QueryRow(context.Background(), query, itemID, entity.StatusIssued).Scan(&exists); err != nil {
		return false, fmt.Errorf("check active lines: %w", err)
	}
	return exists, nil
}

func (r *DemandLineRepo) scanOne(row pgx.Row, op string) (*entity.DemandLine, error) {
	var l entity.DemandLine
	err := row.Scan(&l.ID, &l.ItemID, &l.GuideID, &l.StepID, &l.Quantity,
		&l.Status, &l.WithdrawnBy, &l.WithdrawnAt, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &l, nil
}

func (r *DemandLineRepo) list(query string, key string) ([]*entity.DemandLine, error) {
	rows, err := r.q.Query(context.Background(), query, key)
	if err != nil {
		return nil, fmt.Errorf("list demand lines: %w", err)
	}
	defer rows.Close()
	var list []*entity.DemandLine
	for rows.Next() {
		var l entity.DemandLine
		if err := rows.Scan(&l.ID, &l.ItemID, &l.GuideID, &l.StepID, &l.Quantity,
			&l.Status, &l.WithdrawnBy, &l.WithdrawnAt, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan demand line: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}
