package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/planta-ops/internal/domain"
	"github.com/tu-usuario/planta-ops/internal/domain/entity"
	"github.com/tu-usuario/planta-ops/internal/domain/repository"
)

var _ repository.GuideRepository = (*GuideRepo)(nil)

// GuideRepo implementación de GuideRepository sobre PostgreSQL.
type GuideRepo struct {
	q Querier
}

// NewGuideRepository construye el adaptador. Pasar pool o tx (Querier).
func NewGuideRepository(q Querier) *GuideRepo {
	return &GuideRepo{q: q}
}

const guideColumns = `id, barcode, title, status, created_by, created_at, updated_at`

// Create persiste una guía. Devuelve domain.ErrDuplicate si el barcode choca
// (señal de reintento para el allocator). Igual que con los items, el INSERT
// corre bajo savepoint: la colisión solo revierte este intento y la
// transacción del caller sigue viva para el siguiente candidato.
func (r *GuideRepo) Create(guide *entity.Guide) error {
	query := `
		INSERT INTO production_guides (` + guideColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	ctx := context.Background()
	tx, err := r.q.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create guide: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	_, err = tx.Exec(ctx, query,
		guide.ID, guide.Barcode, guide.Title, guide.Status, guide.CreatedBy,
		guide.CreatedAt, guide.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create guide: %w", err)
	}
	return tx.Commit(ctx)
}

// GetByID obtiene una guía por id. Devuelve (nil, nil) si no existe.
func (r *GuideRepo) GetByID(id string) (*entity.Guide, error) {
	query := `SELECT ` + guideColumns + ` FROM production_guides WHERE id = $1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id), "get guide")
}

// GetByBarcode obtiene una guía por código de barras.
func (r *GuideRepo) GetByBarcode(barcode string) (*entity.Guide, error) {
	query := `SELECT ` + guideColumns + ` FROM production_guides WHERE barcode = $1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, barcode), "get guide by barcode")
}

// UpdateStatus cambia el estado de la guía.
func (r *GuideRepo) UpdateStatus(id, status string) error {
	query := `UPDATE production_guides SET status = $2, updated_at = now() WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, id, status)
	if err != nil {
		return fmt.Errorf("update guide status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete borra la guía. Las líneas y asientos los maneja el orquestador antes
// de llegar aquí (RELEASE compensatorio; el libro conserva el guide_id).
func (r *GuideRepo) Delete(id string) error {
	tag, err := r.q.Exec(context.Background(), `DELETE FROM production_guides WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete guide: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GuideRepo) scanOne(row pgx.Row, op string) (*entity.Guide, error) {
	var g entity.Guide
	err := row.Scan(&g.ID, &g.Barcode, &g.Title, &g.Status, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &g, nil
}

var _ repository.StepRepository = (*StepRepo)(nil)

// StepRepo lectura de pasos de guía (el ciclo de vida del paso es de otro módulo).
type StepRepo struct {
	q Querier
}

// NewStepRepository construye el adaptador de pasos.
func NewStepRepository(q Querier) *StepRepo {
	return &StepRepo{q: q}
}

// GetByID obtiene un paso por id.
func (r *StepRepo) GetByID(id string) (*entity.Step, error) {
	query := `SELECT id, guide_id, title, position, created_at FROM guide_steps WHERE id = $1`
	var s entity.Step
	err := r.q.QueryRow(context.Background(), query, id).Scan(&s.ID, &s.GuideID, &s.Title, &s.Position, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get step: %w", err)
	}
	return &s, nil
}

// ListByGuide lista los pasos de una guía en orden.
func (r *StepRepo) ListByGuide(guideID string) ([]*entity.Step, error) {
	query := `SELECT id, guide_id, title, position, created_at FROM guide_steps WHERE guide_id = $1 ORDER BY position ASC`
	rows, err := r.q.Query(context.Background(), query, guideID)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close()
	var list []*entity.Step
	for rows.Next() {
		var s entity.Step
		if err := rows.Scan(&s.ID, &s.GuideID, &s.Title, &s.Position, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}
