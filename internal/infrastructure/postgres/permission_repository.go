package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/planta-ops/internal/application/inventory"
)

var _ inventory.Authorizer = (*PermissionRepo)(nil)

// PermissionRepo resuelve el chequeo de permisos contra la tabla
// user_permissions. Implementa el colaborador de autorización del orquestador;
// la política (quién tiene qué nivel) vive en la BD, no aquí.
type PermissionRepo struct {
	q Querier
}

// NewPermissionRepository construye el adaptador de permisos.
func NewPermissionRepository(q Querier) *PermissionRepo {
	return &PermissionRepo{q: q}
}

// Check devuelve true si el actor tiene nivel suficiente para (module, action).
// La acción '*' en la tabla actúa como comodín del módulo.
func (r *PermissionRepo) Check(ctx context.Context, actorID, module, action string, minLevel int) (bool, error) {
	query := `
		SELECT MAX(level) FROM user_permissions
		WHERE user_id = $1 AND module = $2 AND (action = $3 OR action = '*')`
	var level *int
	err := r.q.QueryRow(ctx, query, actorID, module, action).Scan(&level)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check permission: %w", err)
	}
	if level == nil {
		return false, nil
	}
	return *level >= minLevel, nil
}

// GetUserIDsByMinLevel lista los usuarios con al menos cierto nivel en un
// módulo (destinatarios de alertas de stock bajo).
func (r *PermissionRepo) GetUserIDsByMinLevel(ctx context.Context, module string, minLevel int) ([]string, error) {
	query := `
		SELECT DISTINCT user_id FROM user_permissions
		WHERE module = $1 AND level >= $2`
	rows, err := r.q.Query(ctx, query, module, minLevel)
	if err != nil {
		return nil, fmt.Errorf("list users by level: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
