package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tu-usuario/planta-ops/internal/application/inventory"
	"github.com/tu-usuario/planta-ops/pkg/logger"
)

var _ inventory.Auditor = (*Recorder)(nil)

// Recorder persiste el log de auditoría en PostgreSQL de forma best-effort:
// la escritura corre en una goroutine propia, fuera de la transacción central,
// y un fallo solo se loguea; nunca revierte la operación que lo originó.
type Recorder struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewRecorder construye el auditor.
func NewRecorder(pool *pgxpool.Pool, log *logger.Logger) *Recorder {
	return &Recorder{pool: pool, log: log}
}

// Record registra la acción. Fire-and-forget: vuelve de inmediato.
func (r *Recorder) Record(ctx context.Context, actorID, action, module, targetID string, metadata map[string]any) {
	go func() {
		// Contexto propio: el del request puede estar ya cancelado.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		meta := []byte("null")
		if metadata != nil {
			if b, err := json.Marshal(metadata); err == nil {
				meta = b
			}
		}
		query := `
			INSERT INTO audit_logs (id, actor_id, action, module, target_id, metadata, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, now())`
		if _, err := r.pool.Exec(ctx, query, uuid.New().String(), actorID, action, module, targetID, meta); err != nil {
			r.log.Warn().Err(err).
				Str("action", action).
				Str("module", module).
				Str("target_id", targetID).
				Msg("no se pudo registrar auditoría")
		}
	}()
}
