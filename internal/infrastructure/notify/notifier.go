package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tu-usuario/planta-ops/internal/application/inventory"
	"github.com/tu-usuario/planta-ops/internal/domain/entity"
	"github.com/tu-usuario/planta-ops/pkg/logger"
)

var _ inventory.AlertNotifier = (*Notifier)(nil)

// recipientSource resuelve los destinatarios de una alerta (lo implementa
// postgres.PermissionRepo; la interfaz evita el import del paquete completo).
type recipientSource interface {
	GetUserIDsByMinLevel(ctx context.Context, module string, minLevel int) ([]string, error)
}

// Notifier entrega notificaciones dentro de la app persistiéndolas en la tabla
// notifications (el transporte real, chat o push, lo consume otro módulo).
type Notifier struct {
	pool       *pgxpool.Pool
	recipients recipientSource
	log        *logger.Logger
}

// NewNotifier construye el notificador.
func NewNotifier(pool *pgxpool.Pool, recipients recipientSource, log *logger.Logger) *Notifier {
	return &Notifier{pool: pool, recipients: recipients, log: log}
}

// Notify crea una notificación para un usuario.
func (n *Notifier) Notify(ctx context.Context, userID, content, link string) error {
	query := `
		INSERT INTO notifications (id, user_id, content, link, read, created_at)
		VALUES ($1, $2, $3, $4, false, now())`
	if _, err := n.pool.Exec(ctx, query, uuid.New().String(), userID, content, link); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// LowStock notifica a los supervisores de inventario que un item cruzó su
// umbral mínimo. Implementa inventory.AlertNotifier.
func (n *Notifier) LowStock(ctx context.Context, item *entity.InventoryItem) error {
	userIDs, err := n.recipients.GetUserIDsByMinLevel(ctx, inventory.ModuleInventory, inventory.LevelSupervisor)
	if err != nil {
		return fmt.Errorf("resolver destinatarios: %w", err)
	}
	content := fmt.Sprintf("Stock bajo: %s (%s) quedó en %s %s", item.Name, item.Barcode, item.Quantity.String(), item.Unit)
	link := "/inventory/items/" + item.ID
	for _, userID := range userIDs {
		if err := n.Notify(ctx, userID, content, link); err != nil {
			// Seguir con el resto de destinatarios; se reporta el último fallo.
			n.log.Warn().Err(err).Str("user_id", userID).Msg("notificación de stock bajo fallida")
		}
	}
	return nil
}
