package inventory

import (
	"context"

	"github.com/tu-usuario/planta-ops/internal/domain/entity"
	"github.com/tu-usuario/planta-ops/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Es el único mecanismo de seguridad frente a
// concurrencia del motor: leer estado, validar, escribir libro, cantidad y
// líneas ocurre dentro de la misma transacción con bloqueo de fila.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		itemRepo repository.ItemRepository,
		ledgerRepo repository.LedgerRepository,
		lineRepo repository.DemandLineRepository,
		guideRepo repository.GuideRepository,
	) error) error
}

// Authorizer es el colaborador externo de permisos. El orquestador consulta
// antes de mutar y trata la negación como ErrForbidden; no implementa política.
type Authorizer interface {
	Check(ctx context.Context, actorID, module, action string, minLevel int) (bool, error)
}

// Auditor registra acciones para el log de auditoría. Best-effort y no
// transaccional: un fallo del auditor nunca revierte la operación central.
type Auditor interface {
	Record(ctx context.Context, actorID, action, module, targetID string, metadata map[string]any)
}

// AlertNotifier entrega alertas de stock bajo. Se invoca después del commit;
// los fallos se loguean, nunca se propagan como error de la operación.
type AlertNotifier interface {
	LowStock(ctx context.Context, item *entity.InventoryItem) error
}

// Acciones y niveles usados contra el Authorizer.
const (
	ModuleInventory = "inventory"
	ModuleGuides    = "guides"

	ActionAdjust      = "adjust"
	ActionForceRemove = "force_remove"
	ActionReserve     = "reserve"
	ActionIssue       = "issue"
	ActionManageGuide = "manage"

	LevelOperator   = 1
	LevelSupervisor = 2
)
