package entity

import "time"

// Estados de una guía de producción.
const (
	GuideStatusDraft      = "DRAFT"
	GuideStatusInProgress = "IN_PROGRESS"
	GuideStatusDone       = "DONE"
	GuideStatusCancelled  = "CANCELLED"
)

// Guide representa una guía de producción (orden de trabajo) dueña de líneas de
// demanda. El motor de inventario solo toca su creación, borrado y estado;
// el resto del ciclo de vida pertenece a otro módulo.
type Guide struct {
	ID        string
	Barcode   string // PG-AÑO-SEC-RAND, único
	Title     string
	Status    string
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Step representa un paso de la guía al que pueden atarse líneas de demanda.
type Step struct {
	ID        string
	GuideID   string
	Title     string
	Position  int
	CreatedAt time.Time
}
