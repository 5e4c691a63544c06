package barcode

import (
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/tu-usuario/planta-ops/internal/domain"
)

// Reintentos máximos al insertar con un código candidato.
const (
	guideMaxAttempts = 3
	itemMaxAttempts  = 1000 // la probabilidad de colisión es despreciable; el tope evita bloqueo patológico
)

// Allocator genera códigos de barras legibles y resistentes a colisiones.
// La unicidad la garantiza el constraint de la BD, no el generador: el caller
// pasa un insert que falla con domain.ErrDuplicate en colisión y el allocator
// reintenta con un componente aleatorio fresco.
type Allocator struct {
	seq atomic.Uint32
}

// NewAllocator construye el allocator con la secuencia sembrada del reloj,
// para que procesos reiniciados no repitan la misma serie inicial.
func NewAllocator() *Allocator {
	a := &Allocator{}
	a.seq.Store(uint32(time.Now().UnixNano() % 10000)) //nolint:gosec
	return a
}

// GuideCandidate compone PG-AÑO-SEC4-RAND4.
func (a *Allocator) GuideCandidate(now time.Time) string {
	seq := a.seq.Add(1) % 10000
	return fmt.Sprintf("PG-%d-%04d-%04d", now.Year(), seq, rand.Intn(10000))
}

// ItemCandidate compone PREFIJO + sufijo numérico aleatorio de 6 dígitos.
func (a *Allocator) ItemCandidate(prefix string) string {
	return fmt.Sprintf("%s%06d", prefix, rand.Intn(1000000))
}

// AllocateGuide intenta insertar con códigos candidatos hasta guideMaxAttempts.
// insert debe devolver domain.ErrDuplicate ante violación de unicidad; cualquier
// otro error aborta sin reintentar. Agotar los reintentos es fatal para la
// operación de creación que lo envuelve.
func (a *Allocator) AllocateGuide(now time.Time, insert func(code string) error) (string, error) {
	return a.allocate("PG", guideMaxAttempts, func() string { return a.GuideCandidate(now) }, insert)
}

// AllocateItem como AllocateGuide, con prefijo del caller y tope alto.
func (a *Allocator) AllocateItem(prefix string, insert func(code string) error) (string, error) {
	return a.allocate(prefix, itemMaxAttempts, func() string { return a.ItemCandidate(prefix) }, insert)
}

func (a *Allocator) allocate(prefix string, maxAttempts int, candidate func() string, insert func(code string) error) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code := candidate()
		err := insert(code)
		if err == nil {
			return code, nil
		}
		if errors.Is(err, domain.ErrDuplicate) {
			continue // colisión: sorteo fresco en la siguiente vuelta
		}
		return "", err
	}
	return "", &domain.BarcodeAllocationError{Prefix: prefix, Attempts: maxAttempts}
}
