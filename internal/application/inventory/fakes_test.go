package inventory_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/planta-ops/internal/application/barcode"
	appinv "github.com/tu-usuario/planta-ops/internal/application/inventory"
	"github.com/tu-usuario/planta-ops/internal/domain"
	"github.com/tu-usuario/planta-ops/internal/domain/entity"
	"github.com/tu-usuario/planta-ops/internal/domain/repository"
	"github.com/tu-usuario/planta-ops/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles en memoria para los tests del orquestador.
//
// memStore emula la BD: mu protege los datos en cada llamada de repo y los
// repos devuelven copias, igual que un scan de pgx devuelve structs frescos.
// Hay dos runners con modelos de aislamiento distintos:
//
//   - fakeTxRunner serializa transacciones completas con txMu (el modelo más
//     conservador, útil para la mayoría de los tests).
//   - fakeRowLockTxRunner modela read-committed con bloqueo de fila: las
//     lecturas simples no se serializan entre sí y solo GetForUpdate toma el
//     candado del item, reteniéndolo hasta el final de la transacción. Es el
//     modelo fiel a SELECT FOR UPDATE y el que exige leer las líneas después
//     de bloquear la fila.
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	rowLocks map[string]*sync.Mutex
	items    map[string]*entity.InventoryItem
	guides   map[string]*entity.Guide
	steps    map[string]*entity.Step
	lines    []*entity.DemandLine
	entries  []*entity.LedgerEntry
	seq      int
}

func newMemStore() *memStore {
	return &memStore{
		rowLocks: map[string]*sync.Mutex{},
		items:    map[string]*entity.InventoryItem{},
		guides:   map[string]*entity.Guide{},
		steps:    map[string]*entity.Step{},
	}
}

// nextID requiere mu tomado por el caller.
func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%04d", prefix, s.seq)
}

// rowLock devuelve el candado de fila del item, creándolo si no existe.
func (s *memStore) rowLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.rowLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.rowLocks[id] = l
	}
	return l
}

func copyItem(i *entity.InventoryItem) *entity.InventoryItem {
	c := *i
	return &c
}

func copyLine(l *entity.DemandLine) *entity.DemandLine {
	c := *l
	return &c
}

// ── ItemRepository ────────────────────────────────────────────────────────────

type fakeItemRepo struct{ s *memStore }

func (r *fakeItemRepo) Create(item *entity.InventoryItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.items {
		if existing.Barcode == item.Barcode {
			return domain.ErrDuplicate
		}
	}
	r.s.items[item.ID] = copyItem(item)
	return nil
}

func (r *fakeItemRepo) GetByID(id string) (*entity.InventoryItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.items[id]
	if !ok {
		return nil, nil
	}
	return copyItem(item), nil
}

func (r *fakeItemRepo) GetByBarcode(barcode string) (*entity.InventoryItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, item := range r.s.items {
		if item.Barcode == barcode {
			return copyItem(item), nil
		}
	}
	return nil, nil
}

// GetForUpdate: el bloqueo lo pone el runner (txMu o candado de fila).
func (r *fakeItemRepo) GetForUpdate(id string) (*entity.InventoryItem, error) {
	return r.GetByID(id)
}

func (r *fakeItemRepo) AdjustQuantity(id string, delta decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	next := item.Quantity.Add(delta)
	if next.LessThan(decimal.Zero) {
		return &domain.InsufficientStockError{ItemID: id, Available: item.Quantity, Requested: delta.Neg()}
	}
	item.Quantity = next
	return nil
}

func (r *fakeItemRepo) Update(item *entity.InventoryItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[item.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.items[item.ID] = copyItem(item)
	return nil
}

func (r *fakeItemRepo) List(limit, offset int) ([]*entity.InventoryItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.InventoryItem, 0, len(r.s.items))
	for _, item := range r.s.items {
		out = append(out, copyItem(item))
	}
	return out, nil
}

func (r *fakeItemRepo) Delete(id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.items, id)
	return nil
}

// ── LedgerRepository ──────────────────────────────────────────────────────────

type fakeLedgerRepo struct{ s *memStore }

func (r *fakeLedgerRepo) Create(entry *entity.LedgerEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if entry.ID == "" {
		entry.ID = r.s.nextID("asiento")
	}
	c := *entry
	r.s.entries = append(r.s.entries, &c)
	return nil
}

func (r *fakeLedgerRepo) GetByID(id string) (*entity.LedgerEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.entries {
		if e.ID == id {
			c := *e
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakeLedgerRepo) ListByItem(itemID string, limit, offset int) ([]*entity.LedgerEntry, error) {
	return r.ListAllByItem(itemID)
}

func (r *fakeLedgerRepo) ListByGuide(guideID string, limit, offset int) ([]*entity.LedgerEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.LedgerEntry
	for _, e := range r.s.entries {
		if e.GuideID != nil && *e.GuideID == guideID {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) ListAllByItem(itemID string) ([]*entity.LedgerEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.LedgerEntry
	for _, e := range r.s.entries {
		if e.ItemID == itemID {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

// ── DemandLineRepository ──────────────────────────────────────────────────────

type fakeLineRepo struct{ s *memStore }

func (r *fakeLineRepo) Create(line *entity.DemandLine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if line.ID == "" {
		line.ID = r.s.nextID("linea")
	}
	r.s.lines = append(r.s.lines, copyLine(line))
	return nil
}

func (r *fakeLineRepo) GetByID(id string) (*entity.DemandLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.lines {
		if l.ID == id {
			return copyLine(l), nil
		}
	}
	return nil, nil
}

// GetGuideLine: línea a nivel de guía (StepID nil) aún no entregada, la más
// antigua primero (el slice conserva orden de inserción).
func (r *fakeLineRepo) GetGuideLine(guideID, itemID string) (*entity.DemandLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.lines {
		if l.GuideID == guideID && l.ItemID == itemID && l.StepID == nil && l.Status != entity.StatusIssued {
			return copyLine(l), nil
		}
	}
	return nil, nil
}

func (r *fakeLineRepo) GetStepLine(stepID, itemID string) (*entity.DemandLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.lines {
		if l.StepID != nil && *l.StepID == stepID && l.ItemID == itemID {
			return copyLine(l), nil
		}
	}
	return nil, nil
}

func (r *fakeLineRepo) ListByGuide(guideID string) ([]*entity.DemandLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.DemandLine
	for _, l := range r.s.lines {
		if l.GuideID == guideID {
			out = append(out, copyLine(l))
		}
	}
	return out, nil
}

func (r *fakeLineRepo) ListByItem(itemID string) ([]*entity.DemandLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.DemandLine
	for _, l := range r.s.lines {
		if l.ItemID == itemID {
			out = append(out, copyLine(l))
		}
	}
	return out, nil
}

func (r *fakeLineRepo) Update(line *entity.DemandLine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, l := range r.s.lines {
		if l.ID == line.ID {
			r.s.lines[i] = copyLine(line)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeLineRepo) Delete(id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, l := range r.s.lines {
		if l.ID == id {
			r.s.lines = append(r.s.lines[:i], r.s.lines[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeLineRepo) SumByItemAndStatus(itemID, status string) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sum := decimal.Zero
	for _, l := range r.s.lines {
		if l.ItemID == itemID && l.Status == status {
			sum = sum.Add(l.Quantity)
		}
	}
	return sum, nil
}

// HasActiveByItem: las líneas ISSUED son consumo histórico, no cuentan.
func (r *fakeLineRepo) HasActiveByItem(itemID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.lines {
		if l.ItemID == itemID && l.Status != entity.StatusIssued {
			return true, nil
		}
	}
	return false, nil
}

// ── GuideRepository / StepRepository ──────────────────────────────────────────

type fakeGuideRepo struct{ s *memStore }

func (r *fakeGuideRepo) Create(guide *entity.Guide) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, g := range r.s.guides {
		if g.Barcode == guide.Barcode {
			return domain.ErrDuplicate
		}
	}
	c := *guide
	r.s.guides[guide.ID] = &c
	return nil
}

func (r *fakeGuideRepo) GetByID(id string) (*entity.Guide, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.guides[id]
	if !ok {
		return nil, nil
	}
	c := *g
	return &c, nil
}

func (r *fakeGuideRepo) GetByBarcode(barcode string) (*entity.Guide, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, g := range r.s.guides {
		if g.Barcode == barcode {
			c := *g
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakeGuideRepo) UpdateStatus(id, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.guides[id]
	if !ok {
		return domain.ErrNotFound
	}
	g.Status = status
	return nil
}

func (r *fakeGuideRepo) Delete(id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.guides[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.guides, id)
	return nil
}

type fakeStepRepo struct{ s *memStore }

func (r *fakeStepRepo) GetByID(id string) (*entity.Step, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.steps[id]
	if !ok {
		return nil, nil
	}
	c := *st
	return &c, nil
}

func (r *fakeStepRepo) ListByGuide(guideID string) ([]*entity.Step, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Step
	for _, st := range r.s.steps {
		if st.GuideID == guideID {
			c := *st
			out = append(out, &c)
		}
	}
	return out, nil
}

// ── TxRunner ──────────────────────────────────────────────────────────────────

// fakeTxRunner serializa las transacciones completas con txMu. Es más estricto
// que el aislamiento real, pero suficiente para los tests de semántica.
type fakeTxRunner struct{ s *memStore }

func (t *fakeTxRunner) Run(ctx context.Context, fn func(
	itemRepo repository.ItemRepository,
	ledgerRepo repository.LedgerRepository,
	lineRepo repository.DemandLineRepository,
	guideRepo repository.GuideRepository,
) error) error {
	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()
	return fn(&fakeItemRepo{t.s}, &fakeLedgerRepo{t.s}, &fakeLineRepo{t.s}, &fakeGuideRepo{t.s})
}

// fakeRowLockTxRunner modela read-committed con SELECT FOR UPDATE: las
// transacciones corren en paralelo, las lecturas simples ven el último estado
// committeado y solo GetForUpdate serializa, tomando el candado de fila del
// item hasta que la transacción termina.
type fakeRowLockTxRunner struct{ s *memStore }

func (t *fakeRowLockTxRunner) Run(ctx context.Context, fn func(
	itemRepo repository.ItemRepository,
	ledgerRepo repository.LedgerRepository,
	lineRepo repository.DemandLineRepository,
	guideRepo repository.GuideRepository,
) error) error {
	itemRepo := &rowLockItemRepo{fakeItemRepo: &fakeItemRepo{t.s}, held: map[string]*sync.Mutex{}}
	defer itemRepo.releaseAll()
	return fn(itemRepo, &fakeLedgerRepo{t.s}, &fakeLineRepo{t.s}, &fakeGuideRepo{t.s})
}

// rowLockItemRepo toma el candado de fila en GetForUpdate y lo retiene hasta
// releaseAll (fin de la transacción), como el bloqueo de fila de PostgreSQL.
type rowLockItemRepo struct {
	*fakeItemRepo
	held map[string]*sync.Mutex
}

func (r *rowLockItemRepo) GetForUpdate(id string) (*entity.InventoryItem, error) {
	if _, ok := r.held[id]; !ok {
		l := r.s.rowLock(id)
		l.Lock()
		r.held[id] = l
	}
	return r.GetByID(id)
}

func (r *rowLockItemRepo) releaseAll() {
	for _, l := range r.held {
		l.Unlock()
	}
}

// ── Colaboradores ─────────────────────────────────────────────────────────────

// fakeAuthorizer concede todo salvo los pares módulo/acción listados en deny.
type fakeAuthorizer struct {
	mu    sync.Mutex
	deny  map[string]bool // clave "module/action"
	calls []string
}

func (a *fakeAuthorizer) Check(ctx context.Context, actorID, module, action string, minLevel int) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	key := module + "/" + action
	a.calls = append(a.calls, key)
	if a.deny[key] {
		return false, nil
	}
	return true, nil
}

type fakeAuditor struct {
	mu      sync.Mutex
	actions []string
}

func (a *fakeAuditor) Record(ctx context.Context, actorID, action, module, targetID string, metadata map[string]any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, action)
}

type fakeNotifier struct {
	mu     sync.Mutex
	alerts []string // item IDs notificados, en orden
}

func (n *fakeNotifier) LowStock(ctx context.Context, item *entity.InventoryItem) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, item.ID)
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.alerts)
}

// ── Arnés ─────────────────────────────────────────────────────────────────────

type testEngine struct {
	orch     *appinv.Orchestrator
	store    *memStore
	authz    *fakeAuthorizer
	audit    *fakeAuditor
	notifier *fakeNotifier
}

func newTestEngine() *testEngine {
	return buildTestEngine(func(s *memStore) appinv.TxRunner { return &fakeTxRunner{s} })
}

// newRowLockTestEngine monta el orquestador sobre el runner de candado de
// fila, para los tests que dependen del modelo de aislamiento real.
func newRowLockTestEngine() *testEngine {
	return buildTestEngine(func(s *memStore) appinv.TxRunner { return &fakeRowLockTxRunner{s} })
}

func buildTestEngine(runner func(*memStore) appinv.TxRunner) *testEngine {
	store := newMemStore()
	authz := &fakeAuthorizer{deny: map[string]bool{}}
	audit := &fakeAuditor{}
	notifier := &fakeNotifier{}
	log := logger.Nop()

	orch := appinv.NewOrchestrator(
		runner(store),
		&fakeItemRepo{store},
		&fakeStepRepo{store},
		&fakeGuideRepo{store},
		barcode.NewAllocator(),
		authz,
		audit,
		appinv.NewAlertTrigger(notifier, log),
		log,
	)
	return &testEngine{orch: orch, store: store, authz: authz, audit: audit, notifier: notifier}
}

// Acceso directo al estado, fuera de cualquier transacción en curso.
func (e *testEngine) itemQty(id string) decimal.Decimal {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	return e.store.items[id].Quantity
}

func (e *testEngine) guideStatus(id string) string {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	return e.store.guides[id].Status
}

func (e *testEngine) ledgerFor(itemID string) []*entity.LedgerEntry {
	repo := &fakeLedgerRepo{e.store}
	entries, _ := repo.ListAllByItem(itemID)
	return entries
}

// entryCount cuenta los asientos de un item por tipo.
func (e *testEngine) entryCount(itemID, kind string) int {
	n := 0
	for _, entry := range e.ledgerFor(itemID) {
		if entry.Kind == kind {
			n++
		}
	}
	return n
}

func (e *testEngine) linesFor(guideID string) []*entity.DemandLine {
	repo := &fakeLineRepo{e.store}
	lines, _ := repo.ListByGuide(guideID)
	return lines
}

func (e *testEngine) reservedFor(itemID string) decimal.Decimal {
	repo := &fakeLineRepo{e.store}
	sum, _ := repo.SumByItemAndStatus(itemID, entity.StatusReserved)
	return sum
}

// seedItem inserta un item directo al store, sin pasar por el orquestador.
func (e *testEngine) seedItem(id string, qty int64, min *decimal.Decimal) *entity.InventoryItem {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	item := &entity.InventoryItem{
		ID:          id,
		Barcode:     "IT" + id,
		Name:        "material " + id,
		Unit:        "unidad",
		Quantity:    decimal.NewFromInt(qty),
		MinQuantity: min,
	}
	e.store.items[id] = item
	if qty > 0 {
		e.store.entries = append(e.store.entries, &entity.LedgerEntry{
			ID:        e.store.nextID("asiento"),
			ItemID:    id,
			Kind:      entity.EntryADD,
			Quantity:  decimal.NewFromInt(qty),
			Reason:    "stock inicial",
			CreatedBy: "seed",
		})
	}
	return item
}

func (e *testEngine) seedStep(stepID, guideID string) {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	e.store.guides[guideID] = &entity.Guide{ID: guideID, Barcode: "PG-" + guideID, Title: "guía", Status: entity.GuideStatusDraft}
	e.store.steps[stepID] = &entity.Step{ID: stepID, GuideID: guideID, Title: "paso", Position: 1}
}
