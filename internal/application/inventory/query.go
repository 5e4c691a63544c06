package inventory

import (
	"context"

	"github.com/tu-usuario/planta-ops/internal/application/dto"
	"github.com/tu-usuario/planta-ops/internal/domain"
	"github.com/tu-usuario/planta-ops/internal/domain/entity"
	domaininv "github.com/tu-usuario/planta-ops/internal/domain/inventory"
	"github.com/tu-usuario/planta-ops/internal/domain/repository"
	"github.com/tu-usuario/planta-ops/pkg/logger"
)

// QueryService lecturas del motor: items, agregados derivados y libro.
// Los agregados se calculan en vivo desde las líneas de demanda, nunca se
// cachean, para evitar lecturas desactualizadas.
type QueryService struct {
	itemRepo   repository.ItemRepository
	ledgerRepo repository.LedgerRepository
	lineRepo   repository.DemandLineRepository
	guideRepo  repository.GuideRepository
	log        *logger.Logger
}

// NewQueryService construye el servicio de lecturas (repos atados al pool).
func NewQueryService(
	itemRepo repository.ItemRepository,
	ledgerRepo repository.LedgerRepository,
	lineRepo repository.DemandLineRepository,
	guideRepo repository.GuideRepository,
	log *logger.Logger,
) *QueryService {
	return &QueryService{itemRepo: itemRepo, ledgerRepo: ledgerRepo, lineRepo: lineRepo, guideRepo: guideRepo, log: log}
}

// GetItem devuelve un item por id.
func (s *QueryService) GetItem(ctx context.Context, id string) (*entity.InventoryItem, error) {
	item, err := s.itemRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

// ListItems lista items paginados.
func (s *QueryService) ListItems(ctx context.Context, limit, offset int) ([]*entity.InventoryItem, error) {
	return s.itemRepo.List(limit, offset)
}

// GetAvailability calcula los agregados derivados del item y de paso verifica
// el invariante de reconciliación contra el libro. Un fallo de reconciliación
// es señal de bug interno: se loguea como error y se devuelve al caller.
func (s *QueryService) GetAvailability(ctx context.Context, itemID string) (*dto.AvailabilityResponse, error) {
	item, err := s.itemRepo.GetByID(itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	reserved, err := s.lineRepo.SumByItemAndStatus(itemID, entity.StatusReserved)
	if err != nil {
		return nil, err
	}
	needed, err := s.lineRepo.SumByItemAndStatus(itemID, entity.StatusNeeded)
	if err != nil {
		return nil, err
	}
	issued, err := s.lineRepo.SumByItemAndStatus(itemID, entity.StatusIssued)
	if err != nil {
		return nil, err
	}

	entries, err := s.ledgerRepo.ListAllByItem(itemID)
	if err != nil {
		return nil, err
	}
	if err := domaininv.Reconcile(item, entries); err != nil {
		s.log.Error().Err(err).Str("item_id", itemID).Msg("invariante de reconciliación violado")
		return nil, err
	}

	return &dto.AvailabilityResponse{
		ItemID:    itemID,
		Quantity:  item.Quantity,
		Reserved:  reserved,
		Available: domaininv.Available(item.Quantity, reserved),
		Needed:    needed,
		Issued:    issued,
	}, nil
}

// BarcodeLookup resultado de resolver un código escaneado: exactamente uno de
// Item o Guide viene no-nil.
type BarcodeLookup struct {
	Item  *entity.InventoryItem
	Guide *entity.Guide
}

// LookupBarcode resuelve un código de barras contra items y guías, en ese
// orden. Es la consulta detrás del escáner de planta: un solo endpoint para
// ambos espacios de códigos (los prefijos no colisionan).
func (s *QueryService) LookupBarcode(ctx context.Context, code string) (*BarcodeLookup, error) {
	item, err := s.itemRepo.GetByBarcode(code)
	if err != nil {
		return nil, err
	}
	if item != nil {
		return &BarcodeLookup{Item: item}, nil
	}
	guide, err := s.guideRepo.GetByBarcode(code)
	if err != nil {
		return nil, err
	}
	if guide != nil {
		return &BarcodeLookup{Guide: guide}, nil
	}
	return nil, domain.ErrNotFound
}

// GetLedgerEntry devuelve un asiento puntual del libro.
func (s *QueryService) GetLedgerEntry(ctx context.Context, id string) (*entity.LedgerEntry, error) {
	entry, err := s.ledgerRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, domain.ErrNotFound
	}
	return entry, nil
}

// ListLedgerByItem lista el libro de un item, más reciente primero.
func (s *QueryService) ListLedgerByItem(ctx context.Context, itemID string, limit, offset int) ([]*entity.LedgerEntry, error) {
	item, err := s.itemRepo.GetByID(itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return s.ledgerRepo.ListByItem(itemID, limit, offset)
}

// ListLedgerByGuide lista el libro referido a una guía. Funciona aunque la
// guía ya no exista: los asientos la sobreviven a propósito.
func (s *QueryService) ListLedgerByGuide(ctx context.Context, guideID string, limit, offset int) ([]*entity.LedgerEntry, error) {
	return s.ledgerRepo.ListByGuide(guideID, limit, offset)
}
