package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/acollet/vestiaire/internal/domain"
)

// stockRepository is the subset of store.StockStore that StockService requires.
type stockRepository interface {
	CreateOrAdd(ctx context.Context, antennaID, garmentTypeID int64, size *string, qty int64, tags []string, actor, opID string) (*domain.StockItem, error)
	GetByID(ctx context.Context, id int64) (*domain.StockItem, error)
	List(ctx context.Context, antennaID *int64) ([]*domain.StockItemDetail, error)
	ListInStock(ctx context.Context) ([]*domain.StockItemDetail, error)
	Delete(ctx context.Context, id int64) error
	Movements(ctx context.Context, itemID int64) ([]*domain.StockMovement, error)
	TotalQuantity(ctx context.Context) (int64, error)
}

// catalogRepository is the subset of store.CatalogStore that StockService requires.
type catalogRepository interface {
	GetAntenna(ctx context.Context, id int64) (*domain.Antenna, error)
	ListAntennas(ctx context.Context) ([]*domain.Antenna, error)
	GetGarmentType(ctx context.Context, id int64) (*domain.GarmentType, error)
	ListGarmentTypes(ctx context.Context) ([]*domain.GarmentType, error)
	CountVolunteers(ctx context.Context) (int64, error)
}

// stockLoanRepository is the subset of store.LoanStore that StockService requires.
type stockLoanRepository interface {
	CountOpen(ctx context.Context) (int64, error)
}

type StockService struct {
	stock   stockRepository
	catalog catalogRepository
	loans   stockLoanRepository
	logger  *slog.Logger
}

func NewStockService(stock stockRepository, catalog catalogRepository, loans stockLoanRepository, logger *slog.Logger) *StockService {
	return &StockService{stock: stock, catalog: catalog, loans: loans, logger: logger}
}

// AddStock adds qty units to the (antenna, garment type, size) stock item,
// creating it on first addition.
func (s *StockService) AddStock(ctx context.Context, antennaID, garmentTypeID int64, size *string, qty int64, tags []string, actor string) (*domain.StockItem, error) {
	antenna, err := s.catalog.GetAntenna(ctx, antennaID)
	if err != nil {
		return nil, err
	}
	if antenna == nil {
		return nil, domain.ErrNotFound
	}
	garment, err := s.catalog.GetGarmentType(ctx, garmentTypeID)
	if err != nil {
		return nil, err
	}
	if garment == nil {
		return nil, domain.ErrNotFound
	}
	// Sizeless garment types collapse onto a single variant.
	if !garment.HasSize {
		size = nil
	}

	opID := uuid.NewString()
	item, err := s.stock.CreateOrAdd(ctx, antennaID, garmentTypeID, size, qty, tags, actor, opID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("stock added",
		"stock_item_id", item.ID,
		"antenna_id", antennaID,
		"garment_type_id", garmentTypeID,
		"qty", qty,
		"operation_id", opID,
		"actor", actor,
	)
	return item, nil
}

func (s *StockService) GetItem(ctx context.Context, id int64) (*domain.StockItem, error) {
	item, err := s.stock.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (s *StockService) ListStock(ctx context.Context, antennaID *int64) ([]*domain.StockItemDetail, error) {
	return s.stock.List(ctx, antennaID)
}

// PublicStock lists items currently in stock, for the volunteer-facing view.
func (s *StockService) PublicStock(ctx context.Context) ([]*domain.StockItemDetail, error) {
	return s.stock.ListInStock(ctx)
}

// DeleteItem removes a stock item unless open loans still reference it.
func (s *StockService) DeleteItem(ctx context.Context, id int64, actor string) error {
	if err := s.stock.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("stock item deleted", "stock_item_id", id, "actor", actor)
	return nil
}

// Movements returns the audit journal for one stock item.
func (s *StockService) Movements(ctx context.Context, itemID int64) ([]*domain.StockMovement, error) {
	item, err := s.stock.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return s.stock.Movements(ctx, itemID)
}

func (s *StockService) ListAntennas(ctx context.Context) ([]*domain.Antenna, error) {
	return s.catalog.ListAntennas(ctx)
}

func (s *StockService) ListGarmentTypes(ctx context.Context) ([]*domain.GarmentType, error) {
	return s.catalog.ListGarmentTypes(ctx)
}

// Stats are the dashboard counters.
type Stats struct {
	TotalStock int64
	OpenLoans  int64
	Volunteers int64
}

func (s *StockService) Stats(ctx context.Context) (*Stats, error) {
	total, err := s.stock.TotalQuantity(ctx)
	if err != nil {
		return nil, err
	}
	open, err := s.loans.CountOpen(ctx)
	if err != nil {
		return nil, err
	}
	volunteers, err := s.catalog.CountVolunteers(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{TotalStock: total, OpenLoans: open, Volunteers: volunteers}, nil
}
