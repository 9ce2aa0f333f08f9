package service

import (
	"context"
	"time"

	"github.com/acollet/vestiaire/internal/domain"
)

// Alert views are pure projections over current ledger state. Nothing here
// is cached or persisted, so the views can never drift from the ledgers.

// LowStockAlert is one stock row at or below its antenna's threshold.
type LowStockAlert struct {
	*domain.StockItemDetail
	Threshold int64
}

// OverdueLoan is an open loan older than the configured number of days.
type OverdueLoan struct {
	*domain.OpenLoan
	AgeDays int64
}

// LowStock filters items whose quantity is at or below the threshold
// resolved for their antenna.
func LowStock(items []*domain.StockItemDetail, thresholds domain.ThresholdConfig) []*LowStockAlert {
	var alerts []*LowStockAlert
	for _, item := range items {
		t := thresholds.Resolve(item.AntennaID)
		if item.Quantity <= t {
			alerts = append(alerts, &LowStockAlert{StockItemDetail: item, Threshold: t})
		}
	}
	return alerts
}

// Overdue filters open loans strictly older than overdueDays, measuring age
// in whole elapsed days.
func Overdue(loans []*domain.OpenLoan, overdueDays int64, now time.Time) []*OverdueLoan {
	var overdue []*OverdueLoan
	for _, loan := range loans {
		age := ageInDays(loan.Since, now)
		if age > overdueDays {
			overdue = append(overdue, &OverdueLoan{OpenLoan: loan, AgeDays: age})
		}
	}
	return overdue
}

func ageInDays(since, now time.Time) int64 {
	return int64(now.Sub(since) / (24 * time.Hour))
}

// alertStockRepository is the subset of store.StockStore that AlertService requires.
type alertStockRepository interface {
	List(ctx context.Context, antennaID *int64) ([]*domain.StockItemDetail, error)
}

// alertLoanRepository is the subset of store.LoanStore that AlertService requires.
type alertLoanRepository interface {
	ListOpen(ctx context.Context, filter domain.OpenLoanFilter) ([]*domain.OpenLoan, error)
}

// alertThresholdRepository is the subset of store.CatalogStore that AlertService requires.
type alertThresholdRepository interface {
	AntennaThresholds(ctx context.Context) (map[int64]int64, error)
}

// AlertService assembles the two alert views from live ledger state plus
// externally supplied thresholds.
type AlertService struct {
	stock      alertStockRepository
	loans      alertLoanRepository
	thresholds alertThresholdRepository
}

func NewAlertService(stock alertStockRepository, loans alertLoanRepository, thresholds alertThresholdRepository) *AlertService {
	return &AlertService{stock: stock, loans: loans, thresholds: thresholds}
}

// Alerts recomputes both views. defaultThreshold applies to antennas without
// an explicit low-stock threshold.
func (s *AlertService) Alerts(ctx context.Context, overdueDays, defaultThreshold int64, now time.Time) ([]*LowStockAlert, []*OverdueLoan, error) {
	items, err := s.stock.List(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	perAntenna, err := s.thresholds.AntennaThresholds(ctx)
	if err != nil {
		return nil, nil, err
	}
	loans, err := s.loans.ListOpen(ctx, domain.OpenLoanFilter{})
	if err != nil {
		return nil, nil, err
	}

	cfg := domain.ThresholdConfig{PerAntenna: perAntenna, Default: defaultThreshold}
	return LowStock(items, cfg), Overdue(loans, overdueDays, now), nil
}
