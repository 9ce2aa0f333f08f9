package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/acollet/vestiaire/internal/domain"
)

// loanRepository is the subset of store.LoanStore that LoanService requires.
type loanRepository interface {
	Borrow(ctx context.Context, volunteerID, itemID, qty int64, actor, opID string) (*domain.Loan, error)
	Return(ctx context.Context, loanID int64, actor, opID string) (*domain.Loan, error)
	GetByID(ctx context.Context, id int64) (*domain.Loan, error)
	ListOpen(ctx context.Context, filter domain.OpenLoanFilter) ([]*domain.OpenLoan, error)
}

// volunteerRepository is the subset of store.CatalogStore that LoanService requires.
type volunteerRepository interface {
	GetVolunteer(ctx context.Context, id int64) (*domain.Volunteer, error)
	FindVolunteerByName(ctx context.Context, firstName, lastName string) (*domain.Volunteer, error)
}

type LoanService struct {
	loans      loanRepository
	volunteers volunteerRepository
	logger     *slog.Logger
}

func NewLoanService(loans loanRepository, volunteers volunteerRepository, logger *slog.Logger) *LoanService {
	return &LoanService{loans: loans, volunteers: volunteers, logger: logger}
}

// Borrow lends qty units of a stock item to a volunteer. The reservation and
// the loan row commit together; on insufficient stock nothing is created.
func (s *LoanService) Borrow(ctx context.Context, volunteerID, itemID, qty int64, actor string) (*domain.Loan, error) {
	opID := uuid.NewString()
	loan, err := s.loans.Borrow(ctx, volunteerID, itemID, qty, actor, opID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("loan opened",
		"loan_id", loan.ID,
		"volunteer_id", volunteerID,
		"stock_item_id", itemID,
		"qty", qty,
		"operation_id", opID,
		"actor", actor,
	)
	return loan, nil
}

// Return closes an open loan and releases its quantity back to stock.
// Returning twice fails with ErrAlreadyReturned.
func (s *LoanService) Return(ctx context.Context, loanID int64, actor string) (*domain.Loan, error) {
	opID := uuid.NewString()
	loan, err := s.loans.Return(ctx, loanID, actor, opID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("loan returned",
		"loan_id", loan.ID,
		"stock_item_id", loan.StockItemID,
		"qty", loan.Quantity,
		"operation_id", opID,
		"actor", actor,
	)
	return loan, nil
}

func (s *LoanService) ListOpen(ctx context.Context, filter domain.OpenLoanFilter) ([]*domain.OpenLoan, error) {
	return s.loans.ListOpen(ctx, filter)
}

func (s *LoanService) GetLoan(ctx context.Context, id int64) (*domain.Loan, error) {
	loan, err := s.loans.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, domain.ErrNotFound
	}
	return loan, nil
}

// FindVolunteer resolves a volunteer by the (first, last) name pair for the
// public lookup. The match is case-insensitive and deterministic.
func (s *LoanService) FindVolunteer(ctx context.Context, firstName, lastName string) (*domain.Volunteer, error) {
	v, err := s.volunteers.FindVolunteerByName(ctx, firstName, lastName)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (s *LoanService) GetVolunteer(ctx context.Context, id int64) (*domain.Volunteer, error) {
	v, err := s.volunteers.GetVolunteer(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, domain.ErrNotFound
	}
	return v, nil
}
