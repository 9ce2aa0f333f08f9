package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/acollet/vestiaire/internal/domain"
)

type LoanStore struct {
	db *sql.DB
}

func NewLoanStore(db *sql.DB) *LoanStore {
	return &LoanStore{db: db}
}

// Borrow reserves qty units of a stock item and creates the loan row in the
// same transaction. On insufficient stock nothing is created.
func (s *LoanStore) Borrow(ctx context.Context, volunteerID, itemID, qty int64, actor, opID string) (*domain.Loan, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM volunteers WHERE id = ?`, volunteerID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to look up volunteer: %w", err)
	}
	if exists == 0 {
		return nil, domain.ErrNotFound
	}

	if _, _, err := adjustQuantityTx(ctx, tx, itemID, -qty, domain.MovementBorrow, opID, actor); err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO loans (stock_item_id, volunteer_id, qty) VALUES (?, ?, ?)
	`, itemID, volunteerID, qty)
	if err != nil {
		return nil, fmt.Errorf("failed to create loan: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(ctx, id)
}

// Return stamps returned_at and releases the loan's quantity back to stock,
// both in one transaction. A loan can be returned exactly once.
func (s *LoanStore) Return(ctx context.Context, loanID int64, actor, opID string) (*domain.Loan, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	loan := &domain.Loan{}
	err = tx.QueryRowContext(ctx, `
		SELECT id, stock_item_id, volunteer_id, qty, since, returned_at FROM loans WHERE id = ?
	`, loanID).Scan(&loan.ID, &loan.StockItemID, &loan.VolunteerID, &loan.Quantity, &loan.Since, &loan.ReturnedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}
	if loan.ReturnedAt != nil {
		return nil, domain.ErrAlreadyReturned
	}

	if _, _, err := adjustQuantityTx(ctx, tx, loan.StockItemID, loan.Quantity, domain.MovementReturn, opID, actor); err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE loans SET returned_at = datetime('now') WHERE id = ? AND returned_at IS NULL
	`, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to close loan: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, domain.ErrAlreadyReturned
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(ctx, loanID)
}

func (s *LoanStore) GetByID(ctx context.Context, id int64) (*domain.Loan, error) {
	loan := &domain.Loan{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, stock_item_id, volunteer_id, qty, since, returned_at FROM loans WHERE id = ?
	`, id).Scan(&loan.ID, &loan.StockItemID, &loan.VolunteerID, &loan.Quantity, &loan.Since, &loan.ReturnedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}
	return loan, nil
}

// ListOpen returns open loans joined with volunteer, garment and antenna
// labels, oldest first.
func (s *LoanStore) ListOpen(ctx context.Context, filter domain.OpenLoanFilter) ([]*domain.OpenLoan, error) {
	query := `
		SELECT l.id, l.stock_item_id, l.volunteer_id, l.qty, l.since, l.returned_at,
		       v.last_name || ' ' || v.first_name, g.label, s.size, s.antenna_id, a.name
		FROM loans l
		JOIN volunteers v ON v.id = l.volunteer_id
		JOIN stock_items s ON s.id = l.stock_item_id
		JOIN garment_types g ON g.id = s.garment_type_id
		JOIN antennas a ON a.id = s.antenna_id
		WHERE l.returned_at IS NULL
	`
	args := []any{}
	if filter.AntennaID != nil {
		query += " AND s.antenna_id = ?"
		args = append(args, *filter.AntennaID)
	}
	if filter.VolunteerID != nil {
		query += " AND l.volunteer_id = ?"
		args = append(args, *filter.VolunteerID)
	}
	query += " ORDER BY l.since ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list open loans: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var loans []*domain.OpenLoan
	for rows.Next() {
		l := &domain.OpenLoan{}
		if err := rows.Scan(&l.ID, &l.StockItemID, &l.VolunteerID, &l.Quantity, &l.Since, &l.ReturnedAt,
			&l.VolunteerName, &l.GarmentLabel, &l.Size, &l.AntennaID, &l.AntennaName); err != nil {
			return nil, fmt.Errorf("failed to scan open loan: %w", err)
		}
		loans = append(loans, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating open loans: %w", err)
	}
	return loans, nil
}

// CountOpen returns the number of open loans, for the stats view.
func (s *LoanStore) CountOpen(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM loans WHERE returned_at IS NULL`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count open loans: %w", err)
	}
	return n, nil
}
