package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/acollet/vestiaire/internal/domain"
)

// StockStore is the single writer of stock_items.quantity. Loan and session
// stores mutate quantity only through the tx helpers defined in this file,
// so the floor invariant and the movement journal stay in one place.
type StockStore struct {
	db *sql.DB
}

func NewStockStore(db *sql.DB) *StockStore {
	return &StockStore{db: db}
}

// CreateOrAdd adds qty to the stock item identified by (antennaID,
// garmentTypeID, size), creating the row if it does not exist yet.
func (s *StockStore) CreateOrAdd(ctx context.Context, antennaID, garmentTypeID int64, size *string, qty int64, tags []string, actor, opID string) (*domain.StockItem, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM stock_items
		WHERE antenna_id = ? AND garment_type_id = ? AND ifnull(size, '') = ifnull(?, '') AND deleted_at IS NULL
	`, antennaID, garmentTypeID, size).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		result, err := tx.ExecContext(ctx, `
			INSERT INTO stock_items (antenna_id, garment_type_id, size, quantity, tags) VALUES (?, ?, ?, 0, ?)
		`, antennaID, garmentTypeID, size, joinTags(tags))
		if err != nil {
			return nil, fmt.Errorf("failed to create stock item: %w", err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to get last insert id: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to look up stock item: %w", err)
	}

	if _, _, err := adjustQuantityTx(ctx, tx, id, qty, domain.MovementAddStock, opID, actor); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(ctx, id)
}

// AddStock increases quantity by delta (> 0) and journals the movement.
func (s *StockStore) AddStock(ctx context.Context, itemID, delta int64, actor, opID string) (int64, error) {
	return s.applyDelta(ctx, itemID, delta, domain.MovementAddStock, opID, actor)
}

// Reserve decrements quantity by qty. It fails with ErrInsufficientStock and
// leaves the row unchanged if the decrement would take quantity below zero.
func (s *StockStore) Reserve(ctx context.Context, itemID, qty int64, actor, opID string) (int64, error) {
	return s.applyDelta(ctx, itemID, -qty, domain.MovementBorrow, opID, actor)
}

// Release increments quantity by qty.
func (s *StockStore) Release(ctx context.Context, itemID, qty int64, actor, opID string) (int64, error) {
	return s.applyDelta(ctx, itemID, qty, domain.MovementReturn, opID, actor)
}

func (s *StockStore) applyDelta(ctx context.Context, itemID, delta int64, op, opID, actor string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, next, err := adjustQuantityTx(ctx, tx, itemID, delta, op, opID, actor)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return next, nil
}

// SetAbsolute replaces quantity with newQty. The journal entry records the
// pre-correction quantity; the delta column stays null for corrections.
func (s *StockStore) SetAbsolute(ctx context.Context, itemID, newQty int64, actor, opID string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := setQuantityTx(ctx, tx, itemID, newQty, domain.MovementInventoryClose, opID, actor); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return newQty, nil
}

func (s *StockStore) GetByID(ctx context.Context, id int64) (*domain.StockItem, error) {
	item := &domain.StockItem{}
	var tags string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, antenna_id, garment_type_id, size, quantity, tags FROM stock_items
		WHERE id = ? AND deleted_at IS NULL
	`, id).Scan(&item.ID, &item.AntennaID, &item.GarmentTypeID, &item.Size, &item.Quantity, &tags)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stock item: %w", err)
	}

	item.Tags = splitTags(tags)
	return item, nil
}

// List returns stock items joined with catalog labels, optionally limited to
// one antenna.
func (s *StockStore) List(ctx context.Context, antennaID *int64) ([]*domain.StockItemDetail, error) {
	query := `
		SELECT s.id, s.antenna_id, s.garment_type_id, s.size, s.quantity, s.tags, g.label, a.name
		FROM stock_items s
		JOIN garment_types g ON g.id = s.garment_type_id
		JOIN antennas a ON a.id = s.antenna_id
		WHERE s.deleted_at IS NULL
	`
	args := []any{}
	if antennaID != nil {
		query += " AND s.antenna_id = ?"
		args = append(args, *antennaID)
	}
	query += " ORDER BY a.name, g.label, s.size"

	return s.queryDetails(ctx, query, args...)
}

// ListInStock returns items with quantity > 0, for the public stock view.
func (s *StockStore) ListInStock(ctx context.Context) ([]*domain.StockItemDetail, error) {
	return s.queryDetails(ctx, `
		SELECT s.id, s.antenna_id, s.garment_type_id, s.size, s.quantity, s.tags, g.label, a.name
		FROM stock_items s
		JOIN garment_types g ON g.id = s.garment_type_id
		JOIN antennas a ON a.id = s.antenna_id
		WHERE s.quantity > 0 AND s.deleted_at IS NULL
		ORDER BY a.name, g.label, s.size
	`)
}

func (s *StockStore) queryDetails(ctx context.Context, query string, args ...any) ([]*domain.StockItemDetail, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock items: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var items []*domain.StockItemDetail
	for rows.Next() {
		item := &domain.StockItemDetail{}
		var tags string
		if err := rows.Scan(&item.ID, &item.AntennaID, &item.GarmentTypeID, &item.Size, &item.Quantity, &tags, &item.GarmentLabel, &item.AntennaName); err != nil {
			return nil, fmt.Errorf("failed to scan stock item: %w", err)
		}
		item.Tags = splitTags(tags)
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stock items: %w", err)
	}
	return items, nil
}

// Delete soft-deletes a stock item so the movement journal and returned
// loans keep their references. Items with open loans are kept and the call
// fails with ErrStockItemInUse.
func (s *StockStore) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var open int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM loans WHERE stock_item_id = ? AND returned_at IS NULL
	`, id).Scan(&open)
	if err != nil {
		return fmt.Errorf("failed to count open loans: %w", err)
	}
	if open > 0 {
		return domain.ErrStockItemInUse
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE stock_items SET deleted_at = datetime('now') WHERE id = ? AND deleted_at IS NULL
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete stock item: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Movements returns the journal for one stock item, oldest first.
func (s *StockStore) Movements(ctx context.Context, itemID int64) ([]*domain.StockMovement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, stock_item_id, delta, previous_qty, new_qty, operation, operation_id, actor, created_at
		FROM stock_movements WHERE stock_item_id = ? ORDER BY id ASC
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock movements: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var moves []*domain.StockMovement
	for rows.Next() {
		m := &domain.StockMovement{}
		if err := rows.Scan(&m.ID, &m.StockItemID, &m.Delta, &m.PreviousQty, &m.NewQty, &m.Operation, &m.OperationID, &m.Actor, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock movement: %w", err)
		}
		moves = append(moves, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stock movements: %w", err)
	}
	return moves, nil
}

// TotalQuantity sums quantity over all stock items, for the stats view.
func (s *StockStore) TotalQuantity(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(quantity), 0) FROM stock_items WHERE deleted_at IS NULL`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum stock: %w", err)
	}
	return total, nil
}

// adjustQuantityTx applies a signed delta to one stock item inside tx and
// journals it. A negative delta uses a conditional update so the quantity
// floor is enforced by the database, never by a read-then-write.
func adjustQuantityTx(ctx context.Context, tx *sql.Tx, itemID, delta int64, op, opID, actor string) (prev, next int64, err error) {
	err = tx.QueryRowContext(ctx, `SELECT quantity FROM stock_items WHERE id = ? AND deleted_at IS NULL`, itemID).Scan(&prev)
	if err == sql.ErrNoRows {
		return 0, 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read quantity: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE stock_items SET quantity = quantity + ? WHERE id = ? AND quantity + ? >= 0
	`, delta, itemID, delta)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to update quantity: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return 0, 0, domain.ErrInsufficientStock
	}

	next = prev + delta
	if err := journalTx(ctx, tx, itemID, &delta, prev, next, op, opID, actor); err != nil {
		return 0, 0, err
	}
	return prev, next, nil
}

// setQuantityTx replaces one stock item's quantity inside tx and journals the
// correction with its pre-correction value.
func setQuantityTx(ctx context.Context, tx *sql.Tx, itemID, newQty int64, op, opID, actor string) (prev int64, err error) {
	err = tx.QueryRowContext(ctx, `SELECT quantity FROM stock_items WHERE id = ? AND deleted_at IS NULL`, itemID).Scan(&prev)
	if err == sql.ErrNoRows {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read quantity: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE stock_items SET quantity = ? WHERE id = ?`, newQty, itemID); err != nil {
		return 0, fmt.Errorf("failed to set quantity: %w", err)
	}

	if err := journalTx(ctx, tx, itemID, nil, prev, newQty, op, opID, actor); err != nil {
		return 0, err
	}
	return prev, nil
}

func journalTx(ctx context.Context, tx *sql.Tx, itemID int64, delta *int64, prev, next int64, op, opID, actor string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO stock_movements (stock_item_id, delta, previous_qty, new_qty, operation, operation_id, actor)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, itemID, delta, prev, next, op, opID, actor)
	if err != nil {
		return fmt.Errorf("failed to journal movement: %w", err)
	}
	return nil
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
