package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/acollet/vestiaire/internal/domain"
)

type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

// Start opens a counting session for one antenna. At most one session may be
// open per antenna; a partial unique index backs up the in-transaction check.
func (s *SessionStore) Start(ctx context.Context, antennaID int64) (*domain.InventorySession, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM antennas WHERE id = ?`, antennaID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to look up antenna: %w", err)
	}
	if exists == 0 {
		return nil, domain.ErrNotFound
	}

	var open int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM inventory_sessions WHERE antenna_id = ? AND closed_at IS NULL
	`, antennaID).Scan(&open)
	if err != nil {
		return nil, fmt.Errorf("failed to check open sessions: %w", err)
	}
	if open > 0 {
		return nil, domain.ErrSessionAlreadyOpen
	}

	result, err := tx.ExecContext(ctx, `INSERT INTO inventory_sessions (antenna_id) VALUES (?)`, antennaID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
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

func (s *SessionStore) GetByID(ctx context.Context, id int64) (*domain.InventorySession, error) {
	sess := &domain.InventorySession{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, antenna_id, started_at, closed_at FROM inventory_sessions WHERE id = ?
	`, id).Scan(&sess.ID, &sess.AntennaID, &sess.StartedAt, &sess.ClosedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return sess, nil
}

// RecordCount stages a counted quantity for one stock item. Stock is not
// mutated; the returned delta compares the count against the quantity read
// now, not at session start. Recording the same item again overwrites the
// previous count.
func (s *SessionStore) RecordCount(ctx context.Context, sessionID, itemID, countedQty int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	antennaID, err := openSessionAntennaTx(ctx, tx, sessionID)
	if err != nil {
		return 0, err
	}

	var itemAntenna, quantity int64
	err = tx.QueryRowContext(ctx, `
		SELECT antenna_id, quantity FROM stock_items WHERE id = ? AND deleted_at IS NULL
	`, itemID).Scan(&itemAntenna, &quantity)
	if err == sql.ErrNoRows {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get stock item: %w", err)
	}
	// A session only counts its own antenna's stock.
	if itemAntenna != antennaID {
		return 0, domain.ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO inventory_counts (session_id, stock_item_id, counted_qty)
		VALUES (?, ?, ?)
		ON CONFLICT (session_id, stock_item_id)
		DO UPDATE SET counted_qty = excluded.counted_qty, recorded_at = datetime('now')
	`, sessionID, itemID, countedQty)
	if err != nil {
		return 0, fmt.Errorf("failed to record count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return countedQty - quantity, nil
}

// Close applies every recorded count as an absolute correction and stamps
// closed_at, all in one transaction. On any failure the session stays open
// and no count is applied. Items never counted are left untouched.
func (s *SessionStore) Close(ctx context.Context, sessionID int64, actor, opID string) ([]domain.AppliedDelta, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := openSessionAntennaTx(ctx, tx, sessionID); err != nil {
		return nil, err
	}

	counts, err := countsTx(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}

	applied := make([]domain.AppliedDelta, 0, len(counts))
	for _, c := range counts {
		prev, err := setQuantityTx(ctx, tx, c.StockItemID, c.CountedQty, domain.MovementInventoryClose, opID, actor)
		if err != nil {
			return nil, err
		}
		applied = append(applied, domain.AppliedDelta{
			StockItemID: c.StockItemID,
			PreviousQty: prev,
			NewQty:      c.CountedQty,
		})
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE inventory_sessions SET closed_at = datetime('now') WHERE id = ? AND closed_at IS NULL
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to close session: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, domain.ErrSessionNotOpen
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return applied, nil
}

// Counts returns the staged counts of a session, in item order.
func (s *SessionStore) Counts(ctx context.Context, sessionID int64) ([]*domain.InventoryCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, stock_item_id, counted_qty, recorded_at
		FROM inventory_counts WHERE session_id = ? ORDER BY stock_item_id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list counts: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var counts []*domain.InventoryCount
	for rows.Next() {
		c := &domain.InventoryCount{}
		if err := rows.Scan(&c.SessionID, &c.StockItemID, &c.CountedQty, &c.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating counts: %w", err)
	}
	return counts, nil
}

// openSessionAntennaTx resolves a session inside tx and returns its antenna.
// Unknown and closed sessions both fail with ErrSessionNotOpen.
func openSessionAntennaTx(ctx context.Context, tx *sql.Tx, sessionID int64) (int64, error) {
	var antennaID int64
	var closedAt sql.NullString
	err := tx.QueryRowContext(ctx, `
		SELECT antenna_id, closed_at FROM inventory_sessions WHERE id = ?
	`, sessionID).Scan(&antennaID, &closedAt)
	if err == sql.ErrNoRows {
		return 0, domain.ErrSessionNotOpen
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get session: %w", err)
	}
	if closedAt.Valid {
		return 0, domain.ErrSessionNotOpen
	}
	return antennaID, nil
}

// countsTx lists a session's counts inside tx, skipping counts whose item
// was soft-deleted after the count was recorded.
func countsTx(ctx context.Context, tx *sql.Tx, sessionID int64) ([]domain.InventoryCount, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT c.session_id, c.stock_item_id, c.counted_qty, c.recorded_at
		FROM inventory_counts c
		JOIN stock_items s ON s.id = c.stock_item_id
		WHERE c.session_id = ? AND s.deleted_at IS NULL
		ORDER BY c.stock_item_id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list counts: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var counts []domain.InventoryCount
	for rows.Next() {
		var c domain.InventoryCount
		if err := rows.Scan(&c.SessionID, &c.StockItemID, &c.CountedQty, &c.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating counts: %w", err)
	}
	return counts, nil
}
