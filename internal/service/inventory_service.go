package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/acollet/vestiaire/internal/domain"
)

// sessionRepository is the subset of store.SessionStore that
// InventoryService requires.
type sessionRepository interface {
	Start(ctx context.Context, antennaID int64) (*domain.InventorySession, error)
	GetByID(ctx context.Context, id int64) (*domain.InventorySession, error)
	RecordCount(ctx context.Context, sessionID, itemID, countedQty int64) (int64, error)
	Close(ctx context.Context, sessionID int64, actor, opID string) ([]domain.AppliedDelta, error)
	Counts(ctx context.Context, sessionID int64) ([]*domain.InventoryCount, error)
}

// sessionStockRepository is the subset of store.StockStore that
// InventoryService requires.
type sessionStockRepository interface {
	List(ctx context.Context, antennaID *int64) ([]*domain.StockItemDetail, error)
}

type InventoryService struct {
	sessions sessionRepository
	stock    sessionStockRepository
	logger   *slog.Logger
}

func NewInventoryService(sessions sessionRepository, stock sessionStockRepository, logger *slog.Logger) *InventoryService {
	return &InventoryService{sessions: sessions, stock: stock, logger: logger}
}

// StartSession opens a counting session for an antenna. Stock is not frozen:
// loans and returns keep moving quantities while the session is open.
func (s *InventoryService) StartSession(ctx context.Context, antennaID int64, actor string) (*domain.InventorySession, error) {
	sess, err := s.sessions.Start(ctx, antennaID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("inventory session started", "session_id", sess.ID, "antenna_id", antennaID, "actor", actor)
	return sess, nil
}

// RecordCount stages one counted quantity and returns the delta against the
// quantity on record right now. Stock itself is untouched until close.
func (s *InventoryService) RecordCount(ctx context.Context, sessionID, itemID, countedQty int64) (int64, error) {
	return s.sessions.RecordCount(ctx, sessionID, itemID, countedQty)
}

// CloseSession commits every staged count as an absolute stock correction in
// one atomic batch and reports the applied deltas.
func (s *InventoryService) CloseSession(ctx context.Context, sessionID int64, actor string) ([]domain.AppliedDelta, error) {
	opID := uuid.NewString()
	applied, err := s.sessions.Close(ctx, sessionID, actor, opID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("inventory session closed",
		"session_id", sessionID,
		"corrections", len(applied),
		"operation_id", opID,
		"actor", actor,
	)
	return applied, nil
}

// SessionLine is one antenna stock row merged with its staged count, if any,
// for the counting screen.
type SessionLine struct {
	*domain.StockItemDetail
	CountedQty *int64
}

// SessionDetail bundles a session with its antenna's stock and counts.
type SessionDetail struct {
	*domain.InventorySession
	Lines []*SessionLine
}

func (s *InventoryService) GetSession(ctx context.Context, sessionID int64) (*SessionDetail, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, domain.ErrNotFound
	}

	items, err := s.stock.List(ctx, &sess.AntennaID)
	if err != nil {
		return nil, err
	}
	counts, err := s.sessions.Counts(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	counted := make(map[int64]int64, len(counts))
	for _, c := range counts {
		counted[c.StockItemID] = c.CountedQty
	}

	lines := make([]*SessionLine, 0, len(items))
	for _, item := range items {
		line := &SessionLine{StockItemDetail: item}
		if qty, ok := counted[item.ID]; ok {
			q := qty
			line.CountedQty = &q
		}
		lines = append(lines, line)
	}
	return &SessionDetail{InventorySession: sess, Lines: lines}, nil
}
