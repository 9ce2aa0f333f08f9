package web

import (
	"net/http"
	"time"

	"github.com/acollet/vestiaire/internal/domain"
)

type sessionResponse struct {
	ID        int64      `json:"id"`
	AntennaID int64      `json:"antenna_id"`
	StartedAt time.Time  `json:"started_at"`
	ClosedAt  *time.Time `json:"closed_at"`
}

func toSessionResponse(sess *domain.InventorySession) sessionResponse {
	return sessionResponse{
		ID:        sess.ID,
		AntennaID: sess.AntennaID,
		StartedAt: sess.StartedAt,
		ClosedAt:  sess.ClosedAt,
	}
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AntennaID int64 `json:"antenna_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeBadRequest(w, "invalid request body")
		return
	}

	sess, err := s.inventory.StartSession(r.Context(), req.AntennaID, actingUser(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toSessionResponse(sess))
}

type sessionLineResponse struct {
	StockItemID int64   `json:"stock_item_id"`
	Type        string  `json:"type"`
	Size        *string `json:"size"`
	Quantity    int64   `json:"quantity"`
	CountedQty  *int64  `json:"counted_qty"`
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := parseID(r)
	if err != nil {
		s.writeBadRequest(w, "invalid session id")
		return
	}

	detail, err := s.inventory.GetSession(r.Context(), sessionID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	lines := make([]sessionLineResponse, 0, len(detail.Lines))
	for _, line := range detail.Lines {
		lines = append(lines, sessionLineResponse{
			StockItemID: line.ID,
			Type:        line.GarmentLabel,
			Size:        line.Size,
			Quantity:    line.Quantity,
			CountedQty:  line.CountedQty,
		})
	}

	s.writeJSON(w, http.StatusOK, struct {
		sessionResponse
		Lines []sessionLineResponse `json:"lines"`
	}{toSessionResponse(detail.InventorySession), lines})
}

func (s *Server) handleRecordCount(w http.ResponseWriter, r *http.Request) {
	sessionID, err := parseID(r)
	if err != nil {
		s.writeBadRequest(w, "invalid session id")
		return
	}

	var req struct {
		StockItemID int64 `json:"stock_item_id"`
		CountedQty  int64 `json:"counted_qty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeBadRequest(w, "invalid request body")
		return
	}
	if req.CountedQty < 0 {
		s.writeBadRequest(w, "counted_qty must not be negative")
		return
	}

	delta, err := s.inventory.RecordCount(r.Context(), sessionID, req.StockItemID, req.CountedQty)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, struct {
		Delta int64 `json:"delta"`
	}{Delta: delta})
}

type appliedDeltaResponse struct {
	StockItemID int64 `json:"stock_item_id"`
	PreviousQty int64 `json:"previous_qty"`
	NewQty      int64 `json:"new_qty"`
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := parseID(r)
	if err != nil {
		s.writeBadRequest(w, "invalid session id")
		return
	}

	applied, err := s.inventory.CloseSession(r.Context(), sessionID, actingUser(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]appliedDeltaResponse, 0, len(applied))
	for _, d := range applied {
		out = append(out, appliedDeltaResponse{StockItemID: d.StockItemID, PreviousQty: d.PreviousQty, NewQty: d.NewQty})
	}
	s.writeJSON(w, http.StatusOK, struct {
		AppliedDeltas []appliedDeltaResponse `json:"applied_deltas"`
	}{AppliedDeltas: out})
}
