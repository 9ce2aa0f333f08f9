package web

import (
	"net/http"
	"time"

	"github.com/acollet/vestiaire/internal/domain"
)

type stockItemResponse struct {
	ID            int64    `json:"id"`
	AntennaID     int64    `json:"antenna_id"`
	GarmentTypeID int64    `json:"garment_type_id"`
	Size          *string  `json:"size"`
	Quantity      int64    `json:"quantity"`
	Tags          []string `json:"tags,omitempty"`
}

type stockDetailResponse struct {
	stockItemResponse
	GarmentType string `json:"garment_type"`
	Antenna     string `json:"antenna"`
}

func toStockDetailResponses(items []*domain.StockItemDetail) []stockDetailResponse {
	out := make([]stockDetailResponse, 0, len(items))
	for _, item := range items {
		out = append(out, stockDetailResponse{
			stockItemResponse: stockItemResponse{
				ID:            item.ID,
				AntennaID:     item.AntennaID,
				GarmentTypeID: item.GarmentTypeID,
				Size:          item.Size,
				Quantity:      item.Quantity,
				Tags:          item.Tags,
			},
			GarmentType: item.GarmentLabel,
			Antenna:     item.AntennaName,
		})
	}
	return out
}

func (s *Server) handleListStock(w http.ResponseWriter, r *http.Request) {
	antennaID, err := queryInt64(r, "antenna_id")
	if err != nil {
		s.writeBadRequest(w, "invalid antenna_id")
		return
	}

	items, err := s.stock.ListStock(r.Context(), antennaID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toStockDetailResponses(items))
}

func (s *Server) handleAddStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AntennaID     int64    `json:"antenna_id"`
		GarmentTypeID int64    `json:"garment_type_id"`
		Size          *string  `json:"size"`
		Quantity      int64    `json:"quantity"`
		Tags          []string `json:"tags"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeBadRequest(w, "invalid request body")
		return
	}
	if req.Quantity <= 0 {
		s.writeBadRequest(w, "quantity must be positive")
		return
	}

	item, err := s.stock.AddStock(r.Context(), req.AntennaID, req.GarmentTypeID, req.Size, req.Quantity, req.Tags, actingUser(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, stockItemResponse{
		ID:            item.ID,
		AntennaID:     item.AntennaID,
		GarmentTypeID: item.GarmentTypeID,
		Size:          item.Size,
		Quantity:      item.Quantity,
		Tags:          item.Tags,
	})
}

func (s *Server) handleDeleteStockItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeBadRequest(w, "invalid stock item id")
		return
	}

	if err := s.stock.DeleteItem(r.Context(), id, actingUser(r)); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type movementResponse struct {
	ID          int64     `json:"id"`
	StockItemID int64     `json:"stock_item_id"`
	Delta       *int64    `json:"delta"`
	PreviousQty int64     `json:"previous_qty"`
	NewQty      int64     `json:"new_qty"`
	Operation   string    `json:"operation"`
	OperationID string    `json:"operation_id"`
	Actor       string    `json:"actor"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *Server) handleStockMovements(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeBadRequest(w, "invalid stock item id")
		return
	}

	moves, err := s.stock.Movements(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]movementResponse, 0, len(moves))
	for _, m := range moves {
		out = append(out, movementResponse{
			ID:          m.ID,
			StockItemID: m.StockItemID,
			Delta:       m.Delta,
			PreviousQty: m.PreviousQty,
			NewQty:      m.NewQty,
			Operation:   m.Operation,
			OperationID: m.OperationID,
			Actor:       m.Actor,
			CreatedAt:   m.CreatedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePublicStock(w http.ResponseWriter, r *http.Request) {
	items, err := s.stock.PublicStock(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toStockDetailResponses(items))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stock.Stats(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, struct {
		StockTotal int64 `json:"stock_total"`
		OpenLoans  int64 `json:"open_loans"`
		Volunteers int64 `json:"volunteers"`
	}{StockTotal: stats.TotalStock, OpenLoans: stats.OpenLoans, Volunteers: stats.Volunteers})
}

func (s *Server) handleListAntennas(w http.ResponseWriter, r *http.Request) {
	antennas, err := s.stock.ListAntennas(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	type antennaResponse struct {
		ID                int64  `json:"id"`
		Name              string `json:"name"`
		Address           string `json:"address"`
		LowStockThreshold *int64 `json:"low_stock_threshold"`
	}
	out := make([]antennaResponse, 0, len(antennas))
	for _, a := range antennas {
		out = append(out, antennaResponse{ID: a.ID, Name: a.Name, Address: a.Address, LowStockThreshold: a.LowStockThreshold})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListGarmentTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.stock.ListGarmentTypes(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	type garmentTypeResponse struct {
		ID      int64  `json:"id"`
		Label   string `json:"label"`
		HasSize bool   `json:"has_size"`
	}
	out := make([]garmentTypeResponse, 0, len(types))
	for _, g := range types {
		out = append(out, garmentTypeResponse{ID: g.ID, Label: g.Label, HasSize: g.HasSize})
	}
	s.writeJSON(w, http.StatusOK, out)
}
