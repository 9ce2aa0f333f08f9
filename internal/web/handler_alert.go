package web

import (
	"net/http"
	"time"
)

type lowStockResponse struct {
	StockItemID int64   `json:"stock_item_id"`
	Antenna     string  `json:"antenna"`
	GarmentType string  `json:"garment_type"`
	Size        *string `json:"size"`
	Quantity    int64   `json:"quantity"`
	Threshold   int64   `json:"threshold"`
}

type overdueLoanResponse struct {
	LoanID    int64     `json:"loan_id"`
	Volunteer string    `json:"volunteer"`
	Type      string    `json:"type"`
	Size      *string   `json:"size"`
	Since     time.Time `json:"since"`
	AgeDays   int64     `json:"age_days"`
}

// handleAlerts recomputes the low-stock and overdue views from live ledger
// state. Thresholds are caller-supplied (the UI owns them), falling back to
// the configured defaults.
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	overdueDays := s.defaultOverdueDays
	if v, err := queryInt64(r, "overdue_days"); err != nil {
		s.writeBadRequest(w, "invalid overdue_days")
		return
	} else if v != nil {
		overdueDays = *v
	}

	defaultThreshold := s.defaultLowStock
	if v, err := queryInt64(r, "default_threshold"); err != nil {
		s.writeBadRequest(w, "invalid default_threshold")
		return
	} else if v != nil {
		defaultThreshold = *v
	}

	lowStock, overdue, err := s.alerts.Alerts(r.Context(), overdueDays, defaultThreshold, time.Now())
	if err != nil {
		s.writeError(w, err)
		return
	}

	low := make([]lowStockResponse, 0, len(lowStock))
	for _, a := range lowStock {
		low = append(low, lowStockResponse{
			StockItemID: a.ID,
			Antenna:     a.AntennaName,
			GarmentType: a.GarmentLabel,
			Size:        a.Size,
			Quantity:    a.Quantity,
			Threshold:   a.Threshold,
		})
	}

	late := make([]overdueLoanResponse, 0, len(overdue))
	for _, l := range overdue {
		late = append(late, overdueLoanResponse{
			LoanID:    l.ID,
			Volunteer: l.VolunteerName,
			Type:      l.GarmentLabel,
			Size:      l.Size,
			Since:     l.Since,
			AgeDays:   l.AgeDays,
		})
	}

	s.writeJSON(w, http.StatusOK, struct {
		LowStock []lowStockResponse    `json:"low_stock"`
		Overdue  []overdueLoanResponse `json:"overdue"`
	}{LowStock: low, Overdue: late})
}
