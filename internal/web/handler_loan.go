package web

import (
	"net/http"
	"time"

	"github.com/acollet/vestiaire/internal/domain"
)

type loanResponse struct {
	ID          int64      `json:"id"`
	StockItemID int64      `json:"stock_item_id"`
	VolunteerID int64      `json:"volunteer_id"`
	Qty         int64      `json:"qty"`
	Since       time.Time  `json:"since"`
	ReturnedAt  *time.Time `json:"returned_at"`
}

func toLoanResponse(l *domain.Loan) loanResponse {
	return loanResponse{
		ID:          l.ID,
		StockItemID: l.StockItemID,
		VolunteerID: l.VolunteerID,
		Qty:         l.Quantity,
		Since:       l.Since,
		ReturnedAt:  l.ReturnedAt,
	}
}

func (s *Server) handleBorrow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VolunteerID int64 `json:"volunteer_id"`
		StockItemID int64 `json:"stock_item_id"`
		Qty         int64 `json:"qty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeBadRequest(w, "invalid request body")
		return
	}
	if req.Qty <= 0 {
		s.writeBadRequest(w, "qty must be positive")
		return
	}

	loan, err := s.loans.Borrow(r.Context(), req.VolunteerID, req.StockItemID, req.Qty, actingUser(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toLoanResponse(loan))
}

func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	loanID, err := parseID(r)
	if err != nil {
		s.writeBadRequest(w, "invalid loan id")
		return
	}

	loan, err := s.loans.Return(r.Context(), loanID, actingUser(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toLoanResponse(loan))
}

type openLoanResponse struct {
	ID        int64     `json:"id"`
	Qty       int64     `json:"qty"`
	Since     time.Time `json:"since"`
	Volunteer string    `json:"volunteer"`
	Type      string    `json:"type"`
	Size      *string   `json:"size"`
	AntennaID int64     `json:"antenna_id"`
	Antenna   string    `json:"antenna"`
}

func (s *Server) handleListOpenLoans(w http.ResponseWriter, r *http.Request) {
	antennaID, err := queryInt64(r, "antenna_id")
	if err != nil {
		s.writeBadRequest(w, "invalid antenna_id")
		return
	}
	volunteerID, err := queryInt64(r, "volunteer_id")
	if err != nil {
		s.writeBadRequest(w, "invalid volunteer_id")
		return
	}

	loans, err := s.loans.ListOpen(r.Context(), domain.OpenLoanFilter{AntennaID: antennaID, VolunteerID: volunteerID})
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]openLoanResponse, 0, len(loans))
	for _, l := range loans {
		out = append(out, openLoanResponse{
			ID:        l.ID,
			Qty:       l.Quantity,
			Since:     l.Since,
			Volunteer: l.VolunteerName,
			Type:      l.GarmentLabel,
			Size:      l.Size,
			AntennaID: l.AntennaID,
			Antenna:   l.AntennaName,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

type volunteerResponse struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Note      string `json:"note,omitempty"`
}

func (s *Server) handleGetVolunteer(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeBadRequest(w, "invalid volunteer id")
		return
	}

	v, err := s.loans.GetVolunteer(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, volunteerResponse{ID: v.ID, FirstName: v.FirstName, LastName: v.LastName, Note: v.Note})
}

func (s *Server) handleFindVolunteer(w http.ResponseWriter, r *http.Request) {
	firstName := r.URL.Query().Get("first_name")
	lastName := r.URL.Query().Get("last_name")
	if firstName == "" || lastName == "" {
		s.writeBadRequest(w, "first_name and last_name required")
		return
	}

	v, err := s.loans.FindVolunteer(r.Context(), firstName, lastName)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, volunteerResponse{ID: v.ID, FirstName: v.FirstName, LastName: v.LastName})
}
