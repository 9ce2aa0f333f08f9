package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/acollet/vestiaire/internal/domain"
	"github.com/acollet/vestiaire/internal/service"
)

type Server struct {
	stock     *service.StockService
	loans     *service.LoanService
	inventory *service.InventoryService
	alerts    *service.AlertService
	mux       *http.ServeMux
	logger    *slog.Logger

	defaultLowStock    int64
	defaultOverdueDays int64
}

func NewServer(stock *service.StockService, loans *service.LoanService, inventory *service.InventoryService, alerts *service.AlertService, defaultLowStock, defaultOverdueDays int64, logger *slog.Logger) *Server {
	s := &Server{
		stock:              stock,
		loans:              loans,
		inventory:          inventory,
		alerts:             alerts,
		mux:                http.NewServeMux(),
		logger:             logger,
		defaultLowStock:    defaultLowStock,
		defaultOverdueDays: defaultOverdueDays,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /api/loans", s.handleBorrow)
	s.mux.HandleFunc("POST /api/loans/{id}/return", s.handleReturn)
	s.mux.HandleFunc("GET /api/loans/open", s.handleListOpenLoans)

	s.mux.HandleFunc("POST /api/inventory/start", s.handleStartSession)
	s.mux.HandleFunc("GET /api/inventory/{id}", s.handleGetSession)
	s.mux.HandleFunc("POST /api/inventory/{id}/count", s.handleRecordCount)
	s.mux.HandleFunc("POST /api/inventory/{id}/close", s.handleCloseSession)

	s.mux.HandleFunc("GET /api/stock", s.handleListStock)
	s.mux.HandleFunc("POST /api/stock", s.handleAddStock)
	s.mux.HandleFunc("DELETE /api/stock/{id}", s.handleDeleteStockItem)
	s.mux.HandleFunc("GET /api/stock/{id}/movements", s.handleStockMovements)

	s.mux.HandleFunc("GET /api/alerts", s.handleAlerts)
	s.mux.HandleFunc("GET /api/stats", s.handleStats)

	s.mux.HandleFunc("GET /api/antennas", s.handleListAntennas)
	s.mux.HandleFunc("GET /api/types", s.handleListGarmentTypes)
	s.mux.HandleFunc("GET /api/volunteers/{id}", s.handleGetVolunteer)

	s.mux.HandleFunc("GET /api/public/volunteer", s.handleFindVolunteer)
	s.mux.HandleFunc("GET /api/public/stock", s.handlePublicStock)
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// writeError maps business errors to 404/409 codes the presentation layer
// can act on; anything else is an infrastructure failure and becomes a 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	type body struct {
		Error string `json:"error"`
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, body{Error: "not_found"})
	case errors.Is(err, domain.ErrInsufficientStock):
		s.writeJSON(w, http.StatusConflict, body{Error: "insufficient_stock"})
	case errors.Is(err, domain.ErrAlreadyReturned):
		s.writeJSON(w, http.StatusConflict, body{Error: "already_returned"})
	case errors.Is(err, domain.ErrSessionAlreadyOpen):
		s.writeJSON(w, http.StatusConflict, body{Error: "session_already_open"})
	case errors.Is(err, domain.ErrSessionNotOpen):
		s.writeJSON(w, http.StatusConflict, body{Error: "session_not_open"})
	case errors.Is(err, domain.ErrStockItemInUse):
		s.writeJSON(w, http.StatusConflict, body{Error: "stock_item_in_use"})
	default:
		s.logger.Error("internal error", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, body{Error: "internal"})
	}
}

func (s *Server) writeBadRequest(w http.ResponseWriter, msg string) {
	type body struct {
		Error string `json:"error"`
	}
	s.writeJSON(w, http.StatusBadRequest, body{Error: msg})
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// actingUser identifies who triggered a mutation, for the movement journal.
// The identity is supplied by the (out of scope) session layer and is never
// authenticated here.
func actingUser(r *http.Request) string {
	if u := r.Header.Get("X-Acting-User"); u != "" {
		return u
	}
	return "unknown"
}

// parseID extracts the {id} path variable and returns it as int64.
func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// queryInt64 parses an optional integer query parameter.
func queryInt64(r *http.Request, key string) (*int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
