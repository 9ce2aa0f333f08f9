package main

import (
	"log"

	"github.com/acollet/vestiaire/internal/config"
	"github.com/acollet/vestiaire/internal/db"
	"github.com/acollet/vestiaire/internal/logging"
	"github.com/acollet/vestiaire/internal/service"
	"github.com/acollet/vestiaire/internal/store"
	"github.com/acollet/vestiaire/internal/web"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	stockStore := store.NewStockStore(database)
	loanStore := store.NewLoanStore(database)
	sessionStore := store.NewSessionStore(database)
	catalogStore := store.NewCatalogStore(database)

	stockService := service.NewStockService(stockStore, catalogStore, loanStore, logger)
	loanService := service.NewLoanService(loanStore, catalogStore, logger)
	inventoryService := service.NewInventoryService(sessionStore, stockStore, logger)
	alertService := service.NewAlertService(stockStore, loanStore, catalogStore)

	server := web.NewServer(stockService, loanService, inventoryService, alertService,
		cfg.DefaultLowStockLevel, cfg.DefaultOverdueDays, logger)

	if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}
