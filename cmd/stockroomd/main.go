package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/stockroomhq/stockroom/internal/auth"
	"github.com/stockroomhq/stockroom/internal/config"
	"github.com/stockroomhq/stockroom/internal/db"
	"github.com/stockroomhq/stockroom/internal/filestore/local"
	"github.com/stockroomhq/stockroom/internal/logging"
	"github.com/stockroomhq/stockroom/internal/service"
	"github.com/stockroomhq/stockroom/internal/store"
	"github.com/stockroomhq/stockroom/internal/vision"
	claudevision "github.com/stockroomhq/stockroom/internal/vision/claude"
	ollamavision "github.com/stockroomhq/stockroom/internal/vision/ollama"
	"github.com/stockroomhq/stockroom/internal/web"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required")
		return
	}

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

	categoryStore := store.NewCategoryStore(database)
	locationStore := store.NewLocationStore(database)
	itemStore := store.NewItemStore(database)
	inventoryStore := store.NewInventoryStore(database)
	userStore := store.NewUserStore(database)

	catalogService := service.NewCatalogService(categoryStore, locationStore, itemStore, inventoryStore, logger)
	itemService := service.NewItemService(itemStore, categoryStore, logger)
	inventoryService := service.NewInventoryService(inventoryStore, itemStore, locationStore, logger)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	authService := auth.NewService(userStore, tokens, cfg.RefreshTTL, logger)
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := authService.EnsureUser(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
			logger.Error("failed to ensure admin user", "error", err)
			return
		}
	}

	blobStore, err := local.NewLocalBlobStore(cfg.FilePath)
	if err != nil {
		logger.Error("failed to initialize file store", "error", err)
		return
	}

	analyzer := newAnalyzer(cfg, logger)

	server := web.NewServer(catalogService, itemService, inventoryService, authService, blobStore, analyzer, logger)

	if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}

// newAnalyzer selects the scan backend. A nil analyzer disables the scan
// endpoint.
func newAnalyzer(cfg *config.Config, logger *slog.Logger) vision.Analyzer {
	switch cfg.ScanBackend {
	case "claude":
		if cfg.ClaudeKey == "" {
			logger.Error("CLAUDE_API_KEY is required when SCAN_BACKEND=claude")
			return nil
		}
		logger.Info("using claude scan backend")
		return claudevision.NewClaudeAnalyzer(cfg.ClaudeKey, cfg.ClaudeModel)
	case "ollama":
		logger.Info("using ollama scan backend", "model", cfg.OllamaModel)
		return ollamavision.NewOllamaAnalyzer(cfg.OllamaHost, cfg.OllamaModel)
	default:
		logger.Info("scanning disabled")
		return nil
	}
}
