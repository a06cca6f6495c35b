package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ledgerline/ledgerline-server/internal/catalog"
	"github.com/ledgerline/ledgerline-server/internal/config"
	"github.com/ledgerline/ledgerline-server/internal/game"
	"github.com/ledgerline/ledgerline-server/internal/repository"
	"github.com/ledgerline/ledgerline-server/internal/server"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

var (
	configPath = flag.String("config", "", "path to configuration file (defaults and environment only when empty)")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting ledgerline server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
	logger.Info("ledgerline server stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	if unknown := cat.UnknownEffects(); len(unknown) > 0 {
		logger.Warn("catalog references effects with no resolver; they will be no-ops",
			zap.Strings("effects", unknown),
		)
	}
	logger.Info("catalog loaded",
		zap.String("version", cat.Version),
		zap.Int("cards", len(cat.Cards)),
		zap.Strings("decks", cat.DeckNames()),
	)

	store, err := repository.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}

	opts := []game.ManagerOption{game.WithRules(cfg.Rules.GameRules())}
	if store != nil {
		defer store.Close()
		opts = append(opts, game.WithStore(store))
	}
	if cfg.Journal.Enabled {
		opts = append(opts, game.WithJournal(game.NewJournalRecorder(logger, cfg.Journal.Dir)))
		logger.Info("move journal enabled", zap.String("dir", cfg.Journal.Dir))
	}
	manager := game.NewManager(logger, opts...)

	if store != nil {
		restoreGames(ctx, store, manager, logger)
	}

	hub := server.NewHub(manager, cfg.Server.AllowedOrigins, logger)
	srv := server.New(cfg.Server, manager, cat, hub, logger)
	httpServer := srv.HTTPServer()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("starting HTTP server", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// restoreGames loads every unfinished game from the store.
func restoreGames(ctx context.Context, store repository.Store, manager *game.Manager, logger *zap.Logger) {
	ids, err := store.ListActive(ctx)
	if err != nil {
		logger.Warn("failed to list stored games", zap.Error(err))
		return
	}
	restored := 0
	for _, id := range ids {
		if err := manager.Restore(ctx, id); err != nil {
			logger.Warn("failed to restore game", zap.String("game_id", id), zap.Error(err))
			continue
		}
		restored++
	}
	logger.Info("stored games restored", zap.Int("restored", restored), zap.Int("found", len(ids)))
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
