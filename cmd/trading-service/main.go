package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/cryptofolio/trading-service/internal/auth"
	"github.com/cryptofolio/trading-service/internal/config"
	"github.com/cryptofolio/trading-service/internal/engine"
	"github.com/cryptofolio/trading-service/internal/journal"
	"github.com/cryptofolio/trading-service/internal/ledger"
	"github.com/cryptofolio/trading-service/internal/logger"
	"github.com/cryptofolio/trading-service/internal/oracle"
	"github.com/cryptofolio/trading-service/internal/postgres"
	"github.com/cryptofolio/trading-service/internal/server"
	"github.com/cryptofolio/trading-service/internal/valuation"
)

const _cfgFilePath = "./configs/config.yaml"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("can't detect .env file")
	}

	cfg, err := config.LoadServiceConfig(_cfgFilePath)
	if err != nil {
		log.Fatalf("%s: can't load service cfg", err)
	}

	zapLogger, loggerSync, err := logger.NewZapLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("%s: can't init logger", err)
	}
	defer loggerSync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var recorder journal.Recorder
	switch cfg.Journal.Backend {
	case config.JournalPostgres:
		db, err := postgres.NewDB(postgres.NewConfigFromEnv().Setup())
		if err != nil {
			zapLogger.Fatalf("%s: can't connect to postgres", err)
		}
		defer db.Close()
		recorder = journal.NewPostgresStore(db)
	default:
		recorder = journal.NewMemoryStore()
	}

	directory := ledger.NewDirectory()
	priceOracle := oracle.NewTickerService(cfg.Oracle, zapLogger)
	tradeEngine := engine.NewEngine(directory, priceOracle, recorder, zapLogger)
	valuationService := valuation.NewService(directory, priceOracle, recorder, zapLogger)
	authService := auth.NewService(auth.NewMemoryUserStore(), cfg.Auth)

	handlers := server.NewHandlers(tradeEngine, valuationService, authService, cfg.Server.CORSOrigin, zapLogger)
	httpServer := server.NewHTTPServer(ctx, cfg.Server.Port, handlers.Router())

	zapLogger.Infof("listening on :%s", cfg.Server.Port)
	if err := httpServer.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zapLogger.Fatalf("%s: server stopped", err)
	}
}
