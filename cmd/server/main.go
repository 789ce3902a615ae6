package main

import (
	"context"
	"net/http"
	"os"

	"github.com/rs/zerolog"

	"tradetrack-backend/internal/config"
	deliveryhttp "tradetrack-backend/internal/delivery/http"
	deliveryws "tradetrack-backend/internal/delivery/websocket"
	"tradetrack-backend/internal/domain"
	"tradetrack-backend/internal/infrastructure/blob"
	"tradetrack-backend/internal/infrastructure/db"
	"tradetrack-backend/internal/infrastructure/firebase"
	"tradetrack-backend/internal/repository"
	"tradetrack-backend/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		errLogger := zerolog.New(os.Stderr)
		errLogger.Fatal().Err(err).Msg("invalid configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	ctx := context.Background()

	// 1. Local fallback store (always present).
	local, err := repository.NewSQLite(cfg.LocalDBPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.LocalDBPath).Msg("opening local store failed")
	}
	defer local.Close()

	// 2. Remote backend: Firestore when Firebase is configured,
	// Postgres as the self-hosted alternative, otherwise local-only.
	var (
		remote   domain.LedgerRepository
		blobs    usecase.BlobStore
		verifier *firebase.Client
	)
	switch {
	case cfg.HasFirebase():
		fb, err := firebase.NewClient(ctx, cfg.FirebaseCredentialsPath, cfg.FirebaseCredentialsJSON, cfg.StorageBucket)
		if err != nil {
			logger.Fatal().Err(err).Msg("firebase initialization failed")
		}
		defer fb.Close()
		remote = repository.NewFirestore(fb.Firestore())
		if cfg.StorageBucket != "" {
			blobs = blob.NewStore(fb.Storage(), fb.Bucket())
		}
		verifier = fb
		logger.Info().Msg("using Firestore backend")

	case cfg.DatabaseURL != "":
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolConfig{
			MaxConns:          cfg.DBMaxConns,
			MinConns:          cfg.DBMinConns,
			MaxConnLifetime:   cfg.DBMaxConnLifetime,
			MaxConnIdleTime:   cfg.DBMaxConnIdleTime,
			HealthCheckPeriod: cfg.DBHealthCheckPeriod,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres pool failed")
		}
		if err := db.Migrate(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("postgres migration failed")
		}
		remote = repository.NewPostgres(pool)
		logger.Info().Msg("using Postgres backend")

	default:
		logger.Info().Msg("no remote backend configured, running local-only")
	}

	// 3. Core wiring: notifier + per-principal sessions.
	notifier := usecase.NewNotifier(logger)
	sessions := usecase.NewSessions(local, remote, blobs, notifier, logger, cfg.ScreenshotInlineLimit)
	defer sessions.Close()

	// 4. Delivery.
	mux := http.NewServeMux()
	deliveryhttp.NewLedgerHandler(sessions, logger).Register(mux)
	deliveryhttp.NewStatsHandler(sessions, logger).Register(mux)
	deliveryhttp.NewAdminHandler(sessions, logger).Register(mux)

	var httpVerifier deliveryhttp.TokenVerifier
	var wsVerifier deliveryws.TokenVerifier
	if verifier != nil {
		httpVerifier = verifier
		wsVerifier = verifier
	}
	wsHandler := deliveryws.NewHandler(sessions, notifier, wsVerifier, logger)
	mux.HandleFunc("/ws", wsHandler.Handle)

	handler := deliveryhttp.WithPrincipal(httpVerifier, logger, mux)

	addr := ":" + cfg.Port
	logger.Info().Str("addr", addr).Msg("server listening")
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
