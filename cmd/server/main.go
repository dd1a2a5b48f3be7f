package main

import (
	"context"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	httpapi "github.com/estateflow/estateflow/internal/api/http"
	appAudit "github.com/estateflow/estateflow/internal/application/audit"
	appCancellation "github.com/estateflow/estateflow/internal/application/cancellation"
	appContract "github.com/estateflow/estateflow/internal/application/contract"
	appDeal "github.com/estateflow/estateflow/internal/application/deal"
	appDraft "github.com/estateflow/estateflow/internal/application/draft"
	appNegotiation "github.com/estateflow/estateflow/internal/application/negotiation"
	appNotification "github.com/estateflow/estateflow/internal/application/notification"
	appReservation "github.com/estateflow/estateflow/internal/application/reservation"
	"github.com/estateflow/estateflow/internal/config"
	"github.com/estateflow/estateflow/internal/infrastructure/actorstate"
	"github.com/estateflow/estateflow/internal/infrastructure/postgres"
	"github.com/estateflow/estateflow/internal/infrastructure/sse"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db error: %v", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool, "internal/migrations"); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	// repositories
	assetRepo := postgres.NewAssetRepository(pool)
	partyRepo := postgres.NewPartyRepository(pool)
	sessionRepo := postgres.NewNegotiationRepository(pool)
	draftRepo := postgres.NewDraftRepository(pool)
	dealRepo := postgres.NewDealRepository(pool)
	contractRepo := postgres.NewContractRepository(pool)
	notificationRepo := postgres.NewNotificationRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)

	// infrastructure
	sseHub := sse.NewHub()
	actorStore := actorstate.NewStore(cfg.ActorStateTTL)

	// services
	auditSvc := appAudit.NewService(auditRepo, loadHexKey(cfg.AuditSigningKey), logger)
	notificationSvc := appNotification.NewService(notificationRepo, sseHub, logger)
	draftSvc := appDraft.NewService(draftRepo, auditSvc, logger)
	reservationSvc := appReservation.NewService(draftRepo, dealRepo, notificationSvc, auditSvc, cfg.DefaultCurrency, logger)
	contractSvc := appContract.NewService(contractRepo, draftRepo, sessionRepo, assetRepo, notificationSvc, auditSvc, logger)
	dealSvc := appDeal.NewService(dealRepo, contractSvc, partyRepo, notificationSvc, auditSvc, logger)
	negotiationSvc := appNegotiation.NewService(sessionRepo, assetRepo, partyRepo, draftSvc, reservationSvc, notificationSvc, auditSvc, logger)
	cancellationSvc := appCancellation.NewService(sessionRepo, draftRepo, dealRepo, contractRepo, partyRepo, notificationSvc, auditSvc, logger)

	// API server
	apiServer := httpapi.NewServer(
		negotiationSvc,
		draftSvc,
		dealSvc,
		contractSvc,
		cancellationSvc,
		notificationSvc,
		auditSvc,
		assetRepo,
		partyRepo,
		sseHub,
		actorStore,
	)

	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// background loops
	go func() {
		ticker := time.NewTicker(cfg.DispatchInterval)
		defer ticker.Stop()
		for range ticker.C {
			_, _ = notificationSvc.DispatchPending(context.Background(), cfg.DispatchBatch)
			_, _ = notificationSvc.DispatchRetryable(context.Background(), cfg.DispatchBatch)
		}
	}()

	go func() {
		ticker := time.NewTicker(cfg.OverdueInterval)
		defer ticker.Stop()
		for range ticker.C {
			_, _ = contractSvc.MarkOverdue(context.Background(), time.Now().UTC(), 200)
		}
	}()

	go func() {
		ticker := time.NewTicker(cfg.ActorStateSweep)
		defer ticker.Stop()
		for range ticker.C {
			actorStore.Sweep(time.Now().UTC())
		}
	}()

	// start server
	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
	sseHub.Stop()
}

func loadHexKey(hexStr string) []byte {
	if hexStr == "" {
		return nil
	}
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil
	}
	return b
}
