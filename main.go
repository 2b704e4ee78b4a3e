package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wtr-service/config"
	"wtr-service/database"
	"wtr-service/logger"
	"wtr-service/pkg/business"
	"wtr-service/pkg/common"
	"wtr-service/pkg/ingestion"
	"wtr-service/pkg/processing"
	"wtr-service/services"
	"wtr-service/web"
)

func main() {
	logger.Println("Starting WhatTheRuck match recorder...")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Local staging store
	kv, err := processing.OpenKV(cfg.LocalStore, cfg.LocalStorePath)
	if err != nil {
		logger.Fatalf("Failed to open local store: %v", err)
	}
	defer kv.Close()
	logger.Printf("Local store (%s) opened at %s", cfg.LocalStore, cfg.LocalStorePath)

	remote := openRemoteStore(cfg)

	larkNotifier := services.NewLarkNotifier(cfg.LarkWebhook)
	if err := larkNotifier.NotifyServiceStart(cfg.Environment, cfg.RemoteStore); err != nil {
		logger.Errorf("Failed to send startup notification: %v", err)
	}

	queue := processing.NewOfflineQueue(kv, common.NewLogger("OfflineQueue"))
	legacy := processing.NewLegacyStore(kv, common.NewLogger("LegacyStore"))

	identity := ingestion.NewIdentityTracker(common.NewLogger("Identity"))
	monitor := ingestion.NewConnectivityMonitor(common.NewLogger("Connectivity"), remote)
	monitor.SetHealthCheckConfig(&ingestion.HealthCheckConfig{
		Interval: cfg.ProbeInterval,
		Timeout:  cfg.ProbeTimeout,
		Enabled:  true,
	})

	verifier, err := ingestion.NewTokenVerifier(cfg.AuthSecret, cfg.AuthIssuer)
	if err != nil {
		logger.Fatalf("Failed to create token verifier: %v", err)
	}

	uploader := business.NewUploader(remote)
	if cfg.AMQPURL != "" {
		publisher := services.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		defer publisher.Close()
		uploader.AddListener(publisher)
		logger.Printf("Finished matches will be published to exchange %s", cfg.AMQPExchange)
	}

	archiver := business.NewMatchArchiver(common.NewLogger("Archive"), uploader, queue, monitor, identity)
	archiver.SetNotifier(larkNotifier)

	session := business.NewMatchSession(common.NewLogger("Session"), archiver)

	hub := web.NewHub(common.NewLogger("WebSocket"))
	go hub.Run(ctx)
	session.AddListener(hub)

	if cfg.MQTTBroker != "" {
		scoreboard := services.NewScoreboardPublisher(cfg.MQTTBroker, cfg.MQTTUsername, cfg.MQTTPassword, cfg.MQTTTopicPrefix)
		if err := scoreboard.Connect(); err != nil {
			logger.Errorf("Scoreboard publisher disabled: %v", err)
			larkNotifier.NotifyError("MQTT Scoreboard", err.Error())
		} else {
			defer scoreboard.Disconnect()
			session.AddListener(scoreboard)
			logger.Printf("Scoreboard publishing to %s/<match>", cfg.MQTTTopicPrefix)
		}
	}

	syncService := business.NewSyncService(common.NewLogger("Sync"), uploader, queue, legacy, monitor, identity)
	syncService.SetNotifier(larkNotifier)
	history := business.NewHistoryService(common.NewLogger("History"), remote, identity)

	reportSync := func(result business.SyncResult) {
		if result.Skipped || result.Failed == 0 {
			return
		}
		if err := larkNotifier.NotifySyncSummary(result.Uploaded, result.Failed, queue.Len(ctx)); err != nil {
			logger.Errorf("Failed to send sync summary: %v", err)
		}
	}

	// Reconciliation is event driven: sign-in and reconnect only.
	identity.OnSignIn(func(ownerID string) {
		history.Watch(ctx, ownerID, hub.PublishHistory)
		syncService.SyncOnSignIn(ctx, ownerID, reportSync)
	})
	identity.OnSignOut(history.Unwatch)
	monitor.OnRestore(func() {
		syncService.SyncOnRestore(ctx, reportSync)
	})
	monitor.Start(ctx)

	server := web.NewServer(cfg, web.Dependencies{
		Session:  session,
		Sync:     syncService,
		History:  history,
		Queue:    queue,
		Identity: identity,
		Monitor:  monitor,
		Verifier: verifier,
		Hub:      hub,
		Logger:   common.NewLogger("Web"),
	})
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			larkNotifier.NotifyError("Web Server", err.Error())
			logger.Fatalf("Web server error: %v", err)
		}
	}()

	logger.Println("Service is running. Press Ctrl+C to stop.")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Println("Shutting down service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Stop(shutdownCtx)
	history.Unwatch()
	if err := larkNotifier.NotifyServiceStop(queue.Len(shutdownCtx)); err != nil {
		logger.Errorf("Failed to send shutdown notification: %v", err)
	}
	cancel()

	logger.Println("Service stopped")
}

// openRemoteStore connects the configured remote store.
func openRemoteStore(cfg *config.Config) business.RemoteStore {
	if cfg.RemoteStore == "memory" {
		logger.Println("Using in-memory remote store")
		return processing.NewMemoryStorage(common.NewLogger("MemoryStore"))
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	logger.Println("Database connected and migrated")

	return processing.NewPostgreSQLStorage(db, cfg.DatabaseURL, common.NewLogger("PostgreSQL"))
}
