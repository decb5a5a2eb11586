package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"vpn_store_bot/internal/config"
	"vpn_store_bot/internal/feature/admin"
	"vpn_store_bot/internal/feature/catalog"
	"vpn_store_bot/internal/feature/order"
	"vpn_store_bot/internal/health"
	"vpn_store_bot/internal/logging"
	"vpn_store_bot/internal/store"
	"vpn_store_bot/internal/telegram"
)

const (
	storeConnectTimeout     = 15 * time.Second
	storeCloseTimeout       = 5 * time.Second
	healthShutdownTimeout   = 5 * time.Second
	telegramShutdownTimeout = 10 * time.Second
)

func main() {
	configOnly := flag.Bool("config-only", false, "load and print configuration then exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Error("configuration error", logging.Fields{"event": "config_error", "error": err})
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.Setup(logging.Options{AppEnv: cfg.AppEnv, LogLevel: cfg.LogLevel})
	if err != nil {
		logging.Error("logger setup error", logging.Fields{"event": "logger_error", "error": err})
		fmt.Fprintf(os.Stderr, "logger setup error: %v\n", err)
		os.Exit(1)
	}

	if *configOnly {
		logging.Info("configuration check", logging.Fields{"event": "config_only"})
		fmt.Println("configuration check: ok")
		fmt.Println(config.FormatRedacted(cfg))
		return
	}

	logger.WithFields(logging.Fields{
		"event":        "startup",
		"store_driver": cfg.StoreDriver,
		"store_name":   cfg.StoreName,
	}).Info("configuration loaded")

	connectCtx, cancel := context.WithTimeout(context.Background(), storeConnectTimeout)
	backend, err := store.Open(connectCtx, cfg, logger)
	cancel()
	if err != nil {
		logger.WithField("event", "store_connect_error").WithError(err).Error("store connection error")
		fmt.Fprintf(os.Stderr, "store connection error: %v\n", err)
		os.Exit(1)
	}

	logger.WithFields(logging.Fields{
		"event":        "store_connect",
		"store_driver": cfg.StoreDriver,
	}).Info("connected to store")

	tgClient, err := telegram.NewClient(cfg, logger)
	if err != nil {
		logger.WithField("event", "telegram_setup_error").WithError(err).Error("telegram client setup error")
		fmt.Fprintf(os.Stderr, "telegram client setup error: %v\n", err)
		closeStore(backend, logger)
		os.Exit(1)
	}

	gateway := tgClient.Gateway()
	router := telegram.NewRouter(telegram.RouterDeps{
		Messenger:  gateway,
		Catalog:    catalog.NewReader(backend, logger),
		Ledger:     order.NewLedger(backend, logger),
		Admin:      admin.NewRelay(cfg.AdminUserID, gateway, logger),
		Storefront: cfg.Storefront,
		Logger:     logger,
	})
	tgClient.SetDispatcher(router)

	logger.WithField("event", "telegram_ready").Info("telegram client initialized")

	healthServer := health.NewServer(cfg.HTTPPort, backend, logger)
	go func() {
		if err := healthServer.ListenAndServe(); err != nil {
			logger.WithField("event", "health_error").WithError(err).Error("health server error")
		}
	}()

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	telegramCtx, cancelTelegram := context.WithCancel(context.Background())
	tgDone := make(chan struct{})

	go func() {
		tgClient.Start(telegramCtx)
		close(tgDone)
	}()

	select {
	case <-signalCtx.Done():
		logger.WithField("event", "shutdown_signal").Info("received termination signal, stopping telegram polling")
	case <-tgDone:
		logger.WithField("event", "telegram_stopped_early").Warn("telegram client stopped before shutdown signal")
	}

	cancelTelegram()

	waitCtx, cancelWait := context.WithTimeout(context.Background(), telegramShutdownTimeout)
	select {
	case <-tgDone:
	case <-waitCtx.Done():
		logger.WithField("event", "telegram_shutdown_timeout").Warn("timed out waiting for telegram client to stop")
	}
	cancelWait()

	healthCtx, cancelHealth := context.WithTimeout(context.Background(), healthShutdownTimeout)
	if err := healthServer.Shutdown(healthCtx); err != nil {
		logger.WithField("event", "health_shutdown_error").WithError(err).Error("health server shutdown error")
	}
	cancelHealth()

	closeStore(backend, logger)

	logger.WithField("event", "shutdown_complete").Info("shutdown complete")
}

func closeStore(backend store.Backend, logger *logrus.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), storeCloseTimeout)
	defer cancel()

	if err := backend.Close(ctx); err != nil {
		logger.WithField("event", "store_close_error").WithError(err).Error("store close error")
		return
	}
	logger.WithField("event", "store_close").Info("store connection closed")
}
