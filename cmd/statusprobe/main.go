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
	"time"

	"github.com/fatih/color"

	"vpn_store_bot/internal/logging"
	"vpn_store_bot/internal/status"
)

const (
	probeService      = "vpn-status-probe"
	readHeaderTimeout = 2 * time.Second
	shutdownTimeout   = 5 * time.Second
)

func main() {
	once := flag.Bool("once", false, "run a single check, print the result and exit non-zero when offline")
	flag.Parse()

	cfg, err := status.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.Setup(logging.Options{Service: probeService, AppEnv: cfg.AppEnv, LogLevel: cfg.LogLevel})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger setup error: %v\n", err)
		os.Exit(1)
	}

	prober := status.NewProber(cfg.TargetURL, cfg.Timeout, nil, logger)

	if *once {
		result := prober.Check(context.Background())
		printResult(result)
		if !result.Online() {
			os.Exit(2)
		}
		return
	}

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           status.NewHandler(prober, logger),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.WithFields(logging.Fields{
			"event":  "status_listen",
			"addr":   cfg.ListenAddr,
			"target": cfg.TargetURL,
		}).Info("starting status page")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-signalCtx.Done():
		logger.WithField("event", "shutdown_signal").Info("received termination signal")
	case err, ok := <-serveErr:
		if ok {
			logger.WithField("event", "status_listen_error").WithError(err).Error("status page server error")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithField("event", "status_shutdown_error").WithError(err).Error("status page shutdown error")
	}

	logger.WithField("event", "shutdown_complete").Info("shutdown complete")
}

func printResult(result status.Result) {
	label := color.New(color.FgGreen, color.Bold).Sprint("ONLINE")
	if !result.Online() {
		label = color.New(color.FgRed, color.Bold).Sprint("OFFLINE")
	}

	fmt.Printf("%s %s (%s) checked at %s\n",
		label,
		result.Target,
		result.Detail,
		result.CheckedAt.Format(time.RFC3339),
	)
}
