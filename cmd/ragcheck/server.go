package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/ragcheck/internal/cli"
	"github.com/hyperjump/ragcheck/internal/server"
	"github.com/hyperjump/ragcheck/pkg/utils"
)

func runServer(args []string, stderr io.Writer) int {
	fs := newFlagSet("server", stderr)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (requests, verifications, watched cases)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return exitError
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create logger: %v\n", err)
		return exitError
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, true)
	if err != nil {
		logger.Error("Failed to initialize components", zap.Error(err))
		return exitError
	}
	defer components.Close()

	ctx, stop := signalContext()
	defer stop()

	if len(cfg.Watch.Directories) > 0 {
		w, err := startCaseWatcher(ctx, cfg.Watch.Directories, cfg.Watch.Extensions, components, nil, cli.OutputText, logger)
		if err != nil {
			logger.Error("Failed to start watcher", zap.Error(err))
			return exitError
		}
		defer w.Stop()
		go w.SyncExisting()
	}

	srv := server.NewServer(components.Verifier, components.Store, cfg, logger, components.Registry)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", zap.Error(err))
			return exitError
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
	return exitOK
}
