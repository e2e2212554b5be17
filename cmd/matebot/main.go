package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmelim/matebot/internal/appbuilder"
	appcfg "github.com/dmelim/matebot/internal/config"
	"github.com/dmelim/matebot/internal/obslog"
	"github.com/dmelim/matebot/internal/server"
	"go.uber.org/zap"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer logger.Sync()

	deps, err := appbuilder.New(cfg, logger)
	if err != nil {
		logger.Fatal("dependency init failed", zap.Error(err))
	}
	defer deps.Close()

	srv, err := server.New(cfg.ListenAddr, deps.Service, deps.Hub, logger)
	if err != nil {
		logger.Fatal("server init failed", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}
