package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guileen/litequery/engine/config"
	"github.com/guileen/litequery/logger"
	"github.com/guileen/litequery/server"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file")
	flag.Parse()

	closeLogger := logger.Setup(logger.LoadConfig())
	defer closeLogger()

	os.Exit(run(*configPath))
}

func run(configPath string) int {
	startTime := time.Now()

	cfg := config.LoadConfig()
	if configPath != "" {
		var err error
		cfg, err = config.LoadFile(configPath)
		if err != nil {
			logger.Error("Failed to load configuration", "path", configPath, "error", err)
			return 1
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to start server", "error", err)
		return 1
	}
	defer srv.Close()

	logger.Info("litequery started", "addr", cfg.HTTPAddr, "data_dir", cfg.DataDir, "startup", time.Since(startTime).String())
	if err := srv.Run(ctx); err != nil {
		logger.Error("HTTP server failed", "error", err)
		return 1
	}
	logger.Info("litequery stopped")
	return 0
}
