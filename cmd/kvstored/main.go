// Command kvstored runs the key/value server: wire listener, HTTP
// console, and Prometheus metrics endpoint, wired together from
// internal/config and internal/server. Adapted from the teacher's
// monolithic startup branch; the sharded mode has no counterpart here.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/odinkv/kvstored/internal/config"
	"github.com/odinkv/kvstored/internal/logging"
	"github.com/odinkv/kvstored/internal/server"
)

const shutdownTimeout = 15 * time.Second

func main() {
	debug := flag.Bool("debug", false, "enable debug logging (overrides KV_LOG_LEVEL)")
	flag.Parse()

	startupLog := log.New(os.Stdout, "[kvstored] ", log.LstdFlags)

	maxProcs := runtime.GOMAXPROCS(0)
	startupLog.Printf("GOMAXPROCS: %d (via automaxprocs)", maxProcs)

	cfg, err := config.Load(nil)
	if err != nil {
		startupLog.Fatalf("failed to load configuration: %v", err)
	}
	if *debug {
		cfg.LogLevel = "debug"
	}
	cfg.Print()

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger, logFile, err := logging.WithFile(logger, cfg.LogFile)
	if err != nil {
		startupLog.Fatalf("failed to open log file: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	cfg.LogConfig(logger)

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to construct server")
	}
	if err := srv.Start(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start server")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	logger.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("error during shutdown")
	}
}
