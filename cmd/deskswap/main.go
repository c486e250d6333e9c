package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"deskswap/internal/config"
	"deskswap/internal/logging"
	"deskswap/internal/server"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flagSet := pflag.NewFlagSet("deskswap", pflag.ContinueOnError)
	flagSet.StringVarP(&cfg.Files.Root, "root", "r", cfg.Files.Root, "directory to serve")
	flagSet.StringVar(&cfg.Server.Host, "host", cfg.Server.Host, "listen host")
	flagSet.StringVarP(&cfg.Server.Port, "port", "p", cfg.Server.Port, "listen port")
	flagSet.BoolVar(&cfg.Files.ShowHidden, "hidden", cfg.Files.ShowHidden, "list dot-files by default")
	flagSet.StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level, "debug, info, warn or error")
	flagSet.BoolVar(&cfg.Logging.Development, "dev", cfg.Logging.Development, "human readable logs")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case sig := <-sigChan:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errChan:
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return <-errChan
}
