package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tyrowin/gochat-hub/internal/chat"
	"github.com/Tyrowin/gochat-hub/internal/moderation"
	"github.com/Tyrowin/gochat-hub/internal/server"
	"github.com/mama165/sdk-go/logs"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	config, err := server.LoadConfig()
	if err != nil {
		return err
	}
	server.SetConfig(config)

	log := logs.GetLoggerFromString(config.LogLevel)
	slog.SetDefault(log)
	log.Info("Starting GoChat hub...")

	var opts []chat.Option
	if len(config.CensoredWords) > 0 {
		filter, err := moderation.NewFilter(config.CensoredWords, config.CensorChar)
		if err != nil {
			return fmt.Errorf("moderation setup failed: %w", err)
		}
		opts = append(opts, chat.WithCensor(filter))
	}

	hub := server.NewHub(log, chat.NewRegistry(), opts...)
	go hub.Run()

	httpServer := server.CreateServer(config.Port, server.SetupRoutes(hub))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.StartServer(httpServer)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
	}

	if err := server.ShutdownServer(httpServer, shutdownTimeout); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	if err := hub.Shutdown(shutdownTimeout); err != nil {
		log.Warn("Hub shutdown incomplete", "error", err)
	}
	log.Info("Server stopped cleanly")
	return nil
}
