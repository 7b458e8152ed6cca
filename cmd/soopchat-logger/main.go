// Command soopchat-logger follows a SOOP channel's chat room and
// persists every chat message into Postgres. It exposes a small
// diagnostic HTTP surface for liveness checks and batcher stats.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/soopkit/soopchat/adapters/soopapi"
	"github.com/soopkit/soopchat/chat"
	"github.com/soopkit/soopchat/domain"
	"github.com/soopkit/soopchat/internal/config"
	"github.com/soopkit/soopchat/internal/storage"
)

func main() {
	// Load environment variables from .env file if present
	_ = godotenv.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config load failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Postgres.DSN())
	if err != nil {
		logger.Fatal("postgres pool creation failed", zap.Error(err))
	}
	defer pool.Close()

	batcher := storage.NewBatcher(ctx, pool, cfg.Batch, logger)

	api := soopapi.New(soopapi.Config{}, logger)
	client := chat.New(api, logger)
	client.OnChat(func(ev domain.ChatEvent) {
		batcher.Enqueue(ev)
	})

	if err := client.Connect(ctx, cfg.Soop.Channel, cfg.Soop.Password); err != nil {
		logger.Fatal("connect failed", zap.String("channel", cfg.Soop.Channel), zap.Error(err))
	}

	// Diagnostic HTTP surface
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"state":   client.State().String(),
			"channel": client.ChannelID(),
		})
	})
	e.GET("/stats", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"state":   client.State().String(),
			"channel": client.ChannelID(),
			"emotes":  len(client.Emotes()),
			"dropped": batcher.Dropped(),
		})
	})

	go func() {
		if err := e.Start(cfg.HTTP.Addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server stopped", zap.Error(err))
		}
	}()

	logger.Info("chat logger started",
		zap.String("channel", cfg.Soop.Channel),
		zap.String("addr", cfg.HTTP.Addr))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	client.Disconnect()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}
}
