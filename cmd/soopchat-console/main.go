// Command soopchat-console follows a SOOP channel's chat room and
// prints every decoded event to the console.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/soopkit/soopchat/adapters/soopapi"
	"github.com/soopkit/soopchat/chat"
	"github.com/soopkit/soopchat/domain"
)

func main() {
	// Load environment variables from .env file if present
	_ = godotenv.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	channel := os.Getenv("SOOP_CHANNEL")
	if len(os.Args) > 1 {
		channel = os.Args[1]
	}
	if channel == "" {
		logger.Fatal("usage: soopchat-console <channel> (or set SOOP_CHANNEL)")
	}
	password := os.Getenv("SOOP_CHANNEL_PASSWORD")

	api := soopapi.New(soopapi.Config{}, logger)
	client := chat.New(api, logger)

	client.OnJoin(func(channelID string) {
		fmt.Printf("* joined %s\n", channelID)
	})
	client.OnPart(func(channelID string) {
		fmt.Printf("* left %s\n", channelID)
	})
	client.OnChat(func(ev domain.ChatEvent) {
		prefix := ""
		switch {
		case ev.IsStreamer:
			prefix = "[host] "
		case ev.IsManager:
			prefix = "[manager] "
		case ev.IsFan:
			prefix = "[fan] "
		}
		if ev.StickerURL != "" {
			fmt.Printf("%s%s: %s (sticker %s)\n", prefix, ev.Nickname, ev.Content, ev.StickerURL)
			return
		}
		fmt.Printf("%s%s: %s\n", prefix, ev.Nickname, ev.Content)
	})
	client.OnBalloon(func(ev domain.DonationEvent) {
		kind := "balloons"
		if ev.Kind == domain.DonationAd {
			kind = "ad balloons"
		}
		fmt.Printf("* %s sent %d %s\n", ev.Nickname, ev.Count, kind)
	})
	client.OnBlock(func(ev domain.ModerationEvent) {
		if ev.Kind == domain.ModerationTimeout {
			fmt.Printf("* %s timed out for %ds\n", ev.Nickname, ev.DurationSeconds)
			return
		}
		fmt.Printf("* %s was kicked\n", ev.Nickname)
	})

	if err := client.Connect(context.Background(), channel, password); err != nil {
		logger.Fatal("connect failed", zap.String("channel", channel), zap.Error(err))
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	client.Disconnect()
}
