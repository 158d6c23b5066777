// Command server runs the chat streaming HTTP API.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/leofalp/chatstream/internal/auth"
	"github.com/leofalp/chatstream/internal/config"
	"github.com/leofalp/chatstream/internal/server"
	"github.com/leofalp/chatstream/internal/store"
	"github.com/leofalp/chatstream/providers/registry"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional, env vars override)")
	debug := flag.Bool("debug", false, "enable debug logging")
	quotaPerMinute := flag.Int("quota", 0, "per-user generations per minute, 0 disables the quota")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// Best effort: a missing .env file is the normal case outside development.
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env file")
	}

	settings, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	var quota auth.Quota = auth.Unlimited{}
	if *quotaPerMinute > 0 {
		quota = auth.NewRateQuota(*quotaPerMinute)
	}

	sessions := &auth.TokenSessions{AnonymousUser: "anonymous"}

	srv, err := server.New(settings, registry.New(settings), store.NewMemoryStore(), sessions, quota)
	if err != nil {
		slog.Error("failed to build server", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}
