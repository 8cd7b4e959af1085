// Command dispatcher runs the rule-based autopilot for Freightline.
// It observes world state, decides on actions, and acts via the command API.
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/talgya/freightline/internal/dispatcher"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Configuration from environment.
	apiURL := envOrDefault("FREIGHTLINE_API_URL", "http://localhost:8080")
	adminKey := os.Getenv("FREIGHTLINE_ADMIN_KEY")
	intervalSec := envIntOrDefault("DISPATCHER_INTERVAL", 30)

	if adminKey == "" {
		slog.Error("FREIGHTLINE_ADMIN_KEY is required")
		os.Exit(1)
	}

	observer := dispatcher.NewObserver(apiURL)
	actor := dispatcher.NewActor(apiURL, adminKey)

	slog.Info("dispatcher starting", "api", apiURL, "interval_sec", intervalSec)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case sig := <-sigCh:
			slog.Info("received signal, shutting down", "signal", sig)
			return
		case <-ticker.C:
			runCycle(observer, actor)
		}
	}
}

func runCycle(observer *dispatcher.Observer, actor *dispatcher.Actor) {
	snap, err := observer.Observe()
	if err != nil {
		slog.Error("observation failed", "error", err)
		return
	}
	if snap.Status.Bankrupt {
		slog.Warn("player is bankrupt, standing down")
		return
	}

	for _, cmd := range dispatcher.Decide(snap) {
		result, err := actor.Act(cmd)
		if err != nil {
			slog.Error("command failed", "action", cmd.Action, "error", err)
			continue
		}
		slog.Info("command executed", "action", cmd.Action, "result", string(result))
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
