// Command freightsim runs the Freightline logistics trading simulation.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/talgya/freightline/internal/api"
	"github.com/talgya/freightline/internal/config"
	"github.com/talgya/freightline/internal/persistence"
	"github.com/talgya/freightline/internal/sim"
	"github.com/talgya/freightline/internal/worldgen"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	slog.Info("Freightline — Logistics Trading Simulation",
		"seed", cfg.Seed,
		"time_scale", cfg.TimeScale,
	)

	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		os.MkdirAll(dir, 0755)
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── Load or Generate World State ─────────────────────────────────
	world := sim.New(sim.Config{
		Seed:            cfg.Seed,
		TimeScale:       cfg.TimeScale,
		StartingBalance: cfg.StartingBalance,
	})
	world.DebugMode = cfg.Debug

	if db.HasWorldState() {
		slog.Info("found saved world state, loading...")
		if err := db.LoadWorld(world); err != nil {
			slog.Error("failed to load world", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Info("no saved state found, generating new world...")
		gen := worldgen.DefaultGenConfig()
		gen.Seed = cfg.Seed
		gen.CitiesPerRegion = cfg.World.CitiesPerRegion
		gen.Carriers = cfg.World.Carriers
		gen.Customers = cfg.World.Customers
		worldgen.Generate(world, gen)

		if err := db.SaveWorld(world); err != nil {
			slog.Error("initial save failed", "error", err)
		}
	}

	// ── Runner ────────────────────────────────────────────────────────
	runner := sim.NewRunner(world)
	runner.Interval = time.Duration(cfg.TickInterval * float64(time.Second))

	// Auto-save and journal drained notifications once per sim-day.
	runner.OnDay = func(day int) {
		if err := db.SaveWorld(world); err != nil {
			slog.Error("daily save failed", "error", err)
		}
		if err := db.JournalNotifications(world.Queue.Drain()); err != nil {
			slog.Error("journal write failed", "error", err)
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn("FREIGHTLINE_ADMIN_KEY not set, command endpoints will be disabled")
	}

	apiServer := &api.Server{
		Runner:   runner,
		DB:       db,
		Port:     cfg.APIPort,
		AdminKey: cfg.AdminKey,
	}
	apiServer.Start()

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		runner.Stop()
	}()

	fmt.Printf("\nFreightline is open for business on day %d.\n", world.Clock.Day())
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.APIPort)
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	runner.Run()

	// Final save on shutdown.
	slog.Info("final save...")
	runner.Do(func(s *sim.Simulation) {
		if err := db.SaveWorld(s); err != nil {
			slog.Error("final save failed", "error", err)
		}
		if err := db.JournalNotifications(s.Queue.Drain()); err != nil {
			slog.Error("journal write failed", "error", err)
		}
	})

	fmt.Println("Simulation stopped. World state saved.")
}
