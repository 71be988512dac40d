package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/baseball-sim/sim-engine/config"
	"github.com/baseball-sim/sim-engine/logger"
	"github.com/baseball-sim/sim-engine/metrics"
	"github.com/baseball-sim/sim-engine/models"
	"github.com/baseball-sim/sim-engine/simulation"
	"github.com/baseball-sim/sim-engine/weather"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile string
	cfg        *config.Config
	log        *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sim-engine",
	Short: "Monte Carlo baseball game simulator",
	Long: `Simulates a single baseball game many times and reports run-total, differential
and segment (F1/F3/F5/F7/FG) distributions with fair market odds.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadWithDefaults(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if cfg.Secrets.Enabled {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
				return fmt.Errorf("failed to load secrets: %w", err)
			}
		}
		if err := config.Validate(cfg); err != nil {
			return err
		}
		log = logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
		metrics.InitRegistry()
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var (
	matchupFile string
	trials      int
	workers     int
	seed        uint64
	noNoise     bool
	prettyPrint bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate one matchup file and print the summary as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSimulate(cmd)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sim-engine %s (%s)\n", Version, GitCommit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "Path to configuration file")

	simulateCmd.Flags().StringVarP(&matchupFile, "matchup", "m", "", "Path to matchup JSON")
	simulateCmd.Flags().IntVarP(&trials, "trials", "n", 0, "Number of simulated games (default from config)")
	simulateCmd.Flags().IntVarP(&workers, "workers", "w", 0, "Worker goroutines (default from config)")
	simulateCmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed (default from config)")
	simulateCmd.Flags().BoolVar(&noNoise, "no-noise", false, "Disable Beta noise on per-PA rates")
	simulateCmd.Flags().BoolVar(&prettyPrint, "pretty", false, "Indent JSON output")
	_ = simulateCmd.MarkFlagRequired("matchup")

	rootCmd.AddCommand(serveCmd, simulateCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newEngine wires the driver, optional store and weather service from configuration
func newEngine(ctx context.Context) (*simulation.SimulationEngine, *simulation.PostgresStore, error) {
	driver := simulation.NewDriver(&cfg.Engine, cfg.Calibration, cfg.Lines, log)

	var store *simulation.PostgresStore
	if cfg.Database.Enabled {
		dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		var err error
		store, err = simulation.NewPostgresStore(dbCtx, cfg.Database.URL, cfg.Database.MaxConnections)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
	}

	forecasts := weather.NewService(weather.Options{
		APIKey:     cfg.Weather.APIKey,
		BaseURL:    cfg.Weather.BaseURL,
		CacheTTL:   cfg.WeatherCacheTTL(),
		Timeout:    cfg.WeatherTimeout(),
		MaxRetries: cfg.Weather.MaxRetries,
		RateLimit:  cfg.Weather.RateLimit,
		Logger:     log,
	})

	opts := simulation.EngineOptions{
		Forecasts: forecasts,
		Defaults:  cfg.RunOptions(),
		Retention: cfg.RunRetention(),
		Logger:    log,
	}
	// A typed nil store would defeat the engine's nil check
	if store != nil {
		opts.Store = store
	}

	return simulation.NewSimulationEngine(driver, opts), store, nil
}

func runServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, store, err := newEngine(ctx)
	if err != nil {
		return err
	}

	var db Pinger
	if store != nil {
		defer store.Close()
		db = store
	}

	if err := engine.StartCleanup(ctx, cfg.CleanupSchedule()); err != nil {
		return err
	}

	server := NewServer(
		cfg.Server.Port,
		time.Duration(cfg.Server.ReadTimeoutSeconds)*time.Second,
		time.Duration(cfg.Server.WriteTimeoutSeconds)*time.Second,
		cfg.Server.AllowedOrigins,
		engine, db, log,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("Server shutdown complete")
	return nil
}

func runSimulate(cmd *cobra.Command) error {
	// stdout carries the summary
	log.SetOutput(os.Stderr)

	data, err := os.ReadFile(matchupFile)
	if err != nil {
		return fmt.Errorf("failed to read matchup: %w", err)
	}

	var matchup models.Matchup
	if err := json.Unmarshal(data, &matchup); err != nil {
		return fmt.Errorf("failed to parse matchup: %w", err)
	}

	opts := cfg.RunOptions()
	if cmd.Flags().Changed("trials") {
		opts.Trials = trials
	}
	if cmd.Flags().Changed("workers") {
		opts.Workers = workers
	}
	if cmd.Flags().Changed("seed") {
		opts.Seed = seed
	}
	if noNoise {
		opts.Noise = false
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, store, err := newEngine(ctx)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	summary, err := engine.Simulate(ctx, &matchup, opts)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if prettyPrint {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(summary)
}
