/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"github.com/ssargent/fitedit/pkg/codec"
	"github.com/ssargent/fitedit/pkg/config"
	"github.com/ssargent/fitedit/pkg/di"
	"github.com/ssargent/fitedit/pkg/editor"
	"github.com/ssargent/fitedit/pkg/logging"
	"github.com/ssargent/fitedit/pkg/metrics"
)

// skipService marks commands that run without opening the store.
const skipService = "skip-service"

var container *di.Container

// app holds what setup builds for the running command.
var app struct {
	cfg      *config.Config
	logger   *slog.Logger
	service  *editor.Service
	progress *progress
	metrics  *http.Server
}

// SetContainer injects the dependency container used by every command
func SetContainer(c *di.Container) {
	container = c
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fitedit",
	Short: "fitedit - FIT activity file editor",
	Long: `fitedit imports FIT activity recordings into a local store and edits
them: repairing broken summaries and distances, merging recordings and
splitting them by time or by lap.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	app.cfg, app.logger = cfg, logger

	if cmd.Annotations[skipService] == "true" {
		return nil
	}
	if container == nil {
		return errors.New("dependency container not initialized")
	}

	var fn codec.ProgressFunc
	if show, _ := cmd.Flags().GetBool("progress"); show {
		app.progress = newProgress(cmd.ErrOrStderr())
		fn = app.progress.update
	}
	svc, err := container.GetServiceFactory().CreateService(cfg, container.GetMetrics(), logger, fn)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	app.service = svc

	if cfg.Metrics.Addr != "" {
		app.metrics = serveMetrics(cfg.Metrics.Addr, logger)
	}
	return nil
}

// teardown runs after every command, including failed ones.
func teardown() {
	if app.progress != nil {
		app.progress.finish()
	}
	if app.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := app.metrics.Shutdown(ctx); err != nil {
			app.logger.Warn("metrics server shutdown", "error", err)
		}
		cancel()
	}
	if app.service != nil {
		if err := app.service.Close(); err != nil {
			app.logger.Error("failed to close store", "error", err)
		}
	}
	app.progress, app.metrics, app.service = nil, nil, nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	cfg := config.DefaultConfig()
	if config.ConfigExists(configPath) {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir, _ = flags.GetString("data-dir")
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format, _ = flags.GetString("log-format")
	}
	if flags.Changed("max-speed") {
		cfg.Repair.MaxSpeed, _ = flags.GetFloat64("max-speed")
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr, _ = flags.GetString("metrics-addr")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func serveMetrics(addr string, logger *slog.Logger) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           metricsRouter(container.GetMetrics(), logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
	return srv
}

func metricsRouter(m *metrics.Metrics, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(logger.Handler(), slog.LevelDebug),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", m.Handler())
	return r
}

func parseIDs(args []string) ([]ksuid.KSUID, error) {
	ids := make([]ksuid.KSUID, 0, len(args))
	for _, arg := range args {
		id, err := ksuid.Parse(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid activity id %q: %w", arg, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnFinalize(teardown)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default ~/.config/fitedit/config.yaml)")
	flags.StringP("data-dir", "d", "./data", "Data directory for the activity store")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "text", "Log format (text, json)")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address while the command runs")
	flags.Bool("progress", false, "Show decode progress")
}
