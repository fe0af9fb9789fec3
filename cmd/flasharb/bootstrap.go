package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/flash-arbitrage/business/arbitrage"
	arbitrageApp "github.com/fd1az/flash-arbitrage/business/arbitrage/app"
	arbitrageDI "github.com/fd1az/flash-arbitrage/business/arbitrage/di"
	"github.com/fd1az/flash-arbitrage/business/blockchain"
	"github.com/fd1az/flash-arbitrage/business/pricing"
	"github.com/fd1az/flash-arbitrage/business/token"
	"github.com/fd1az/flash-arbitrage/internal/apm"
	"github.com/fd1az/flash-arbitrage/internal/config"
	"github.com/fd1az/flash-arbitrage/internal/logger"
	"github.com/fd1az/flash-arbitrage/internal/metrics"
	"github.com/fd1az/flash-arbitrage/internal/monolith"
)

// application is the monolith surface the commands drive.
type application interface {
	monolith.Monolith
	RegisterModules(modules ...monolith.Module) error
	StartModules(ctx context.Context, modules ...monolith.Module) error
	Close() error
}

// runtime is a started application and its teardown.
type runtime struct {
	cfg      *config.Config
	log      *logger.Logger
	mono     application
	shutdown func()
}

// bootstrap loads configuration, sets up logging and telemetry, then
// registers and starts every module in dependency order.
func bootstrap(ctx context.Context, cmd *cobra.Command) (*runtime, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.App.LogLevel = lvl
	}

	var logOut io.Writer = os.Stderr
	if tuiMode(cmd) {
		logOut = io.Discard
	}
	log := newLogger(cfg, logOut)
	log.Debug(ctx, "starting flash arbitrage",
		"version", version,
		"environment", cfg.App.Environment,
		"command", cmd.Name(),
	)

	traceProvider := setupTelemetry(cfg, log)

	mono, err := monolith.New(cfg, log)
	if err != nil {
		traceProvider.Stop()
		return nil, fmt.Errorf("failed to create monolith: %w", err)
	}

	// Define modules in dependency order
	modules := []monolith.Module{
		&token.Module{},      // bank and token registry
		&blockchain.Module{}, // chain head tracking, dials lazily
		&pricing.Module{},    // pool book, quotes, live reader
		&arbitrage.Module{},  // executor, journals, API
	}

	shutdown := func() {
		mono.Close()
		traceProvider.Stop()
		log.Sync()
	}

	if err := mono.RegisterModules(modules...); err != nil {
		shutdown()
		return nil, fmt.Errorf("failed to register modules: %w", err)
	}
	if err := mono.StartModules(ctx, modules...); err != nil {
		shutdown()
		return nil, fmt.Errorf("failed to start modules: %w", err)
	}

	return &runtime{
		cfg:  cfg,
		log:  log,
		mono: mono,
		shutdown: func() {
			arbitrageDI.GetJournals(mono.Services()).Close()
			shutdown()
		},
	}, nil
}

// tuiMode reports whether the command takes over the terminal, in which
// case log lines would corrupt the view.
func tuiMode(cmd *cobra.Command) bool {
	if cmd.Name() != "snapshot" {
		return false
	}
	follow, _ := cmd.Flags().GetBool("follow")
	plain, _ := cmd.Flags().GetBool("plain")
	return follow && !plain
}

func newLogger(cfg *config.Config, out io.Writer) *logger.Logger {
	var opts []logger.Option
	if cfg.App.LogFormat == "json" {
		opts = append(opts, logger.WithJSON())
	}
	return logger.New(out, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, traceID, opts...)
}

func traceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// setupTelemetry installs the global trace and meter providers. With
// telemetry disabled both stay no-op.
func setupTelemetry(cfg *config.Config, log *logger.Logger) apm.TraceProvider {
	if !cfg.Telemetry.Enabled {
		return apm.NewEmptyTraceProvider()
	}

	tp := apm.NewTraceProvider(log,
		apm.WithProvider(apm.Provider(cfg.Telemetry.TraceProvider), cfg.Telemetry.OTLPEndpoint, log),
		apm.WithServiceName(cfg.Telemetry.ServiceName),
	)
	log.Info(context.Background(), "tracing initialized",
		"provider", cfg.Telemetry.TraceProvider,
		"endpoint", cfg.Telemetry.OTLPEndpoint,
	)

	if _, err := metrics.NewMetricProvider(
		metrics.WithServiceName(cfg.Telemetry.ServiceName),
		metrics.WithProviderConfig(metrics.ProviderCfg{
			Provider: metrics.PrometheusProvider,
		}),
	); err != nil {
		log.Warn(context.Background(), "metrics disabled", "error", err)
	}

	return tp
}

// request builds a run request from flags, falling back to config.
func request(cmd *cobra.Command, cfg *config.Config) arbitrageApp.Request {
	req := arbitrageApp.Request{
		Base:   cfg.Arbitrage.BaseAsset,
		Amount: cfg.Arbitrage.LoanAmount,
		Route:  cfg.Arbitrage.Route,
	}
	if v, _ := cmd.Flags().GetString("base"); v != "" {
		req.Base = v
	}
	if v, _ := cmd.Flags().GetString("amount"); v != "" {
		req.Amount = v
	}
	if v, _ := cmd.Flags().GetStringSlice("route"); len(v) > 0 {
		req.Route = v
	}
	req.Base = strings.ToUpper(req.Base)
	return req
}
