package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	arbitrageDI "github.com/fd1az/flash-arbitrage/business/arbitrage/di"
	blockchainDI "github.com/fd1az/flash-arbitrage/business/blockchain/di"
	blockchainDomain "github.com/fd1az/flash-arbitrage/business/blockchain/domain"
	pricingDI "github.com/fd1az/flash-arbitrage/business/pricing/di"
	pricingDomain "github.com/fd1az/flash-arbitrage/business/pricing/domain"
	tokenDI "github.com/fd1az/flash-arbitrage/business/token/di"
	"github.com/fd1az/flash-arbitrage/internal/health"
	"github.com/fd1az/flash-arbitrage/internal/metrics"
	"github.com/fd1az/flash-arbitrage/pkg/ui"
)

const shutdownTimeout = 10 * time.Second

// errAborted makes the process exit non-zero after an aborted run has been reported.
var errAborted = errors.New("arbitrage aborted")

func runArbitrage(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.shutdown()

	executor := arbitrageDI.GetExecutor(rt.mono.Services())
	reporter := arbitrageDI.GetReporter(rt.mono.Services())

	res := executor.InitiateArbitrage(ctx, request(cmd, rt.cfg))

	if base, err := executor.LookupAsset(request(cmd, rt.cfg).Base); err == nil {
		initiator := executor.Accounts().Initiator
		bal, err := tokenDI.GetBank(rt.mono.Services()).BalanceOf(ctx, initiator, base)
		if err == nil {
			reporter.PrintBalance("initiator "+initiator.Address.Hex(), bal)
		}
	}

	if !res.Committed() {
		return fmt.Errorf("%w: %s", errAborted, res.Reason)
	}
	return nil
}

func runQuote(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.shutdown()

	executor := arbitrageDI.GetExecutor(rt.mono.Services())
	reporter := arbitrageDI.GetReporter(rt.mono.Services())

	base, loan, path, err := executor.Resolve(ctx, request(cmd, rt.cfg))
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Quote %s for %s\n", path, loan)
	reporter.PrintResult(executor.Simulate(ctx, base, loan, path))
	return nil
}

func runPools(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.shutdown()

	pools, err := pricingDI.GetOracle(rt.mono.Services()).Pools(ctx)
	if err != nil {
		return err
	}
	arbitrageDI.GetReporter(rt.mono.Services()).PrintPools(pools)
	return nil
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.shutdown()

	var pairs []common.Address
	flagPairs, _ := cmd.Flags().GetStringSlice("pair")
	for _, p := range flagPairs {
		if !common.IsHexAddress(p) {
			return fmt.Errorf("invalid pair address %q", p)
		}
		pairs = append(pairs, common.HexToAddress(p))
	}
	if len(pairs) == 0 {
		for _, pc := range rt.cfg.Pools {
			if pc.Address != "" {
				pairs = append(pairs, pc.AddressHex())
			}
		}
	}
	if len(pairs) == 0 {
		return fmt.Errorf("no pair addresses: pass --pair or set pools[].address")
	}

	if _, err := rt.mono.EthClient(); err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}

	snapshot := pricingDI.GetSnapshot(rt.mono.Services())
	reporter := arbitrageDI.GetReporter(rt.mono.Services())

	read := func(ctx context.Context) error {
		snaps := snapshot.Snapshot(ctx, pairs)

		var pools []pricingDomain.Pool
		failed := 0
		for _, s := range snaps {
			if s.Err != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "pair %s: %v\n", s.Address.Hex(), s.Err)
				continue
			}
			pools = append(pools, s.Pool)
		}
		reporter.PrintPools(pools)

		if failed == len(snaps) {
			return fmt.Errorf("all %d pair reads failed", failed)
		}
		return nil
	}

	if follow, _ := cmd.Flags().GetBool("follow"); !follow {
		return read(ctx)
	}
	chain := blockchainDI.GetBlockchainService(rt.mono.Services())

	if tuiMode(cmd) {
		feed := func(ctx context.Context, send func(tea.Msg)) error {
			return chain.OnNewBlock(ctx, func(ctx context.Context, b blockchainDomain.Block) error {
				send(ui.BlockMsg{Block: b})
				snaps := snapshot.Snapshot(ctx, pairs)
				send(ui.SnapshotMsg{Block: b.Number, Snapshots: snaps})
				return nil
			})
		}
		return ui.Run(ctx, ui.New(fmt.Sprintf("flasharb snapshot · %d pairs", len(pairs))), feed, tea.WithAltScreen())
	}

	err = chain.OnNewBlock(ctx,
		func(ctx context.Context, b blockchainDomain.Block) error {
			fmt.Fprintf(cmd.OutOrStdout(), "\nblock %d %s\n", b.Number, b.Hash.Hex())
			if err := read(ctx); err != nil {
				rt.log.Warn(ctx, "snapshot failed", "block", b.Number, "error", err)
			}
			return nil
		})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.shutdown()

	cfg, log := rt.cfg, rt.log
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.API.Port = port
	}

	oracle := pricingDI.GetOracle(rt.mono.Services())

	healthServer := health.NewServer(cfg.API.HealthPort, version, log)
	healthServer.RegisterCheck("pool_book", func(ctx context.Context) (bool, string) {
		pools, err := oracle.Pools(ctx)
		if err != nil {
			return false, err.Error()
		}
		if len(pools) == 0 {
			return false, "no pools listed"
		}
		return true, strconv.Itoa(len(pools)) + " pools"
	})
	chain := blockchainDI.GetBlockchainService(rt.mono.Services())
	healthServer.RegisterCheck("chain", func(ctx context.Context) (bool, string) {
		if _, err := rt.mono.EthClient(); err != nil {
			return false, err.Error()
		}
		b, err := chain.LatestBlock(ctx)
		if err != nil {
			return false, err.Error()
		}
		return true, "block " + strconv.FormatUint(b.Number, 10)
	})
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", cfg.API.HealthPort)
	}

	servers := []*http.Server{{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           otelhttp.NewHandler(arbitrageDI.GetAPI(rt.mono.Services()).Router(), "flasharb-api"),
		ReadHeaderTimeout: 5 * time.Second,
	}}
	if cfg.Telemetry.Enabled {
		servers = append(servers, metrics.NewPrometheusServer(
			metrics.WithPort(strconv.Itoa(cfg.Telemetry.PrometheusPort)),
		))
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			log.Info(ctx, "http server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("listen %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	select {
	case <-ctx.Done():
		log.Info(ctx, "shutting down")
	case err = <-errCh:
		log.Error(ctx, "http server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			log.Warn(shutdownCtx, "http shutdown", "addr", srv.Addr, "error", serr)
		}
	}
	if serr := healthServer.Stop(shutdownCtx); serr != nil {
		log.Warn(shutdownCtx, "health shutdown", "error", serr)
	}
	return err
}
