// Package ethereum provides chain head tracking over a node RPC client.
package ethereum

import (
	"context"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/flash-arbitrage/business/blockchain/app"
	"github.com/fd1az/flash-arbitrage/business/blockchain/domain"
	"github.com/fd1az/flash-arbitrage/internal/apperror"
	"github.com/fd1az/flash-arbitrage/internal/circuitbreaker"
	"github.com/fd1az/flash-arbitrage/internal/logger"
)

const (
	tracerName = "blockchain.poller"
	meterName  = "blockchain.poller"
)

var _ app.HeadWatcher = (*Poller)(nil)

// HeaderReader is the subset of ethclient.Client the poller needs.
type HeaderReader interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// PollerConfig holds the polling settings.
type PollerConfig struct {
	Interval   time.Duration
	BufferSize int
}

// DefaultPollerConfig polls at BSC block time.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Interval:   3 * time.Second,
		BufferSize: 16,
	}
}

type pollerMetrics struct {
	blocksReceived metric.Int64Counter
	pollErrors     metric.Int64Counter
	blockLatency   metric.Float64Histogram
}

// Poller reports chain heads by polling the latest header.
type Poller struct {
	client HeaderReader
	config PollerConfig
	logger logger.LoggerInterface

	lastBlock atomic.Uint64
	cb        *circuitbreaker.CircuitBreaker[*types.Header]

	tracer  trace.Tracer
	metrics *pollerMetrics
}

// NewPoller creates a head poller over client.
func NewPoller(client HeaderReader, cfg PollerConfig, log logger.LoggerInterface) (*Poller, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollerConfig().Interval
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultPollerConfig().BufferSize
	}

	p := &Poller{
		client: client,
		config: cfg,
		logger: log,
		tracer: otel.Tracer(tracerName),
	}
	if err := p.initMetrics(); err != nil {
		return nil, err
	}

	cbCfg := circuitbreaker.DefaultConfig("chain-head")
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Info(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	p.cb = circuitbreaker.New[*types.Header](cbCfg)

	return p, nil
}

func (p *Poller) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	p.metrics = &pollerMetrics{}

	p.metrics.blocksReceived, err = meter.Int64Counter(
		"chain_blocks_received_total",
		metric.WithDescription("New chain heads observed"),
		metric.WithUnit("{block}"),
	)
	if err != nil {
		return err
	}

	p.metrics.pollErrors, err = meter.Int64Counter(
		"chain_poll_errors_total",
		metric.WithDescription("Failed head polls"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	p.metrics.blockLatency, err = meter.Float64Histogram(
		"chain_block_latency_ms",
		metric.WithDescription("Latency from block timestamp to receipt"),
		metric.WithUnit("ms"),
	)
	return err
}

// LatestBlock fetches the current head.
func (p *Poller) LatestBlock(ctx context.Context) (domain.Block, error) {
	ctx, span := p.tracer.Start(ctx, "chain.latest_block")
	defer span.End()

	header, err := p.cb.Execute(func() (*types.Header, error) {
		return p.client.HeaderByNumber(ctx, nil)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return domain.Block{}, apperror.Wrap(err, apperror.CodeEthereumRPCError, "latest block")
	}
	if header == nil || header.Number == nil {
		return domain.Block{}, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithContext("node returned an empty header"))
	}

	span.SetAttributes(attribute.Int64("block_number", header.Number.Int64()))
	span.SetStatus(codes.Ok, "fetched")
	return headerToBlock(header), nil
}

// Watch polls immediately, then every interval. Only heads above the last
// one seen are emitted. A full buffer drops the head.
func (p *Poller) Watch(ctx context.Context) (<-chan domain.Block, error) {
	first, err := p.LatestBlock(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan domain.Block, p.config.BufferSize)
	p.emit(ctx, out, first)

	go func() {
		defer close(out)

		ticker := time.NewTicker(p.config.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b, err := p.LatestBlock(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					p.metrics.pollErrors.Add(ctx, 1)
					p.logger.Warn(ctx, "head poll failed", "error", err)
					continue
				}
				p.emit(ctx, out, b)
			}
		}
	}()

	return out, nil
}

func (p *Poller) emit(ctx context.Context, out chan<- domain.Block, b domain.Block) {
	if b.Number <= p.lastBlock.Load() {
		return
	}
	p.lastBlock.Store(b.Number)

	latency := time.Since(b.Timestamp)
	p.metrics.blockLatency.Record(ctx, float64(latency.Milliseconds()))

	select {
	case out <- b:
		p.metrics.blocksReceived.Add(ctx, 1)
		p.logger.Debug(ctx, "block received",
			"number", b.Number,
			"hash", b.Hash.Hex()[:10],
			"latency_ms", latency.Milliseconds())
	default:
		p.logger.Warn(ctx, "block dropped, buffer full", "number", b.Number)
	}
}

// BlockNumber returns the last head seen.
func (p *Poller) BlockNumber() uint64 {
	return p.lastBlock.Load()
}

func headerToBlock(header *types.Header) domain.Block {
	return domain.Block{
		Number:     header.Number.Uint64(),
		Hash:       header.Hash(),
		ParentHash: header.ParentHash,
		Timestamp:  time.Unix(int64(header.Time), 0),
	}
}
