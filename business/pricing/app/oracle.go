package app

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/flash-arbitrage/business/pricing/domain"
	"github.com/fd1az/flash-arbitrage/internal/apm"
	"github.com/fd1az/flash-arbitrage/internal/apperror"
	"github.com/fd1az/flash-arbitrage/internal/asset"
	"github.com/fd1az/flash-arbitrage/internal/logger"
)

const (
	tracerName = "pricing.oracle"
	meterName  = "pricing.oracle"
)

type oracleMetrics struct {
	quotesTotal  metric.Int64Counter
	quoteErrors  metric.Int64Counter
	quoteLatency metric.Float64Histogram
}

// OracleService quotes swaps against the pool registry. It never mutates
// pool state; the pool is resolved by key on every call.
type OracleService struct {
	pools     PoolReader
	overrides AmountOutOverrides
	logger    logger.LoggerInterface

	tracer  apm.Tracer
	metrics *oracleMetrics
}

// OracleOption configures an OracleService.
type OracleOption func(*OracleService)

// WithAmountOutOverrides makes pinned outputs take precedence over the
// constant-product formula.
func WithAmountOutOverrides(o AmountOutOverrides) OracleOption {
	return func(s *OracleService) { s.overrides = o }
}

// NewOracleService creates an OracleService over a pool registry.
func NewOracleService(pools PoolReader, log logger.LoggerInterface, opts ...OracleOption) (*OracleService, error) {
	s := &OracleService{
		pools:  pools,
		logger: log,
		tracer: apm.NewTracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.initMetrics(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *OracleService) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &oracleMetrics{}

	s.metrics.quotesTotal, err = meter.Int64Counter(
		"pricing_quotes_total",
		metric.WithDescription("Total quote requests"),
	)
	if err != nil {
		return err
	}

	s.metrics.quoteErrors, err = meter.Int64Counter(
		"pricing_quote_errors_total",
		metric.WithDescription("Total quote errors"),
	)
	if err != nil {
		return err
	}

	s.metrics.quoteLatency, err = meter.Float64Histogram(
		"pricing_quote_latency_ms",
		metric.WithDescription("Quote latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	return err
}

// Quote returns the output of selling in through the pool named by key.
func (s *OracleService) Quote(ctx context.Context, key domain.PoolKey, in asset.Amount) (asset.Amount, error) {
	ctx, span := s.tracer.StartSpanFromContext(ctx, "pricing.quote",
		trace.WithAttributes(
			attribute.String("pool", key.String()),
			attribute.String("amount_in", in.String()),
		),
	)
	defer span.End()

	start := time.Now()
	s.metrics.quotesTotal.Add(ctx, 1)

	out, pinned, err := s.quote(ctx, key, in)

	s.metrics.quoteLatency.Record(ctx, float64(time.Since(start).Microseconds())/1000)
	if err != nil {
		s.metrics.quoteErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("code", string(apperror.GetCode(err))),
		))
		span.NoticeError(err)
		return asset.Amount{}, err
	}

	span.SetAttributes(
		attribute.String("amount_out", out.String()),
		attribute.Bool("pinned", pinned),
	)
	span.Succeed()

	s.logger.Debug(ctx, "quote",
		"pool", key.String(),
		"amount_in", in.String(),
		"amount_out", out.String(),
		"pinned", pinned,
	)
	return out, nil
}

func (s *OracleService) quote(ctx context.Context, key domain.PoolKey, in asset.Amount) (asset.Amount, bool, error) {
	pool, err := s.pools.Pool(ctx, key)
	if err != nil {
		return asset.Amount{}, false, err
	}

	if s.overrides != nil {
		if out, ok := s.overrides.AmountOut(key, in); ok {
			if err := domain.CheckAmountOut(pool, in, out); err != nil {
				return asset.Amount{}, true, err
			}
			return out, true, nil
		}
	}

	out, err := domain.QuoteExactIn(pool, in)
	return out, false, err
}

// Pool returns the current view of one pool.
func (s *OracleService) Pool(ctx context.Context, key domain.PoolKey) (domain.Pool, error) {
	return s.pools.Pool(ctx, key)
}

// Pools returns every registered pool.
func (s *OracleService) Pools(ctx context.Context) ([]domain.Pool, error) {
	return s.pools.Pools(ctx)
}
