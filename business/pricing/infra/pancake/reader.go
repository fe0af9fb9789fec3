// Package pancake reads PancakeSwap V2 pair state from a BSC node.
package pancake

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/flash-arbitrage/business/pricing/app"
	"github.com/fd1az/flash-arbitrage/business/pricing/domain"
	"github.com/fd1az/flash-arbitrage/internal/apm"
	"github.com/fd1az/flash-arbitrage/internal/apperror"
	"github.com/fd1az/flash-arbitrage/internal/asset"
	"github.com/fd1az/flash-arbitrage/internal/circuitbreaker"
	"github.com/fd1az/flash-arbitrage/internal/logger"
	"github.com/fd1az/flash-arbitrage/internal/ratelimit"
)

const (
	tracerName = "pancake"
	meterName  = "pancake"
)

// Ensure Reader implements PairReader.
var _ app.PairReader = (*Reader)(nil)

// Caller is the subset of ethclient.Client the reader needs.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Config holds reader settings.
type Config struct {
	ChainID        uint64
	Fee            domain.FeeRate
	CallTimeout    time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	CacheSize      int
}

type readerMetrics struct {
	readsTotal  metric.Int64Counter
	readErrors  metric.Int64Counter
	readLatency metric.Float64Histogram
}

type pairTokens struct {
	token0 common.Address
	token1 common.Address
}

// Reader fetches reserves of V2 pairs. token0/token1 never change for a pair
// and are cached; reserves are read on every call.
type Reader struct {
	caller   Caller
	pairABI  abi.ABI
	registry *asset.Registry
	cfg      Config

	tokens  *lru.Cache
	limiter *ratelimit.Limiter
	cb      *circuitbreaker.CircuitBreaker[[]byte]
	logger  logger.LoggerInterface

	tracer  apm.Tracer
	metrics *readerMetrics
}

// NewReader creates a pair reader resolving token addresses through registry.
func NewReader(caller Caller, registry *asset.Registry, cfg Config, log logger.LoggerInterface) (*Reader, error) {
	parsedABI, err := abi.JSON(strings.NewReader(PairABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pair ABI: %w", err)
	}

	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 256
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 10 * time.Second
	}
	cache, err := lru.New(cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create pair cache: %w", err)
	}

	r := &Reader{
		caller:   caller,
		pairABI:  parsedABI,
		registry: registry,
		cfg:      cfg,
		tokens:   cache,
		limiter:  ratelimit.New("pancake-rpc", cfg.RateLimitRPS, cfg.RateLimitBurst),
		logger:   log,
		tracer:   apm.NewTracer(tracerName),
	}

	cbCfg := circuitbreaker.DefaultConfig("pancake-rpc")
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn(context.Background(), "circuit breaker state change",
			"name", name, "from", from.String(), "to", to.String())
	}
	r.cb = circuitbreaker.New[[]byte](cbCfg)

	if err := r.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}
	return r, nil
}

func (r *Reader) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	r.metrics = &readerMetrics{}

	r.metrics.readsTotal, err = meter.Int64Counter(
		"pancake_pair_reads_total",
		metric.WithDescription("Total pair reads"),
	)
	if err != nil {
		return err
	}

	r.metrics.readErrors, err = meter.Int64Counter(
		"pancake_pair_read_errors_total",
		metric.WithDescription("Total pair read errors"),
	)
	if err != nil {
		return err
	}

	r.metrics.readLatency, err = meter.Float64Histogram(
		"pancake_pair_read_latency_ms",
		metric.WithDescription("Pair read latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	return err
}

// ReadPair returns the current pool view of a pair contract.
func (r *Reader) ReadPair(ctx context.Context, pair common.Address) (domain.Pool, error) {
	ctx, span := r.tracer.StartSpanFromContext(ctx, "pancake.read_pair",
		trace.WithAttributes(attribute.String("pair", pair.Hex())),
	)
	defer span.End()

	start := time.Now()
	r.metrics.readsTotal.Add(ctx, 1)

	pool, err := r.readPair(ctx, pair)

	r.metrics.readLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	if err != nil {
		r.metrics.readErrors.Add(ctx, 1)
		span.NoticeError(err)
		return domain.Pool{}, err
	}

	span.SetAttributes(
		attribute.String("pool", pool.Key.String()),
		attribute.String("reserve0", pool.Reserve0.Raw().String()),
		attribute.String("reserve1", pool.Reserve1.Raw().String()),
	)
	span.Succeed()

	r.logger.Debug(ctx, "pancake pair",
		"pair", pair.Hex(),
		"pool", pool.Key.String(),
		"reserve0", pool.Reserve0.String(),
		"reserve1", pool.Reserve1.String(),
	)
	return pool, nil
}

func (r *Reader) readPair(ctx context.Context, pair common.Address) (domain.Pool, error) {
	tokens, err := r.pairTokens(ctx, pair)
	if err != nil {
		return domain.Pool{}, err
	}

	a0, err := r.resolve(tokens.token0)
	if err != nil {
		return domain.Pool{}, err
	}
	a1, err := r.resolve(tokens.token1)
	if err != nil {
		return domain.Pool{}, err
	}

	out, err := r.call(ctx, pair, "getReserves")
	if err != nil {
		return domain.Pool{}, err
	}
	if len(out) < 2 {
		return domain.Pool{}, r.decodeErr(pair, "getReserves", nil)
	}
	raw0, ok0 := out[0].(*big.Int)
	raw1, ok1 := out[1].(*big.Int)
	if !ok0 || !ok1 {
		return domain.Pool{}, r.decodeErr(pair, "getReserves", nil)
	}

	key, err := domain.NewPoolKey(a0, a1)
	if err != nil {
		return domain.Pool{}, err
	}
	return domain.NewPool(key, pair, r.cfg.Fee, asset.NewAmount(a0, raw0), asset.NewAmount(a1, raw1))
}

func (r *Reader) pairTokens(ctx context.Context, pair common.Address) (pairTokens, error) {
	if v, ok := r.tokens.Get(pair); ok {
		return v.(pairTokens), nil
	}

	var tokens pairTokens
	for _, m := range []struct {
		method string
		dst    *common.Address
	}{
		{"token0", &tokens.token0},
		{"token1", &tokens.token1},
	} {
		out, err := r.call(ctx, pair, m.method)
		if err != nil {
			return pairTokens{}, err
		}
		addr, ok := firstAddress(out)
		if !ok {
			return pairTokens{}, r.decodeErr(pair, m.method, nil)
		}
		*m.dst = addr
	}

	r.tokens.Add(pair, tokens)
	return tokens, nil
}

func (r *Reader) call(ctx context.Context, pair common.Address, method string) ([]interface{}, error) {
	data, err := r.pairABI.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, r.cfg.CallTimeout)
	defer cancel()

	result, err := r.cb.Execute(func() ([]byte, error) {
		return r.caller.CallContract(callCtx, ethereum.CallMsg{To: &pair, Data: data}, nil)
	})
	if err != nil {
		if apperror.IsAppError(err) {
			return nil, err
		}
		return nil, apperror.External(apperror.CodeContractCallFailed,
			fmt.Sprintf("%s.%s", pair.Hex(), method), err)
	}

	out, err := r.pairABI.Unpack(method, result)
	if err != nil {
		return nil, r.decodeErr(pair, method, err)
	}
	return out, nil
}

func (r *Reader) resolve(addr common.Address) (*asset.Asset, error) {
	a, ok := r.registry.GetToken(r.cfg.ChainID, addr)
	if !ok {
		return nil, apperror.New(apperror.CodeInvalidAsset,
			apperror.WithContext("token "+addr.Hex()+" is not registered"))
	}
	return a, nil
}

func (r *Reader) decodeErr(pair common.Address, method string, cause error) error {
	return apperror.New(apperror.CodeContractCallFailed,
		apperror.WithContext("unexpected "+method+" output from "+pair.Hex()),
		apperror.WithCause(cause))
}

func firstAddress(out []interface{}) (common.Address, bool) {
	if len(out) == 0 {
		return common.Address{}, false
	}
	addr, ok := out[0].(common.Address)
	return addr, ok
}
