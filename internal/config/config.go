// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Chain     ChainConfig     `mapstructure:"chain"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Tokens    []TokenConfig   `mapstructure:"tokens"`
	Pools     []PoolConfig    `mapstructure:"pools"`
	Arbitrage ArbitrageConfig `mapstructure:"arbitrage"`
	Journal   JournalConfig   `mapstructure:"journal"`
	API       APIConfig       `mapstructure:"api"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"` // console or json
}

// ChainConfig holds the BSC node settings used by the live reserve reader.
type ChainConfig struct {
	RPCURL         string        `mapstructure:"rpc_url"`
	ChainID        uint64        `mapstructure:"chain_id"`
	CallTimeout    time.Duration `mapstructure:"call_timeout"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	PairCacheSize  int           `mapstructure:"pair_cache_size"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
}

// PricingConfig holds pool defaults.
type PricingConfig struct {
	DefaultFeeBps uint32 `mapstructure:"default_fee_bps"`
}

// TokenConfig declares a token beyond the built-in BSC set.
type TokenConfig struct {
	Symbol   string `mapstructure:"symbol"`
	Name     string `mapstructure:"name"`
	Address  string `mapstructure:"address"`
	Decimals uint8  `mapstructure:"decimals"`
}

// PoolConfig declares a pool of the book. Reserves are in whole units.
type PoolConfig struct {
	TokenA   string  `mapstructure:"token_a"`
	TokenB   string  `mapstructure:"token_b"`
	Address  string  `mapstructure:"address"`
	FeeBps   *uint32 `mapstructure:"fee_bps"`
	ReserveA string  `mapstructure:"reserve_a"`
	ReserveB string  `mapstructure:"reserve_b"`
}

// Name returns "A/B".
func (p PoolConfig) Name() string {
	return p.TokenA + "/" + p.TokenB
}

// AddressHex returns the pool address, zero when unset.
func (p PoolConfig) AddressHex() common.Address {
	return common.HexToAddress(p.Address)
}

// Fee returns the pool fee, falling back to def.
func (p PoolConfig) Fee(def uint32) uint32 {
	if p.FeeBps == nil {
		return def
	}
	return *p.FeeBps
}

// AmountOutConfig pins the output of one swap, like a mock router.
type AmountOutConfig struct {
	TokenIn   string `mapstructure:"token_in"`
	TokenOut  string `mapstructure:"token_out"`
	AmountIn  string `mapstructure:"amount_in"`
	AmountOut string `mapstructure:"amount_out"`
}

// ArbitrageConfig holds loan and route settings.
type ArbitrageConfig struct {
	LenderPool       string            `mapstructure:"lender_pool"` // "BUSD/WBNB"
	ExecutorAddress  string            `mapstructure:"executor_address"`
	InitiatorAddress string            `mapstructure:"initiator_address"`
	LoanFeeBps       uint32            `mapstructure:"loan_fee_bps"`
	BaseAsset        string            `mapstructure:"base_asset"`
	Route            []string          `mapstructure:"route"`
	LoanAmount       string            `mapstructure:"loan_amount"`
	AmountsOut       []AmountOutConfig `mapstructure:"amounts_out"`
}

// LoanAmountDecimal parses the default loan amount.
func (c *ArbitrageConfig) LoanAmountDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(c.LoanAmount)
}

// LenderPair splits lender_pool into its two symbols.
func (c *ArbitrageConfig) LenderPair() (string, string, error) {
	parts := strings.Split(c.LenderPool, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("arbitrage.lender_pool must look like BUSD/WBNB, got %q", c.LenderPool)
	}
	return parts[0], parts[1], nil
}

// JournalConfig selects where execution results are recorded.
type JournalConfig struct {
	JSONLPath   string `mapstructure:"jsonl_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// APIConfig holds the HTTP listener settings.
type APIConfig struct {
	Port       int `mapstructure:"port"`
	HealthPort int `mapstructure:"health_port"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"` // console, zipkin, otlp-grpc, otlp-http
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("FLASHARB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// no file: defaults and env only
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "FLASHARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "FLASHARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "FLASHARB_LOG_LEVEL", "LOG_LEVEL")

	// Chain
	v.BindEnv("chain.rpc_url", "FLASHARB_RPC_URL", "BSC_RPC_URL")
	v.BindEnv("chain.chain_id", "FLASHARB_CHAIN_ID")

	// Arbitrage
	v.BindEnv("arbitrage.executor_address", "FLASHARB_EXECUTOR")
	v.BindEnv("arbitrage.initiator_address", "FLASHARB_INITIATOR")
	v.BindEnv("arbitrage.loan_fee_bps", "FLASHARB_LOAN_FEE_BPS")

	// Journal
	v.BindEnv("journal.postgres_dsn", "FLASHARB_POSTGRES_DSN", "DATABASE_URL")

	// Telemetry
	v.BindEnv("telemetry.enabled", "FLASHARB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "FLASHARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "FLASHARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

const millionUnits = "1000000"

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "flash-arbitrage")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "console")

	// BNB Smart Chain mainnet
	v.SetDefault("chain.rpc_url", "https://bsc-dataseed.binance.org")
	v.SetDefault("chain.chain_id", 56)
	v.SetDefault("chain.call_timeout", "10s")
	v.SetDefault("chain.rate_limit_rps", 10)
	v.SetDefault("chain.rate_limit_burst", 5)
	v.SetDefault("chain.pair_cache_size", 256)
	v.SetDefault("chain.poll_interval", "3s")

	v.SetDefault("pricing.default_fee_bps", 30)

	// The four seeded pools of the triangular BUSD route.
	v.SetDefault("pools", []map[string]any{
		{"token_a": "BUSD", "token_b": "WBNB", "reserve_a": millionUnits, "reserve_b": millionUnits},
		{"token_a": "BUSD", "token_b": "CROX", "reserve_a": millionUnits, "reserve_b": millionUnits},
		{"token_a": "CROX", "token_b": "CAKE", "reserve_a": millionUnits, "reserve_b": millionUnits},
		{"token_a": "CAKE", "token_b": "BUSD", "reserve_a": millionUnits, "reserve_b": millionUnits},
	})

	// Arbitrage defaults
	v.SetDefault("arbitrage.lender_pool", "BUSD/WBNB")
	v.SetDefault("arbitrage.loan_fee_bps", 30)
	v.SetDefault("arbitrage.base_asset", "BUSD")
	v.SetDefault("arbitrage.route", []string{"BUSD", "CROX", "CAKE", "BUSD"})
	v.SetDefault("arbitrage.loan_amount", "1000")

	// API defaults
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.health_port", 8081)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "flash-arbitrage")
	v.SetDefault("telemetry.trace_provider", "zipkin")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Chain.ChainID == 0 {
		return fmt.Errorf("chain.chain_id is required")
	}
	if c.Pricing.DefaultFeeBps >= 10_000 {
		return fmt.Errorf("pricing.default_fee_bps must be below 10000, got %d", c.Pricing.DefaultFeeBps)
	}
	if c.Arbitrage.LoanFeeBps >= 10_000 {
		return fmt.Errorf("arbitrage.loan_fee_bps must be below 10000, got %d", c.Arbitrage.LoanFeeBps)
	}
	if _, _, err := c.Arbitrage.LenderPair(); err != nil {
		return err
	}

	for _, t := range c.Tokens {
		if t.Symbol == "" {
			return fmt.Errorf("tokens: symbol is required")
		}
		if !common.IsHexAddress(t.Address) {
			return fmt.Errorf("invalid address for token %s: %q", t.Symbol, t.Address)
		}
	}

	for i, p := range c.Pools {
		if p.TokenA == "" || p.TokenB == "" {
			return fmt.Errorf("pools[%d]: token_a and token_b are required", i)
		}
		if p.TokenA == p.TokenB {
			return fmt.Errorf("pools[%d]: %s pairs with itself", i, p.TokenA)
		}
		if p.Address != "" && !common.IsHexAddress(p.Address) {
			return fmt.Errorf("pools[%d]: invalid address %q", i, p.Address)
		}
		if p.Fee(c.Pricing.DefaultFeeBps) >= 10_000 {
			return fmt.Errorf("pools[%d]: fee_bps must be below 10000", i)
		}
	}

	for _, addr := range []string{c.Arbitrage.ExecutorAddress, c.Arbitrage.InitiatorAddress} {
		if addr != "" && !common.IsHexAddress(addr) {
			return fmt.Errorf("invalid account address %q", addr)
		}
	}
	if c.Arbitrage.LoanAmount != "" {
		if _, err := c.Arbitrage.LoanAmountDecimal(); err != nil {
			return fmt.Errorf("invalid arbitrage.loan_amount: %w", err)
		}
	}
	return nil
}
