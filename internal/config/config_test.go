package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, uint64(56), cfg.Chain.ChainID)
	assert.Equal(t, uint32(30), cfg.Arbitrage.LoanFeeBps)
	assert.Equal(t, uint32(30), cfg.Pricing.DefaultFeeBps)
	assert.Equal(t, []string{"BUSD", "CROX", "CAKE", "BUSD"}, cfg.Arbitrage.Route)
	require.Len(t, cfg.Pools, 4)
	assert.Equal(t, "BUSD/WBNB", cfg.Pools[0].Name())
	assert.Equal(t, "1000000", cfg.Pools[0].ReserveA)
	assert.Equal(t, uint32(30), cfg.Pools[2].Fee(cfg.Pricing.DefaultFeeBps))

	a, b, err := cfg.Arbitrage.LenderPair()
	require.NoError(t, err)
	assert.Equal(t, "BUSD", a)
	assert.Equal(t, "WBNB", b)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flasharb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
arbitrage:
  loan_fee_bps: 9
  lender_pool: CAKE/WBNB
pools:
  - token_a: CAKE
    token_b: WBNB
    fee_bps: 0
    reserve_a: "10"
    reserve_b: "20"
`), 0o600))
	t.Setenv("FLASHARB_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, uint32(9), cfg.Arbitrage.LoanFeeBps)
	require.Len(t, cfg.Pools, 1)
	require.NotNil(t, cfg.Pools[0].FeeBps)
	assert.Equal(t, uint32(0), cfg.Pools[0].Fee(30))
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Chain:     ChainConfig{ChainID: 56},
			Pricing:   PricingConfig{DefaultFeeBps: 30},
			Arbitrage: ArbitrageConfig{LenderPool: "BUSD/WBNB", LoanFeeBps: 30, LoanAmount: "1000"},
			Pools:     []PoolConfig{{TokenA: "BUSD", TokenB: "CROX"}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"no_chain", func(c *Config) { c.Chain.ChainID = 0 }, true},
		{"loan_fee_100pct", func(c *Config) { c.Arbitrage.LoanFeeBps = 10_000 }, true},
		{"bad_lender", func(c *Config) { c.Arbitrage.LenderPool = "BUSD" }, true},
		{"self_pool", func(c *Config) { c.Pools[0].TokenB = "BUSD" }, true},
		{"bad_pool_address", func(c *Config) { c.Pools[0].Address = "0x12" }, true},
		{"bad_executor", func(c *Config) { c.Arbitrage.ExecutorAddress = "nope" }, true},
		{"bad_token", func(c *Config) { c.Tokens = []TokenConfig{{Symbol: "X", Address: "zz"}} }, true},
		{"bad_loan_amount", func(c *Config) { c.Arbitrage.LoanAmount = "lots" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
