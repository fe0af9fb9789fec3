package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flash-arbitrage/business/pricing/domain"
	tokenDomain "github.com/fd1az/flash-arbitrage/business/token/domain"
	"github.com/fd1az/flash-arbitrage/internal/apperror"
	"github.com/fd1az/flash-arbitrage/internal/asset"
	"github.com/fd1az/flash-arbitrage/internal/config"
)

// BookConfig is the pool book to list on an exchange.
type BookConfig struct {
	ChainID       uint64
	DefaultFeeBps uint32
	Pools         []config.PoolConfig
	AmountsOut    []config.AmountOutConfig
}

// PoolAccountFor returns the account holding a pool's reserves: the
// configured address when set, otherwise one derived from the pool name.
func PoolAccountFor(pc config.PoolConfig, key domain.PoolKey) tokenDomain.Account {
	label := "pool:" + key.String()
	if pc.Address != "" && common.IsHexAddress(pc.Address) {
		return tokenDomain.NewAccount(label, pc.AddressHex())
	}
	return tokenDomain.DeriveAccount(label)
}

// LoadBook lists every configured pool, seeds its reserves and pins the
// configured outputs.
func LoadBook(ctx context.Context, ex *Exchange, registry *asset.Registry, book BookConfig) error {
	lookup := func(sym string) (*asset.Asset, error) {
		a, err := registry.Lookup(strings.ToUpper(strings.TrimSpace(sym)), book.ChainID)
		if err != nil {
			return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithCause(err))
		}
		return a, nil
	}

	for _, pc := range book.Pools {
		a, err := lookup(pc.TokenA)
		if err != nil {
			return err
		}
		b, err := lookup(pc.TokenB)
		if err != nil {
			return err
		}
		key, err := domain.NewPoolKey(a, b)
		if err != nil {
			return apperror.New(apperror.CodeConfigurationError,
				apperror.WithContext("pool "+pc.Name()), apperror.WithCause(err))
		}
		if err := ex.AddPool(key, PoolAccountFor(pc, key), domain.FeeRate(pc.Fee(book.DefaultFeeBps))); err != nil {
			return err
		}

		ra, err := parseReserve(a, pc.ReserveA, pc.Name())
		if err != nil {
			return err
		}
		rb, err := parseReserve(b, pc.ReserveB, pc.Name())
		if err != nil {
			return err
		}
		if ra.IsZero() && rb.IsZero() {
			continue
		}
		if err := ex.AddLiquidity(ctx, key, ra, rb); err != nil {
			return err
		}
	}

	for _, ao := range book.AmountsOut {
		in, err := lookup(ao.TokenIn)
		if err != nil {
			return err
		}
		out, err := lookup(ao.TokenOut)
		if err != nil {
			return err
		}
		amtIn, err := parseReserve(in, ao.AmountIn, "amounts_out")
		if err != nil {
			return err
		}
		amtOut, err := parseReserve(out, ao.AmountOut, "amounts_out")
		if err != nil {
			return err
		}
		if err := ex.SetAmountOut(amtIn, amtOut); err != nil {
			return err
		}
	}
	return nil
}

func parseReserve(a *asset.Asset, s, where string) (asset.Amount, error) {
	if strings.TrimSpace(s) == "" {
		return asset.Zero(a), nil
	}
	amt, err := asset.ParseString(a, s)
	if err != nil {
		return asset.Amount{}, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext(fmt.Sprintf("%s: %s amount %q", where, a.Symbol(), s)), apperror.WithCause(err))
	}
	return amt, nil
}
