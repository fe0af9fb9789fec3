package domain

import (
	"context"
	"errors"
	"strings"
	"testing"

	pricingDomain "github.com/fd1az/flash-arbitrage/business/pricing/domain"
	"github.com/fd1az/flash-arbitrage/internal/apperror"
	"github.com/fd1az/flash-arbitrage/internal/asset"
)

var (
	poolBUSDCROX = pricingDomain.MustPoolKey(asset.BUSD, asset.CROX)
	poolCROXCAKE = pricingDomain.MustPoolKey(asset.CROX, asset.CAKE)
	poolCAKEBUSD = pricingDomain.MustPoolKey(asset.CAKE, asset.BUSD)
	poolBUSDWBNB = pricingDomain.MustPoolKey(asset.BUSD, asset.WBNB)
	poolCAKEWBNB = pricingDomain.MustPoolKey(asset.CAKE, asset.WBNB)
)

func triangle() SwapPath {
	return NewSwapPath(
		Hop{Pool: poolBUSDCROX, Input: asset.BUSD},
		Hop{Pool: poolCROXCAKE, Input: asset.CROX},
		Hop{Pool: poolCAKEBUSD, Input: asset.CAKE},
	)
}

func TestSwapPath_Validate(t *testing.T) {
	tests := []struct {
		name    string
		path    SwapPath
		base    *asset.Asset
		wantErr string
	}{
		{name: "triangle", path: triangle(), base: asset.BUSD},
		{
			// consecutive pools must share exactly one asset
			name: "same_pool_twice",
			path: NewSwapPath(
				Hop{Pool: poolBUSDCROX, Input: asset.BUSD},
				Hop{Pool: poolBUSDCROX, Input: asset.CROX},
			),
			base:    asset.BUSD,
			wantErr: "hops 0,1",
		},
		{name: "empty", path: NewSwapPath(), base: asset.BUSD, wantErr: "0 hops"},
		{
			name:    "single_hop",
			path:    NewSwapPath(Hop{Pool: poolBUSDCROX, Input: asset.BUSD}),
			base:    asset.BUSD,
			wantErr: "1 hops",
		},
		{name: "wrong_base", path: triangle(), base: asset.CAKE, wantErr: "hop 0 sells BUSD"},
		{
			name: "input_not_in_pool",
			path: NewSwapPath(
				Hop{Pool: poolBUSDCROX, Input: asset.BUSD},
				Hop{Pool: poolCAKEWBNB, Input: asset.CROX},
				Hop{Pool: poolCAKEBUSD, Input: asset.CAKE},
			),
			base:    asset.BUSD,
			wantErr: "hop 1 sells CROX",
		},
		{
			name: "pools_do_not_connect",
			path: NewSwapPath(
				Hop{Pool: poolBUSDCROX, Input: asset.BUSD},
				Hop{Pool: poolCAKEWBNB, Input: asset.CAKE},
				Hop{Pool: poolBUSDWBNB, Input: asset.WBNB},
			),
			base:    asset.BUSD,
			wantErr: "hops 0,1",
		},
		{
			name: "hop_sells_wrong_side",
			path: NewSwapPath(
				Hop{Pool: poolBUSDCROX, Input: asset.BUSD},
				Hop{Pool: poolCROXCAKE, Input: asset.CAKE},
				Hop{Pool: poolCAKEBUSD, Input: asset.CAKE},
			),
			base:    asset.BUSD,
			wantErr: "hop 0 yields CROX but hop 1 sells CAKE",
		},
		{
			name: "does_not_close",
			path: NewSwapPath(
				Hop{Pool: poolBUSDCROX, Input: asset.BUSD},
				Hop{Pool: poolCROXCAKE, Input: asset.CROX},
			),
			base:    asset.BUSD,
			wantErr: "last hop yields CAKE",
		},
		{
			name:    "zero_pool",
			path:    NewSwapPath(Hop{Input: asset.BUSD}, Hop{Pool: poolBUSDCROX, Input: asset.CROX}),
			base:    asset.BUSD,
			wantErr: "hop 0 has no pool",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.path.Validate(tt.base)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if apperror.GetCode(err) != apperror.CodeMalformedPath {
				t.Fatalf("code = %s, want %s (err %v)", apperror.GetCode(err), apperror.CodeMalformedPath, err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestSwapPath_IsImmutable(t *testing.T) {
	hops := triangle().Hops()
	p := NewSwapPath(hops...)
	hops[0].Input = asset.CAKE

	got := p.Hops()
	got[1].Input = asset.WBNB

	if err := p.Validate(asset.BUSD); err != nil {
		t.Fatalf("path changed through aliasing: %v", err)
	}
	if p.String() != "BUSD->CROX->CAKE->BUSD" {
		t.Errorf("String() = %s", p.String())
	}
}

// doubling quotes each hop as twice its input, re-denominated in the output asset.
type doubling struct {
	failAt int
	calls  int
}

func (d *doubling) Quote(_ context.Context, key pricingDomain.PoolKey, in asset.Amount) (asset.Amount, error) {
	d.calls++
	if d.calls == d.failAt {
		return asset.Amount{}, apperror.New(apperror.CodeInsufficientLiquidity)
	}
	out, err := key.Other(in.Asset())
	if err != nil {
		return asset.Amount{}, err
	}
	doubled, _ := in.Mul(2)
	return asset.NewAmount(out, doubled.Raw()), nil
}

func TestSwapPath_Traverse(t *testing.T) {
	ctx := context.Background()

	q := &doubling{}
	tr, err := triangle().Traverse(ctx, asset.Units(asset.BUSD, 1), q)
	if err != nil {
		t.Fatalf("Traverse: %v", err)
	}
	if len(tr.Hops) != 3 {
		t.Fatalf("hops = %d, want 3", len(tr.Hops))
	}
	for i := 1; i < len(tr.Hops); i++ {
		if !tr.Hops[i].In.Equals(tr.Hops[i-1].Out) {
			t.Errorf("hop %d input %s is not hop %d output %s", i, tr.Hops[i].In, i-1, tr.Hops[i-1].Out)
		}
	}
	if !tr.Final.Equals(asset.Units(asset.BUSD, 8)) {
		t.Errorf("final = %s, want 8 BUSD", tr.Final)
	}

	q = &doubling{failAt: 2}
	_, err = triangle().Traverse(ctx, asset.Units(asset.BUSD, 1), q)
	if !errors.Is(err, apperror.New(apperror.CodeInsufficientLiquidity)) {
		t.Fatalf("err = %v, want INSUFFICIENT_LIQUIDITY", err)
	}
	if q.calls != 2 {
		t.Errorf("quoter called %d times after failure at hop 2", q.calls)
	}
}
