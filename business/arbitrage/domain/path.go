package domain

import (
	"context"
	"fmt"
	"strings"

	pricingDomain "github.com/fd1az/flash-arbitrage/business/pricing/domain"
	"github.com/fd1az/flash-arbitrage/internal/apperror"
	"github.com/fd1az/flash-arbitrage/internal/asset"
)

// MinHops is the shortest closed route.
const MinHops = 2

// Hop sells Input into Pool.
type Hop struct {
	Pool  pricingDomain.PoolKey
	Input *asset.Asset
}

// Output returns the asset the hop yields.
func (h Hop) Output() (*asset.Asset, error) {
	return h.Pool.Other(h.Input)
}

func (h Hop) String() string {
	out, err := h.Output()
	if err != nil {
		return fmt.Sprintf("%s->? via %s", symbol(h.Input), h.Pool)
	}
	return fmt.Sprintf("%s->%s", symbol(h.Input), out.Symbol())
}

// SwapPath is an ordered cycle of hops. It is immutable once built.
type SwapPath struct {
	hops []Hop
}

// NewSwapPath copies hops into a path. Structure is checked by Validate.
func NewSwapPath(hops ...Hop) SwapPath {
	cp := make([]Hop, len(hops))
	copy(cp, hops)
	return SwapPath{hops: cp}
}

// Hops returns a copy of the hops.
func (p SwapPath) Hops() []Hop {
	cp := make([]Hop, len(p.hops))
	copy(cp, p.hops)
	return cp
}

func (p SwapPath) Len() int { return len(p.hops) }

// Assets lists the asset sequence, e.g. BUSD, CROX, CAKE, BUSD. A hop whose
// input is not in its pool ends the list.
func (p SwapPath) Assets() []*asset.Asset {
	if len(p.hops) == 0 {
		return nil
	}
	out := []*asset.Asset{p.hops[0].Input}
	for _, h := range p.hops {
		next, err := h.Output()
		if err != nil {
			break
		}
		out = append(out, next)
	}
	return out
}

// String renders "BUSD->CROX->CAKE->BUSD".
func (p SwapPath) String() string {
	assets := p.Assets()
	if len(assets) == 0 {
		return "<empty>"
	}
	parts := make([]string, len(assets))
	for i, a := range assets {
		parts[i] = symbol(a)
	}
	return strings.Join(parts, "->")
}

// Validate checks the path is a closed cycle starting at base: at least two
// hops, each input held by its pool, consecutive pools sharing exactly the
// asset handed from one hop to the next, and the last output equal to base.
func (p SwapPath) Validate(base *asset.Asset) error {
	if base == nil {
		return malformed("base asset is required")
	}
	if len(p.hops) < MinHops {
		return malformed(fmt.Sprintf("path has %d hops, need at least %d", len(p.hops), MinHops))
	}
	if !p.hops[0].Input.Equals(base) {
		return malformed(fmt.Sprintf("hop 0 sells %s, path must start with %s", symbol(p.hops[0].Input), base.Symbol()))
	}

	outs := make([]*asset.Asset, len(p.hops))
	for i, h := range p.hops {
		if h.Pool.IsZero() {
			return malformed(fmt.Sprintf("hop %d has no pool", i))
		}
		out, err := h.Output()
		if err != nil {
			return malformed(fmt.Sprintf("hop %d sells %s into pool %s", i, symbol(h.Input), h.Pool))
		}
		outs[i] = out
	}

	for i := 0; i+1 < len(p.hops); i++ {
		cur, next := p.hops[i], p.hops[i+1]
		shared, ok := cur.Pool.Shared(next.Pool)
		if !ok {
			return malformed(fmt.Sprintf("pools %s and %s (hops %d,%d) must share exactly one asset", cur.Pool, next.Pool, i, i+1))
		}
		if !shared.Equals(outs[i]) || !next.Input.Equals(outs[i]) {
			return malformed(fmt.Sprintf("hop %d yields %s but hop %d sells %s", i, outs[i].Symbol(), i+1, symbol(next.Input)))
		}
	}

	if last := outs[len(outs)-1]; !last.Equals(base) {
		return malformed(fmt.Sprintf("last hop yields %s, path must close on %s", last.Symbol(), base.Symbol()))
	}
	return nil
}

// Quoter prices a single hop.
type Quoter interface {
	Quote(ctx context.Context, pool pricingDomain.PoolKey, in asset.Amount) (asset.Amount, error)
}

// HopQuote is the priced result of one hop.
type HopQuote struct {
	Hop Hop
	In  asset.Amount
	Out asset.Amount
}

// Traversal is the priced walk of a path.
type Traversal struct {
	Hops  []HopQuote
	Final asset.Amount
}

// Traverse threads initial through every hop, feeding each output into the
// next hop. The first pricing error stops the walk and is returned as is.
func (p SwapPath) Traverse(ctx context.Context, initial asset.Amount, quoter Quoter) (Traversal, error) {
	t := Traversal{Hops: make([]HopQuote, 0, len(p.hops))}
	amount := initial
	for _, h := range p.hops {
		out, err := quoter.Quote(ctx, h.Pool, amount)
		if err != nil {
			return Traversal{}, err
		}
		t.Hops = append(t.Hops, HopQuote{Hop: h, In: amount, Out: out})
		amount = out
	}
	t.Final = amount
	return t, nil
}

func malformed(context string) error {
	return apperror.New(apperror.CodeMalformedPath, apperror.WithContext(context))
}

func symbol(a *asset.Asset) string {
	if a == nil {
		return "<nil>"
	}
	return a.Symbol()
}
