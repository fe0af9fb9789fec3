package app

import (
	"context"
	"fmt"

	"github.com/fd1az/flash-arbitrage/business/arbitrage/domain"
	pricingDomain "github.com/fd1az/flash-arbitrage/business/pricing/domain"
	"github.com/fd1az/flash-arbitrage/internal/apperror"
	"github.com/fd1az/flash-arbitrage/internal/asset"
)

// PathResolver builds swap paths from asset cycles using the pool registry,
// the way a router takes [BUSD, CROX, CAKE, BUSD].
type PathResolver struct {
	pools PoolDirectory
}

// NewPathResolver creates a resolver over pools.
func NewPathResolver(pools PoolDirectory) *PathResolver {
	return &PathResolver{pools: pools}
}

// Resolve returns the path selling assets[i] for assets[i+1] through the
// registered pool of each pair. The result is not validated.
func (r *PathResolver) Resolve(ctx context.Context, assets ...*asset.Asset) (domain.SwapPath, error) {
	if len(assets) < domain.MinHops+1 {
		return domain.SwapPath{}, apperror.New(apperror.CodeMalformedPath,
			apperror.WithContext(fmt.Sprintf("route needs at least %d assets, got %d", domain.MinHops+1, len(assets))))
	}

	hops := make([]domain.Hop, 0, len(assets)-1)
	for i := 0; i+1 < len(assets); i++ {
		key, err := pricingDomain.NewPoolKey(assets[i], assets[i+1])
		if err != nil {
			return domain.SwapPath{}, apperror.New(apperror.CodeMalformedPath,
				apperror.WithContext(fmt.Sprintf("route step %d", i)), apperror.WithCause(err))
		}
		if _, err := r.pools.Pool(ctx, key); err != nil {
			return domain.SwapPath{}, err
		}
		hops = append(hops, domain.Hop{Pool: key, Input: assets[i]})
	}
	return domain.NewSwapPath(hops...), nil
}
