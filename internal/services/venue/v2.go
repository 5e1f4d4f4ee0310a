package venue

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/hxuan190/block-etf/internal/domain"
	"github.com/hxuan190/block-etf/internal/services/chain"
)

const bpsDenom = 10_000

// ConstantProduct is a PancakeSwap V2 style venue: one pair per token pair and a flat fee in basis points.
type ConstantProduct struct {
	*amm
	feeBps uint16
}

func NewConstantProduct(address common.Address, c *chain.Chain, bank Bank, feeBps uint16) *ConstantProduct {
	v := &ConstantProduct{feeBps: feeBps}
	v.amm = newAMM(domain.VenueV2, address, c, bank, func(p domain.Pool) (uint64, uint64) {
		return uint64(p.FeeBps), bpsDenom
	})
	return v
}

func (v *ConstantProduct) key(route domain.Route, tokenIn, tokenOut common.Address) (domain.PoolKey, error) {
	if route.Venue != domain.VenueV2 {
		return domain.PoolKey{}, fmt.Errorf("%w: %s on %s", ErrRouteMismatch, route, v.kind)
	}
	if tokenIn == tokenOut {
		return domain.PoolKey{}, ErrIdenticalTokens
	}
	return domain.NewPoolKey(tokenIn, tokenOut, 0), nil
}

func (v *ConstantProduct) Quote(_ context.Context, route domain.Route, tokenIn, tokenOut common.Address, amountIn *uint256.Int) (*uint256.Int, error) {
	key, err := v.key(route, tokenIn, tokenOut)
	if err != nil {
		return nil, err
	}
	p, err := v.pool(key)
	if err != nil {
		return nil, err
	}
	return v.quote(p, tokenIn, tokenOut, amountIn)
}

func (v *ConstantProduct) SwapExactIn(ctx context.Context, req domain.SwapRequest) (*uint256.Int, error) {
	key, err := v.key(req.Route, req.TokenIn, req.TokenOut)
	if err != nil {
		return nil, err
	}
	return v.swap(ctx, key, req)
}

// AddLiquidity seeds a pair with genesis reserves.
func (v *ConstantProduct) AddLiquidity(ctx context.Context, tokenA, tokenB common.Address, amountA, amountB *uint256.Int) (domain.Pool, error) {
	return v.addLiquidity(ctx, domain.NewPoolKey(tokenA, tokenB, 0), v.feeBps, tokenA, amountA, amountB)
}
