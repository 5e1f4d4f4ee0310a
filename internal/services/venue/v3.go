package venue

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/hxuan190/block-etf/internal/domain"
	"github.com/hxuan190/block-etf/internal/services/chain"
)

const feeTierDenom = 1_000_000

// FeeTiered is a PancakeSwap V3 style venue: one pool per token pair and fee tier.
// Liquidity is modeled as full range, so pricing reduces to constant product at the tier fee.
type FeeTiered struct {
	*amm
}

func NewFeeTiered(address common.Address, c *chain.Chain, bank Bank) *FeeTiered {
	return &FeeTiered{amm: newAMM(domain.VenueV3, address, c, bank, func(p domain.Pool) (uint64, uint64) {
		return uint64(p.Key.FeeTier), feeTierDenom
	})}
}

func (v *FeeTiered) key(route domain.Route, tokenIn, tokenOut common.Address) (domain.PoolKey, error) {
	if route.Venue != domain.VenueV3 {
		return domain.PoolKey{}, fmt.Errorf("%w: %s on %s", ErrRouteMismatch, route, v.kind)
	}
	if !domain.IsFeeTier(route.FeeTier) {
		return domain.PoolKey{}, fmt.Errorf("%w: %d", domain.ErrInvalidFeeTier, route.FeeTier)
	}
	if tokenIn == tokenOut {
		return domain.PoolKey{}, ErrIdenticalTokens
	}
	return domain.NewPoolKey(tokenIn, tokenOut, route.FeeTier), nil
}

func (v *FeeTiered) Quote(_ context.Context, route domain.Route, tokenIn, tokenOut common.Address, amountIn *uint256.Int) (*uint256.Int, error) {
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

func (v *FeeTiered) SwapExactIn(ctx context.Context, req domain.SwapRequest) (*uint256.Int, error) {
	key, err := v.key(req.Route, req.TokenIn, req.TokenOut)
	if err != nil {
		return nil, err
	}
	return v.swap(ctx, key, req)
}

func (v *FeeTiered) AddLiquidity(ctx context.Context, tokenA, tokenB common.Address, feeTier uint32, amountA, amountB *uint256.Int) (domain.Pool, error) {
	if !domain.IsFeeTier(feeTier) {
		return domain.Pool{}, fmt.Errorf("%w: %d", domain.ErrInvalidFeeTier, feeTier)
	}
	return v.addLiquidity(ctx, domain.NewPoolKey(tokenA, tokenB, feeTier), 0, tokenA, amountA, amountB)
}
