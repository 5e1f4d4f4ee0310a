package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/hxuan190/block-etf/internal/domain"
	"github.com/hxuan190/block-etf/internal/services/chain"
	"github.com/hxuan190/block-etf/internal/services/venue"
)

// Executor performs one exact-input swap through the venue a route names.
// It keeps no state between calls beyond the venue table and the chain clock.
type Executor struct {
	chain  *chain.Chain
	tokens TokenLedger
	venues *venue.Set
}

func NewExecutor(c *chain.Chain, tokens TokenLedger, venues *venue.Set) *Executor {
	return &Executor{chain: c, tokens: tokens, venues: venues}
}

// Quote returns the venue's reference output for amountIn.
func (e *Executor) Quote(ctx context.Context, route domain.Route, tokenIn, tokenOut common.Address, amountIn *uint256.Int) (*uint256.Int, error) {
	v, err := e.venues.Get(route.Venue)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSwapFailed, err)
	}
	out, err := v.Quote(ctx, route, tokenIn, tokenOut, amountIn)
	if err != nil {
		return nil, fmt.Errorf("%w: quote %s: %w", domain.ErrSwapFailed, route, err)
	}
	return out, nil
}

// SwapExactIn approves the venue for req.AmountIn on behalf of req.Payer and swaps.
// Expiry is checked against block time before the venue is touched.
func (e *Executor) SwapExactIn(ctx context.Context, req domain.SwapRequest) (*uint256.Int, error) {
	var out *uint256.Int
	err := e.chain.Call(ctx, func(ctx context.Context) error {
		if e.chain.Now(ctx).After(req.Deadline) {
			return fmt.Errorf("%w: swap %s after %s", domain.ErrDeadlineExceeded, req.Route, req.Deadline.UTC().Format("2006-01-02T15:04:05Z"))
		}
		v, err := e.venues.Get(req.Route.Venue)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrSwapFailed, err)
		}
		if err := e.tokens.Approve(ctx, req.TokenIn, req.Payer, v.Address(), req.AmountIn); err != nil {
			return fmt.Errorf("%w: approve %s: %w", domain.ErrSwapFailed, v.Address().Hex(), err)
		}

		amountOut, err := v.SwapExactIn(ctx, req)
		if err != nil {
			if errors.Is(err, domain.ErrDeadlineExceeded) {
				return err
			}
			return fmt.Errorf("%w: %s: %w", domain.ErrSwapFailed, req.Route, err)
		}
		// Venues are not trusted to honor MinAmountOut themselves.
		if req.MinAmountOut != nil && amountOut.Lt(req.MinAmountOut) {
			return fmt.Errorf("%w: %s returned %s, minimum %s", domain.ErrSwapFailed, req.Route, amountOut.Dec(), req.MinAmountOut.Dec())
		}

		// Clear any allowance the venue left unused.
		if err := e.tokens.Approve(ctx, req.TokenIn, req.Payer, v.Address(), new(uint256.Int)); err != nil {
			return fmt.Errorf("%w: reset approval: %w", domain.ErrSwapFailed, err)
		}
		out = amountOut
		return nil
	})
	return out, err
}
