package router

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/hxuan190/block-etf/internal/domain"
)

// PreviewDeposit prices a deposit of amountIn against current pool state without
// executing it. ExpectedShares is what Deposit mints if nothing trades in between;
// MinShares assumes every leg fills at its slippage floor.
func (r *Router) PreviewDeposit(ctx context.Context, amountIn *uint256.Int) (*domain.DepositPreview, error) {
	if amountIn == nil || amountIn.IsZero() {
		return nil, domain.ErrZeroAmount
	}
	var preview *domain.DepositPreview
	err := r.chain.View(ctx, func(ctx context.Context) error {
		supply := r.ledger.TotalSupply()
		bps := r.MaxSlippage()

		expected, floor, nav := new(uint256.Int), new(uint256.Int), new(uint256.Int)
		p := &domain.DepositPreview{AmountIn: amountIn.Clone()}
		for _, e := range r.ledger.TargetWeights() {
			sub, err := WeightedPortion(amountIn, e.Weight)
			if err != nil {
				return err
			}
			if sub.IsZero() {
				if !e.Weight.IsZero() {
					return fmt.Errorf("%w: deposit too small to buy %s", domain.ErrZeroAmount, e.Asset.Hex())
				}
				continue
			}
			leg, err := r.quoteLeg(ctx, e.Asset, r.settlement, e.Asset, sub, bps)
			if err != nil {
				return err
			}
			p.Legs = append(p.Legs, leg)
			p.PriceImpactBps = max(p.PriceImpactBps, leg.PriceImpactBps)

			holdings := r.tokens.BalanceOf(e.Asset, r.address)
			if err := checkedAdd(expected, sub); err != nil {
				return err
			}
			if err := checkedAdd(floor, MulDivSaturating(leg.MinAmountOut, sub, leg.QuotedOut)); err != nil {
				return err
			}
			if err := checkedAdd(nav, MulDivSaturating(holdings, sub, leg.QuotedOut)); err != nil {
				return err
			}
		}

		var err error
		if p.ExpectedShares, err = sharesFor(expected, supply, nav); err != nil {
			return err
		}
		if p.MinShares, err = sharesFor(floor, supply, nav); err != nil {
			return err
		}
		p.NAV = nav
		p.Warning = GetPriceImpactWarning(p.PriceImpactBps)
		preview = p
		return nil
	})
	return preview, err
}

// PreviewRedeem prices burning shares against current holdings and pool state.
func (r *Router) PreviewRedeem(ctx context.Context, shares *uint256.Int) (*domain.RedeemPreview, error) {
	if shares == nil || shares.IsZero() {
		return nil, domain.ErrZeroAmount
	}
	var preview *domain.RedeemPreview
	err := r.chain.View(ctx, func(ctx context.Context) error {
		supply := r.ledger.TotalSupply()
		if supply.Lt(shares) {
			return fmt.Errorf("%w: %s shares outstanding, redeeming %s", domain.ErrInsufficientBalance, supply.Dec(), shares.Dec())
		}
		bps := r.MaxSlippage()

		p := &domain.RedeemPreview{Shares: shares.Clone(), ExpectedAmount: new(uint256.Int), MinAmount: new(uint256.Int)}
		for _, e := range r.ledger.TargetWeights() {
			withdraw, err := MulDivDown(r.tokens.BalanceOf(e.Asset, r.address), shares, supply)
			if err != nil {
				return err
			}
			if withdraw.IsZero() {
				continue
			}
			leg, err := r.quoteLeg(ctx, e.Asset, e.Asset, r.settlement, withdraw, bps)
			if err != nil {
				return err
			}
			p.Legs = append(p.Legs, leg)
			p.PriceImpactBps = max(p.PriceImpactBps, leg.PriceImpactBps)
			if err := checkedAdd(p.ExpectedAmount, leg.QuotedOut); err != nil {
				return err
			}
			if err := checkedAdd(p.MinAmount, leg.MinAmountOut); err != nil {
				return err
			}
		}
		p.Warning = GetPriceImpactWarning(p.PriceImpactBps)
		preview = p
		return nil
	})
	return preview, err
}

func (r *Router) quoteLeg(ctx context.Context, asset, tokenIn, tokenOut common.Address, amountIn *uint256.Int, bps uint16) (domain.LegQuote, error) {
	route := r.registry.AssetConfig(asset).Route()
	quoted, err := r.executor.Quote(ctx, route, tokenIn, tokenOut, amountIn)
	if err != nil {
		return domain.LegQuote{}, err
	}
	if quoted.IsZero() {
		return domain.LegQuote{}, fmt.Errorf("%w: zero quote for %s on %s", domain.ErrSwapFailed, asset.Hex(), route)
	}

	var impact uint16
	probeIn := probeAmount(amountIn)
	if probeOut, err := r.executor.Quote(ctx, route, tokenIn, tokenOut, probeIn); err == nil {
		impact = CalculatePriceImpact(amountIn, quoted, probeIn, probeOut)
	}

	return domain.LegQuote{
		Asset:          asset,
		Route:          route,
		AmountIn:       amountIn.Clone(),
		QuotedOut:      quoted,
		MinAmountOut:   ApplySlippage(quoted, bps),
		PriceImpactBps: impact,
		Severity:       string(GetPriceImpactSeverity(impact)),
	}, nil
}
