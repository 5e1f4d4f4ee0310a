// Package router converts the settlement token into fund shares and back by
// splitting each deposit across the basket and trading every leg through the
// venue configured for its asset.
package router

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/hxuan190/block-etf/internal/domain"
	"github.com/hxuan190/block-etf/internal/metrics"
	"github.com/hxuan190/block-etf/internal/services"
	"github.com/hxuan190/block-etf/internal/services/chain"
)

const (
	ServiceName = "etf-router"

	DefaultMaxSlippageBps uint16 = 300
	MaxSlippageCapBps     uint16 = 1000
	DefaultSwapWindow            = 5 * time.Minute
)

type FundLedger interface {
	Mint(ctx context.Context, caller, to common.Address, amount *uint256.Int) error
	Burn(ctx context.Context, caller, from common.Address, amount *uint256.Int) error
	TotalSupply() *uint256.Int
	TargetWeights() domain.Basket
}

type AssetRegistry interface {
	AssetConfig(asset common.Address) domain.AssetConfig
	SetAssetConfig(ctx context.Context, caller, asset common.Address, useV3 bool, fee uint32) error
}

// TokenLedger is the ERC-20 surface of the settlement token and basket assets.
type TokenLedger interface {
	BalanceOf(token, holder common.Address) *uint256.Int
	Approve(ctx context.Context, token, owner, spender common.Address, amount *uint256.Int) error
	Transfer(ctx context.Context, token, from, to common.Address, amount *uint256.Int) error
	TransferFrom(ctx context.Context, token, spender, from, to common.Address, amount *uint256.Int) error
}

type Config struct {
	// Address is the router's own account: it custodies basket holdings and is the ledger manager.
	Address    common.Address
	Owner      common.Address
	Settlement common.Address

	MaxSlippageBps uint16
	// SwapWindow is added to block time to form each leg's deadline.
	SwapWindow time.Duration
}

type Router struct {
	chain    *chain.Chain
	ledger   FundLedger
	registry AssetRegistry
	tokens   TokenLedger
	executor *Executor
	logger   *services.ServiceLogger

	address    common.Address
	settlement common.Address
	swapWindow time.Duration

	mu             sync.RWMutex
	owner          common.Address
	maxSlippageBps uint16
	paused         bool

	// inFlight is set for the duration of a deposit or redeem body.
	inFlight bool
}

func New(c *chain.Chain, cfg Config, ledger FundLedger, registry AssetRegistry, tokens TokenLedger, executor *Executor) (*Router, error) {
	if cfg.Owner == (common.Address{}) || cfg.Address == (common.Address{}) || cfg.Settlement == (common.Address{}) {
		return nil, fmt.Errorf("router config: %w", domain.ErrZeroAddress)
	}
	if cfg.MaxSlippageBps > MaxSlippageCapBps {
		return nil, fmt.Errorf("%w: %d bps", domain.ErrSlippageTooHigh, cfg.MaxSlippageBps)
	}
	for _, e := range ledger.TargetWeights() {
		if e.Asset == cfg.Settlement {
			return nil, fmt.Errorf("%w: settlement token %s cannot be a basket asset", domain.ErrInvalidBasket, e.Asset.Hex())
		}
	}
	window := cfg.SwapWindow
	if window <= 0 {
		window = DefaultSwapWindow
	}
	r := &Router{
		chain:          c,
		ledger:         ledger,
		registry:       registry,
		tokens:         tokens,
		executor:       executor,
		address:        cfg.Address,
		settlement:     cfg.Settlement,
		swapWindow:     window,
		owner:          cfg.Owner,
		maxSlippageBps: cfg.MaxSlippageBps,
	}
	r.logger = services.NewServiceLogger(r)
	return r, nil
}

func (r *Router) ID() string { return ServiceName }

func (r *Router) Address() common.Address    { return r.address }
func (r *Router) Settlement() common.Address { return r.settlement }

func (r *Router) Owner() common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.owner
}

func (r *Router) MaxSlippage() uint16 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.maxSlippageBps
}

func (r *Router) Paused() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.paused
}

func (r *Router) AssetConfigs(asset common.Address) domain.AssetConfig {
	return r.registry.AssetConfig(asset)
}

// Holding is one basket asset balance held by the router.
type Holding struct {
	Asset  common.Address `json:"asset"`
	Symbol string         `json:"symbol"`
	Amount *uint256.Int   `json:"amount"`
	Weight *uint256.Int   `json:"weight"`
	Route  domain.Route   `json:"route"`
}

func (r *Router) Holdings() []Holding {
	basket := r.ledger.TargetWeights()
	out := make([]Holding, 0, len(basket))
	for _, e := range basket {
		out = append(out, Holding{
			Asset:  e.Asset,
			Symbol: e.Symbol,
			Amount: r.tokens.BalanceOf(e.Asset, r.address),
			Weight: e.Weight,
			Route:  r.registry.AssetConfig(e.Asset).Route(),
		})
	}
	return out
}

// enter claims the in-flight flag for a deposit or redeem.
func (r *Router) enter() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inFlight {
		return domain.ErrReentrantCall
	}
	r.inFlight = true
	return nil
}

func (r *Router) exit() {
	r.mu.Lock()
	r.inFlight = false
	r.mu.Unlock()
}

func (r *Router) requireOwner(caller common.Address) error {
	if owner := r.Owner(); caller != owner {
		return fmt.Errorf("%w: %s is not the router owner", domain.ErrUnauthorized, caller.Hex())
	}
	return nil
}

// Deposit pulls amountIn of the settlement token from caller, buys every basket
// asset at its target weight and mints the shares the purchase is worth.
func (r *Router) Deposit(ctx context.Context, caller common.Address, amountIn, minSharesOut *uint256.Int) (*domain.DepositReceipt, error) {
	start := time.Now()
	var receipt *domain.DepositReceipt
	err := r.chain.Call(ctx, func(ctx context.Context) error {
		if r.Paused() {
			return domain.ErrPaused
		}
		if err := r.enter(); err != nil {
			return err
		}
		defer r.exit()

		var err error
		receipt, err = r.deposit(ctx, caller, amountIn, minSharesOut)
		return err
	})

	metrics.DepositRequests.WithLabelValues(metrics.Status(err)).Inc()
	metrics.OperationDuration.WithLabelValues("deposit").Observe(time.Since(start).Seconds())
	if err != nil {
		r.logger.Warn().Err(err).Str("caller", caller.Hex()).Str("amount_in", dec(amountIn)).Msg("[Router] deposit reverted")
		return nil, err
	}
	metrics.SharesMinted.Add(metrics.Units(receipt.SharesMinted))
	metrics.TotalSupply.Set(metrics.Units(r.ledger.TotalSupply()))
	r.logger.Info().
		Str("id", receipt.ID).
		Str("caller", caller.Hex()).
		Str("amount_in", receipt.AmountIn.Dec()).
		Str("shares", receipt.SharesMinted.Dec()).
		Msg("[Router] deposit")
	return receipt, nil
}

func (r *Router) deposit(ctx context.Context, caller common.Address, amountIn, minSharesOut *uint256.Int) (*domain.DepositReceipt, error) {
	if amountIn == nil || amountIn.IsZero() {
		return nil, domain.ErrZeroAmount
	}
	if err := r.tokens.TransferFrom(ctx, r.settlement, r.address, caller, r.address, amountIn); err != nil {
		return nil, err
	}

	supply := r.ledger.TotalSupply()
	deadline := r.chain.Now(ctx).Add(r.swapWindow)
	bps := r.MaxSlippage()

	value := new(uint256.Int)
	nav := new(uint256.Int)
	legs := make([]domain.SwapLeg, 0)
	for _, e := range r.ledger.TargetWeights() {
		sub, err := WeightedPortion(amountIn, e.Weight)
		if err != nil {
			return nil, err
		}
		if sub.IsZero() {
			if !e.Weight.IsZero() {
				return nil, fmt.Errorf("%w: deposit too small to buy %s", domain.ErrZeroAmount, e.Asset.Hex())
			}
			continue
		}
		holdingsBefore := r.tokens.BalanceOf(e.Asset, r.address)

		leg, err := r.swapLeg(ctx, e.Asset, r.settlement, e.Asset, sub, bps, deadline)
		if err != nil {
			return nil, err
		}
		legs = append(legs, leg)

		// Both the leg value and the existing holdings are priced at the leg's reference quote.
		legValue, err := MulDivDown(leg.AmountOut, sub, leg.QuotedOut)
		if err != nil {
			return nil, err
		}
		legNAV, err := MulDivDown(holdingsBefore, sub, leg.QuotedOut)
		if err != nil {
			return nil, err
		}
		if err := checkedAdd(value, legValue); err != nil {
			return nil, err
		}
		if err := checkedAdd(nav, legNAV); err != nil {
			return nil, err
		}
	}

	shares, err := sharesFor(value, supply, nav)
	if err != nil {
		return nil, err
	}
	if shares.IsZero() || (minSharesOut != nil && shares.Lt(minSharesOut)) {
		return nil, fmt.Errorf("%w: %s shares, minimum %s", domain.ErrSlippageExceeded, shares.Dec(), dec(minSharesOut))
	}
	if err := r.ledger.Mint(ctx, r.address, caller, shares); err != nil {
		return nil, err
	}

	return &domain.DepositReceipt{
		ID:           uuid.NewString(),
		Caller:       caller,
		AmountIn:     amountIn.Clone(),
		Value:        value,
		NAVBefore:    nav,
		SharesMinted: shares,
		Legs:         legs,
		Timestamp:    r.chain.Now(ctx),
	}, nil
}

// sharesFor prices a deposit: 1:1 against value for the first deposit, otherwise
// value * supply / nav.
func sharesFor(value, supply, nav *uint256.Int) (*uint256.Int, error) {
	if supply.IsZero() {
		return value.Clone(), nil
	}
	if nav.IsZero() {
		return nil, fmt.Errorf("%w: supply %s with no holdings", domain.ErrNAVUnavailable, supply.Dec())
	}
	return MulDivDown(value, supply, nav)
}

// Redeem burns shares from caller, sells the proportional slice of every holding
// and pays the proceeds out in the settlement token.
func (r *Router) Redeem(ctx context.Context, caller common.Address, shares, minAmountOut *uint256.Int) (*domain.RedeemReceipt, error) {
	start := time.Now()
	var receipt *domain.RedeemReceipt
	err := r.chain.Call(ctx, func(ctx context.Context) error {
		if r.Paused() {
			return domain.ErrPaused
		}
		if err := r.enter(); err != nil {
			return err
		}
		defer r.exit()

		var err error
		receipt, err = r.redeem(ctx, caller, shares, minAmountOut)
		return err
	})

	metrics.RedeemRequests.WithLabelValues(metrics.Status(err)).Inc()
	metrics.OperationDuration.WithLabelValues("redeem").Observe(time.Since(start).Seconds())
	if err != nil {
		r.logger.Warn().Err(err).Str("caller", caller.Hex()).Str("shares", dec(shares)).Msg("[Router] redeem reverted")
		return nil, err
	}
	metrics.SharesBurned.Add(metrics.Units(receipt.SharesBurned))
	metrics.TotalSupply.Set(metrics.Units(r.ledger.TotalSupply()))
	r.logger.Info().
		Str("id", receipt.ID).
		Str("caller", caller.Hex()).
		Str("shares", receipt.SharesBurned.Dec()).
		Str("amount_out", receipt.AmountOut.Dec()).
		Msg("[Router] redeem")
	return receipt, nil
}

func (r *Router) redeem(ctx context.Context, caller common.Address, shares, minAmountOut *uint256.Int) (*domain.RedeemReceipt, error) {
	if shares == nil || shares.IsZero() {
		return nil, domain.ErrZeroAmount
	}
	supply := r.ledger.TotalSupply()
	if err := r.ledger.Burn(ctx, r.address, caller, shares); err != nil {
		return nil, err
	}

	deadline := r.chain.Now(ctx).Add(r.swapWindow)
	bps := r.MaxSlippage()

	proceeds := new(uint256.Int)
	legs := make([]domain.SwapLeg, 0)
	for _, e := range r.ledger.TargetWeights() {
		holdings := r.tokens.BalanceOf(e.Asset, r.address)
		withdraw, err := MulDivDown(holdings, shares, supply)
		if err != nil {
			return nil, err
		}
		if withdraw.IsZero() {
			continue
		}
		leg, err := r.swapLeg(ctx, e.Asset, e.Asset, r.settlement, withdraw, bps, deadline)
		if err != nil {
			return nil, err
		}
		legs = append(legs, leg)
		if err := checkedAdd(proceeds, leg.AmountOut); err != nil {
			return nil, err
		}
	}

	if minAmountOut != nil && proceeds.Lt(minAmountOut) {
		return nil, fmt.Errorf("%w: %s out, minimum %s", domain.ErrSlippageExceeded, proceeds.Dec(), minAmountOut.Dec())
	}
	if !proceeds.IsZero() {
		if err := r.tokens.Transfer(ctx, r.settlement, r.address, caller, proceeds); err != nil {
			return nil, err
		}
	}

	return &domain.RedeemReceipt{
		ID:           uuid.NewString(),
		Caller:       caller,
		SharesBurned: shares.Clone(),
		AmountOut:    proceeds,
		Legs:         legs,
		Timestamp:    r.chain.Now(ctx),
	}, nil
}

// swapLeg quotes amountIn, derives the slippage floor and executes the swap from the router's account.
func (r *Router) swapLeg(ctx context.Context, asset, tokenIn, tokenOut common.Address, amountIn *uint256.Int, bps uint16, deadline time.Time) (domain.SwapLeg, error) {
	route := r.registry.AssetConfig(asset).Route()
	quoted, err := r.executor.Quote(ctx, route, tokenIn, tokenOut, amountIn)
	if err != nil {
		metrics.SwapLegs.WithLabelValues(route.Venue.String(), "error").Inc()
		return domain.SwapLeg{}, err
	}
	if quoted.IsZero() {
		metrics.SwapLegs.WithLabelValues(route.Venue.String(), "error").Inc()
		return domain.SwapLeg{}, fmt.Errorf("%w: zero quote for %s on %s", domain.ErrSwapFailed, asset.Hex(), route)
	}
	minOut := ApplySlippage(quoted, bps)

	out, err := r.executor.SwapExactIn(ctx, domain.SwapRequest{
		Route:        route,
		TokenIn:      tokenIn,
		TokenOut:     tokenOut,
		AmountIn:     amountIn,
		MinAmountOut: minOut,
		Payer:        r.address,
		Recipient:    r.address,
		Deadline:     deadline,
	})
	metrics.SwapLegs.WithLabelValues(route.Venue.String(), metrics.Status(err)).Inc()
	if err != nil {
		return domain.SwapLeg{}, err
	}
	r.logger.Debug().
		Str("asset", asset.Hex()).
		Str("route", route.String()).
		Str("amount_in", amountIn.Dec()).
		Str("amount_out", out.Dec()).
		Msg("[Router] leg filled")

	return domain.SwapLeg{
		Asset:        asset,
		Route:        route,
		AmountIn:     amountIn.Clone(),
		QuotedOut:    quoted,
		MinAmountOut: minOut,
		AmountOut:    out,
	}, nil
}

func dec(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}
