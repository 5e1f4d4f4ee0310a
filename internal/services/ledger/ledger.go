// Package ledger implements the fund share token: balances, supply, the immutable
// target-weight table and manager-gated issuance.
package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/hxuan190/block-etf/internal/domain"
	"github.com/hxuan190/block-etf/internal/services/chain"
)

const Decimals uint8 = 18

type Config struct {
	Address common.Address
	Owner   common.Address
	Name    string
	Symbol  string
	Basket  domain.Basket
}

type Ledger struct {
	chain   *chain.Chain
	address common.Address
	owner   common.Address
	name    string
	symbol  string
	weights domain.Basket

	caps *Capabilities

	mu          sync.RWMutex
	balances    map[common.Address]*uint256.Int
	totalSupply *uint256.Int
}

// New deploys a ledger owned by cfg.Owner. Managers must be granted explicitly.
func New(c *chain.Chain, cfg Config) (*Ledger, error) {
	if cfg.Owner == (common.Address{}) {
		return nil, fmt.Errorf("ledger owner: %w", domain.ErrZeroAddress)
	}
	if err := cfg.Basket.Validate(); err != nil {
		return nil, err
	}
	l := &Ledger{
		chain:       c,
		address:     cfg.Address,
		owner:       cfg.Owner,
		name:        cfg.Name,
		symbol:      cfg.Symbol,
		weights:     cfg.Basket.Clone(),
		caps:        NewCapabilities(),
		balances:    make(map[common.Address]*uint256.Int),
		totalSupply: new(uint256.Int),
	}
	l.caps.set(cfg.Owner, CapOwner, true)
	return l, nil
}

func (l *Ledger) Address() common.Address { return l.address }
func (l *Ledger) Name() string            { return l.name }
func (l *Ledger) Symbol() string          { return l.symbol }
func (l *Ledger) Decimals() uint8         { return Decimals }
func (l *Ledger) Owner() common.Address   { return l.owner }

// TargetWeights returns a copy of the weight table fixed at construction.
func (l *Ledger) TargetWeights() domain.Basket {
	return l.weights.Clone()
}

func (l *Ledger) TotalSupply() *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totalSupply.Clone()
}

func (l *Ledger) BalanceOf(holder common.Address) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balanceLocked(holder).Clone()
}

func (l *Ledger) IsManager(addr common.Address) bool {
	return l.caps.Has(addr, CapManager)
}

func (l *Ledger) Managers() []common.Address {
	return l.caps.Holders(CapManager)
}

func (l *Ledger) SetManager(ctx context.Context, caller, addr common.Address, enabled bool) error {
	return l.chain.Call(ctx, func(ctx context.Context) error {
		if err := l.caps.Require(caller, CapOwner); err != nil {
			return err
		}
		if addr == (common.Address{}) {
			return fmt.Errorf("set manager: %w", domain.ErrZeroAddress)
		}
		prev := l.caps.set(addr, CapManager, enabled)
		return l.chain.Record(ctx, func() { l.caps.restore(addr, prev) })
	})
}

// Mint issues shares. There is no supply cap beyond uint256 range.
func (l *Ledger) Mint(ctx context.Context, caller, to common.Address, amount *uint256.Int) error {
	return l.chain.Call(ctx, func(ctx context.Context) error {
		if err := l.caps.Require(caller, CapManager); err != nil {
			return err
		}
		if to == (common.Address{}) {
			return fmt.Errorf("mint: %w", domain.ErrZeroAddress)
		}

		l.mu.Lock()
		prevSupply := l.totalSupply
		supply, overflow := new(uint256.Int).AddOverflow(prevSupply, amount)
		if overflow {
			l.mu.Unlock()
			return fmt.Errorf("%w: total supply overflow", domain.ErrInvalidParameter)
		}
		prevBal := l.balanceLocked(to)
		l.totalSupply = supply
		l.putLocked(to, new(uint256.Int).Add(prevBal, amount))
		l.mu.Unlock()

		return l.chain.Record(ctx, func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.totalSupply = prevSupply
			l.putLocked(to, prevBal)
		})
	})
}

func (l *Ledger) Burn(ctx context.Context, caller, from common.Address, amount *uint256.Int) error {
	return l.chain.Call(ctx, func(ctx context.Context) error {
		if err := l.caps.Require(caller, CapManager); err != nil {
			return err
		}

		l.mu.Lock()
		prevBal := l.balanceLocked(from)
		if prevBal.Lt(amount) {
			l.mu.Unlock()
			return fmt.Errorf("%w: %s holds %s shares, burning %s",
				domain.ErrInsufficientBalance, from.Hex(), prevBal.Dec(), amount.Dec())
		}
		prevSupply := l.totalSupply
		l.totalSupply = new(uint256.Int).Sub(prevSupply, amount)
		l.putLocked(from, new(uint256.Int).Sub(prevBal, amount))
		l.mu.Unlock()

		return l.chain.Record(ctx, func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.totalSupply = prevSupply
			l.putLocked(from, prevBal)
		})
	})
}

// Transfer moves shares between holders.
func (l *Ledger) Transfer(ctx context.Context, from, to common.Address, amount *uint256.Int) error {
	return l.chain.Call(ctx, func(ctx context.Context) error {
		if to == (common.Address{}) {
			return fmt.Errorf("transfer: %w", domain.ErrZeroAddress)
		}

		l.mu.Lock()
		prevFrom := l.balanceLocked(from)
		if prevFrom.Lt(amount) {
			l.mu.Unlock()
			return fmt.Errorf("%w: %s holds %s shares, sending %s",
				domain.ErrInsufficientBalance, from.Hex(), prevFrom.Dec(), amount.Dec())
		}
		l.putLocked(from, new(uint256.Int).Sub(prevFrom, amount))
		prevTo := l.balanceLocked(to)
		l.putLocked(to, new(uint256.Int).Add(prevTo, amount))
		l.mu.Unlock()

		return l.chain.Record(ctx, func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.putLocked(to, prevTo)
			l.putLocked(from, prevFrom)
		})
	})
}

func (l *Ledger) balanceLocked(holder common.Address) *uint256.Int {
	if v, ok := l.balances[holder]; ok {
		return v
	}
	return new(uint256.Int)
}

// putLocked stores v, dropping empty balances so holder iteration stays small.
func (l *Ledger) putLocked(holder common.Address, v *uint256.Int) {
	if v.IsZero() {
		delete(l.balances, holder)
		return
	}
	l.balances[holder] = v
}
