// Package token keeps balances and allowances for the external fungible tokens the
// fund trades: the settlement token and every basket asset.
package token

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/hxuan190/block-etf/internal/domain"
	"github.com/hxuan190/block-etf/internal/services/chain"
)

type Metadata struct {
	Address  common.Address `json:"address"`
	Symbol   string         `json:"symbol"`
	Decimals uint8          `json:"decimals"`
}

type allowanceKey struct {
	token   common.Address
	owner   common.Address
	spender common.Address
}

// Bank is a multi-token balance book with ERC-20 transfer and allowance semantics.
// Every mutation is journaled on the chain, so it rolls back with the enclosing call.
type Bank struct {
	chain *chain.Chain

	mu         sync.RWMutex
	tokens     map[common.Address]Metadata
	balances   map[common.Address]map[common.Address]*uint256.Int
	supplies   map[common.Address]*uint256.Int
	allowances map[allowanceKey]*uint256.Int
}

func NewBank(c *chain.Chain) *Bank {
	return &Bank{
		chain:      c,
		tokens:     make(map[common.Address]Metadata),
		balances:   make(map[common.Address]map[common.Address]*uint256.Int),
		supplies:   make(map[common.Address]*uint256.Int),
		allowances: make(map[allowanceKey]*uint256.Int),
	}
}

// Register makes a token known to the bank. Registering twice keeps the first metadata.
func (b *Bank) Register(token common.Address, symbol string, decimals uint8) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.tokens[token]; ok {
		return
	}
	b.tokens[token] = Metadata{Address: token, Symbol: symbol, Decimals: decimals}
	b.balances[token] = make(map[common.Address]*uint256.Int)
	b.supplies[token] = new(uint256.Int)
}

func (b *Bank) Metadata(token common.Address) (Metadata, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	m, ok := b.tokens[token]
	return m, ok
}

// Tokens lists registered tokens ordered by symbol.
func (b *Bank) Tokens() []Metadata {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Metadata, 0, len(b.tokens))
	for _, m := range b.tokens {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (b *Bank) BalanceOf(token, holder common.Address) *uint256.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if v, ok := b.balances[token][holder]; ok {
		return v.Clone()
	}
	return new(uint256.Int)
}

func (b *Bank) TotalSupply(token common.Address) *uint256.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if v, ok := b.supplies[token]; ok {
		return v.Clone()
	}
	return new(uint256.Int)
}

func (b *Bank) Allowance(token, owner, spender common.Address) *uint256.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if v, ok := b.allowances[allowanceKey{token, owner, spender}]; ok {
		return v.Clone()
	}
	return new(uint256.Int)
}

// Approve sets spender's allowance over owner's tokens, replacing any previous value.
func (b *Bank) Approve(ctx context.Context, token, owner, spender common.Address, amount *uint256.Int) error {
	return b.chain.Call(ctx, func(ctx context.Context) error {
		if err := b.requireToken(token); err != nil {
			return err
		}
		if spender == (common.Address{}) {
			return fmt.Errorf("approve: %w", domain.ErrZeroAddress)
		}
		key := allowanceKey{token, owner, spender}

		b.mu.Lock()
		prev, had := b.allowances[key]
		b.allowances[key] = amount.Clone()
		b.mu.Unlock()

		return b.chain.Record(ctx, func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if had {
				b.allowances[key] = prev
			} else {
				delete(b.allowances, key)
			}
		})
	})
}

func (b *Bank) Transfer(ctx context.Context, token, from, to common.Address, amount *uint256.Int) error {
	return b.chain.Call(ctx, func(ctx context.Context) error {
		return b.move(ctx, token, from, to, amount)
	})
}

// TransferFrom moves owner's tokens on behalf of spender and consumes the allowance.
func (b *Bank) TransferFrom(ctx context.Context, token, spender, from, to common.Address, amount *uint256.Int) error {
	return b.chain.Call(ctx, func(ctx context.Context) error {
		if err := b.requireToken(token); err != nil {
			return err
		}
		key := allowanceKey{token, from, spender}

		b.mu.Lock()
		prev, had := b.allowances[key]
		if !had || prev.Lt(amount) {
			b.mu.Unlock()
			return fmt.Errorf("%w: allowance exceeded for %s", domain.ErrTransferFailed, spender.Hex())
		}
		b.allowances[key] = new(uint256.Int).Sub(prev, amount)
		b.mu.Unlock()

		if err := b.chain.Record(ctx, func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.allowances[key] = prev
		}); err != nil {
			return err
		}
		return b.move(ctx, token, from, to, amount)
	})
}

// Mint credits new tokens. Only the faucet and genesis liquidity seeding use it.
func (b *Bank) Mint(ctx context.Context, token, to common.Address, amount *uint256.Int) error {
	return b.chain.Call(ctx, func(ctx context.Context) error {
		if err := b.requireToken(token); err != nil {
			return err
		}
		if to == (common.Address{}) {
			return fmt.Errorf("mint: %w", domain.ErrZeroAddress)
		}

		b.mu.Lock()
		prevSupply := b.supplies[token]
		supply, overflow := new(uint256.Int).AddOverflow(prevSupply, amount)
		if overflow {
			b.mu.Unlock()
			return fmt.Errorf("%w: supply overflow", domain.ErrInvalidParameter)
		}
		prevBal := b.balanceLocked(token, to)
		b.supplies[token] = supply
		b.balances[token][to] = new(uint256.Int).Add(prevBal, amount)
		b.mu.Unlock()

		return b.chain.Record(ctx, func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.supplies[token] = prevSupply
			b.balances[token][to] = prevBal
		})
	})
}

func (b *Bank) move(ctx context.Context, token, from, to common.Address, amount *uint256.Int) error {
	if err := b.requireToken(token); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return fmt.Errorf("%w: %w", domain.ErrTransferFailed, domain.ErrZeroAddress)
	}

	b.mu.Lock()
	prevFrom := b.balanceLocked(token, from)
	if prevFrom.Lt(amount) {
		b.mu.Unlock()
		return fmt.Errorf("%w: %w: %s has %s, needs %s",
			domain.ErrTransferFailed, domain.ErrInsufficientBalance, from.Hex(), prevFrom.Dec(), amount.Dec())
	}
	b.balances[token][from] = new(uint256.Int).Sub(prevFrom, amount)
	// Read after the debit so a self-transfer nets out.
	prevTo := b.balanceLocked(token, to)
	b.balances[token][to] = new(uint256.Int).Add(prevTo, amount)
	b.mu.Unlock()

	return b.chain.Record(ctx, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.balances[token][to] = prevTo
		b.balances[token][from] = prevFrom
	})
}

func (b *Bank) balanceLocked(token, holder common.Address) *uint256.Int {
	if v, ok := b.balances[token][holder]; ok {
		return v
	}
	return new(uint256.Int)
}

func (b *Bank) requireToken(token common.Address) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if _, ok := b.tokens[token]; !ok {
		return fmt.Errorf("%w: unknown token %s", domain.ErrInvalidParameter, token.Hex())
	}
	return nil
}
