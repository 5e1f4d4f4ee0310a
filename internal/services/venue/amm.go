package venue

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

// amm is the x*y=k pool book shared by both venue kinds. Reserves are the pool
// address balances in the bank, so they move with the enclosing call's journal.
type amm struct {
	kind    domain.VenueKind
	address common.Address
	chain   *chain.Chain
	bank    Bank
	// fee returns the charged fraction as num/denom for a pool.
	fee func(p domain.Pool) (num, denom uint64)

	mu    sync.RWMutex
	pools map[domain.PoolKey]domain.Pool
}

func newAMM(kind domain.VenueKind, address common.Address, c *chain.Chain, bank Bank, fee func(domain.Pool) (uint64, uint64)) *amm {
	return &amm{
		kind:    kind,
		address: address,
		chain:   c,
		bank:    bank,
		fee:     fee,
		pools:   make(map[domain.PoolKey]domain.Pool),
	}
}

func (a *amm) Kind() domain.VenueKind  { return a.kind }
func (a *amm) Address() common.Address { return a.address }

func (a *amm) pool(key domain.PoolKey) (domain.Pool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	p, ok := a.pools[key]
	if !ok || !p.Active {
		return domain.Pool{}, fmt.Errorf("%w: %s %s/%s fee %d", ErrPoolNotFound, a.kind, key.Token0.Hex(), key.Token1.Hex(), key.FeeTier)
	}
	return p, nil
}

func (a *amm) reserves(p domain.Pool, tokenIn, tokenOut common.Address) domain.Reserves {
	return domain.Reserves{
		In:  a.bank.BalanceOf(tokenIn, p.Address),
		Out: a.bank.BalanceOf(tokenOut, p.Address),
	}
}

func (a *amm) quote(p domain.Pool, tokenIn, tokenOut common.Address, amountIn *uint256.Int) (*uint256.Int, error) {
	num, denom := a.fee(p)
	return GetAmountOut(amountIn, a.reserves(p, tokenIn, tokenOut), denom-num, denom)
}

func (a *amm) swap(ctx context.Context, key domain.PoolKey, req domain.SwapRequest) (*uint256.Int, error) {
	var out *uint256.Int
	err := a.chain.Call(ctx, func(ctx context.Context) error {
		if a.chain.Now(ctx).After(req.Deadline) {
			return ErrExpired
		}
		p, err := a.pool(key)
		if err != nil {
			return err
		}
		amountOut, err := a.quote(p, req.TokenIn, req.TokenOut, req.AmountIn)
		if err != nil {
			return err
		}
		if req.MinAmountOut != nil && amountOut.Lt(req.MinAmountOut) {
			return fmt.Errorf("%w: got %s, want at least %s", ErrInsufficientOutputAmount, amountOut.Dec(), req.MinAmountOut.Dec())
		}
		if err := a.bank.TransferFrom(ctx, req.TokenIn, a.address, req.Payer, p.Address, req.AmountIn); err != nil {
			return err
		}
		if err := a.bank.Transfer(ctx, req.TokenOut, p.Address, req.Recipient, amountOut); err != nil {
			return err
		}
		out = amountOut
		return nil
	})
	return out, err
}

// addLiquidity creates the pool when missing and mints the given reserves into it.
func (a *amm) addLiquidity(ctx context.Context, key domain.PoolKey, feeBps uint16, tokenA common.Address, amountA, amountB *uint256.Int) (domain.Pool, error) {
	var pool domain.Pool
	err := a.chain.Call(ctx, func(ctx context.Context) error {
		if key.Token0 == key.Token1 {
			return ErrIdenticalTokens
		}
		a.mu.Lock()
		p, existed := a.pools[key]
		if !existed {
			p = domain.Pool{Address: key.Address(a.address), Venue: a.kind, Key: key, FeeBps: feeBps, Active: true}
			a.pools[key] = p
		}
		a.mu.Unlock()
		if !existed {
			if err := a.chain.Record(ctx, func() {
				a.mu.Lock()
				defer a.mu.Unlock()
				delete(a.pools, key)
			}); err != nil {
				return err
			}
		}

		tokenB := key.Token1
		if tokenA == key.Token1 {
			tokenB = key.Token0
		}
		if err := a.bank.Mint(ctx, tokenA, p.Address, amountA); err != nil {
			return err
		}
		if err := a.bank.Mint(ctx, tokenB, p.Address, amountB); err != nil {
			return err
		}
		pool = p
		return nil
	})
	return pool, err
}

// Pools lists the venue's pools ordered by address.
func (a *amm) Pools() []domain.Pool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]domain.Pool, 0, len(a.pools))
	for _, p := range a.pools {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address.Cmp(out[j].Address) < 0 })
	return out
}

// Restore re-registers persisted pools. Reserves come back with the bank.
func (a *amm) Restore(pools []domain.Pool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pools = make(map[domain.PoolKey]domain.Pool, len(pools))
	for _, p := range pools {
		if p.Venue != a.kind {
			continue
		}
		a.pools[p.Key] = p
	}
}

// GetAmountOut is the constant-product output for an exact input, with the fee
// taken from the input: out = in*f*rOut / (rIn*denom + in*f), f = denom - fee.
func GetAmountOut(amountIn *uint256.Int, r domain.Reserves, feeMultiplier, denom uint64) (*uint256.Int, error) {
	if amountIn == nil || amountIn.IsZero() {
		return nil, ErrInsufficientInputAmount
	}
	if r.In == nil || r.Out == nil || r.In.IsZero() || r.Out.IsZero() {
		return nil, ErrInsufficientLiquidity
	}
	inWithFee, overflow := new(uint256.Int).MulOverflow(amountIn, uint256.NewInt(feeMultiplier))
	if overflow {
		return nil, fmt.Errorf("%w: input overflow", ErrInsufficientLiquidity)
	}
	den, overflow := new(uint256.Int).MulOverflow(r.In, uint256.NewInt(denom))
	if overflow {
		return nil, fmt.Errorf("%w: reserve overflow", ErrInsufficientLiquidity)
	}
	if _, overflow = den.AddOverflow(den, inWithFee); overflow {
		return nil, fmt.Errorf("%w: reserve overflow", ErrInsufficientLiquidity)
	}
	out, overflow := new(uint256.Int).MulDivOverflow(inWithFee, r.Out, den)
	if overflow {
		return nil, fmt.Errorf("%w: output overflow", ErrInsufficientLiquidity)
	}
	return out, nil
}
