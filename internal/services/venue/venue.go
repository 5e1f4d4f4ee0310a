// Package venue holds the swap venues the router trades against. Each venue is an
// opaque quote + exact-input swap capability selected by domain.Route.
package venue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/hxuan190/block-etf/internal/domain"
)

var (
	ErrPoolNotFound             = errors.New("pool not found")
	ErrIdenticalTokens          = errors.New("identical tokens")
	ErrInsufficientLiquidity    = errors.New("insufficient liquidity")
	ErrInsufficientInputAmount  = errors.New("insufficient input amount")
	ErrInsufficientOutputAmount = errors.New("insufficient output amount")
	ErrRouteMismatch            = errors.New("route not served by venue")
	ErrExpired                  = fmt.Errorf("%w: transaction too old", domain.ErrDeadlineExceeded)
)

type Venue interface {
	Kind() domain.VenueKind
	// Address is the spender the payer approves before a swap.
	Address() common.Address
	Quote(ctx context.Context, route domain.Route, tokenIn, tokenOut common.Address, amountIn *uint256.Int) (*uint256.Int, error)
	SwapExactIn(ctx context.Context, req domain.SwapRequest) (*uint256.Int, error)
}

// Bank is the token book venue pools keep their reserves in.
type Bank interface {
	BalanceOf(token, holder common.Address) *uint256.Int
	Transfer(ctx context.Context, token, from, to common.Address, amount *uint256.Int) error
	TransferFrom(ctx context.Context, token, spender, from, to common.Address, amount *uint256.Int) error
	Mint(ctx context.Context, token, to common.Address, amount *uint256.Int) error
}

// Set dispatches by venue kind. One venue per kind.
type Set struct {
	mu     sync.RWMutex
	venues map[domain.VenueKind]Venue
}

func NewSet(venues ...Venue) *Set {
	s := &Set{venues: make(map[domain.VenueKind]Venue, len(venues))}
	for _, v := range venues {
		s.Register(v)
	}
	return s
}

func (s *Set) Register(v Venue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.venues[v.Kind()] = v
}

func (s *Set) Get(kind domain.VenueKind) (Venue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.venues[kind]
	if !ok {
		return nil, fmt.Errorf("no venue registered for %s", kind)
	}
	return v, nil
}

func (s *Set) All() []Venue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Venue, 0, len(s.venues))
	for _, kind := range []domain.VenueKind{domain.VenueV2, domain.VenueV3} {
		if v, ok := s.venues[kind]; ok {
			out = append(out, v)
		}
	}
	return out
}
