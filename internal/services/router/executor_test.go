package router

import (
	"context"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcommon "github.com/hxuan190/block-etf/internal/common"
	"github.com/hxuan190/block-etf/internal/domain"
	"github.com/hxuan190/block-etf/internal/services/venue"
)

func swapRequest(deadline time.Time, minOut *uint256.Int) domain.SwapRequest {
	return domain.SwapRequest{
		Route:        domain.Route{Venue: domain.VenueV2},
		TokenIn:      appcommon.USDT,
		TokenOut:     appcommon.WBNB,
		AmountIn:     ether(600),
		MinAmountOut: minOut,
		Payer:        user1,
		Recipient:    user1,
		Deadline:     deadline,
	}
}

func TestExecutorSwap(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	route := domain.Route{Venue: domain.VenueV2}

	quoted, err := f.executor.Quote(ctx, route, appcommon.USDT, appcommon.WBNB, ether(600))
	require.NoError(t, err)

	out, err := f.executor.SwapExactIn(ctx, swapRequest(genesis, quoted))
	require.NoError(t, err)
	assert.Equal(t, quoted, out)
	assert.Equal(t, out, f.bank.BalanceOf(appcommon.WBNB, user1))
	assert.True(t, f.bank.Allowance(appcommon.USDT, user1, appcommon.PancakeV2Router).IsZero())
}

func TestExecutorDeadline(t *testing.T) {
	f := newFixture(t)
	before := f.bank.BalanceOf(appcommon.USDT, user1)

	_, err := f.executor.SwapExactIn(context.Background(), swapRequest(genesis.Add(-time.Second), nil))
	assert.ErrorIs(t, err, domain.ErrDeadlineExceeded)
	assert.NotErrorIs(t, err, domain.ErrSwapFailed)
	assert.Equal(t, before, f.bank.BalanceOf(appcommon.USDT, user1))
}

func TestExecutorMinOut(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	quoted, err := f.executor.Quote(ctx, domain.Route{Venue: domain.VenueV2}, appcommon.USDT, appcommon.WBNB, ether(600))
	require.NoError(t, err)

	_, err = f.executor.SwapExactIn(ctx, swapRequest(genesis, new(uint256.Int).AddUint64(quoted, 1)))
	assert.ErrorIs(t, err, domain.ErrSwapFailed)
	assert.ErrorIs(t, err, venue.ErrInsufficientOutputAmount)
	assert.True(t, f.bank.BalanceOf(appcommon.WBNB, user1).IsZero())
	assert.True(t, f.bank.Allowance(appcommon.USDT, user1, appcommon.PancakeV2Router).IsZero())
}

// shortVenue swaps through an honest pool, which already enforced MinAmountOut,
// then reports only half of the output. The executor must still catch it.
type shortVenue struct {
	venue.Venue
}

func (v *shortVenue) SwapExactIn(ctx context.Context, req domain.SwapRequest) (*uint256.Int, error) {
	out, err := v.Venue.SwapExactIn(ctx, req)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Div(out, uint256.NewInt(2)), nil
}

func TestExecutorRejectsVenueReportingBelowMinOut(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.venues.Register(&shortVenue{Venue: f.v2})

	quoted, err := f.executor.Quote(ctx, domain.Route{Venue: domain.VenueV2}, appcommon.USDT, appcommon.WBNB, ether(600))
	require.NoError(t, err)

	_, err = f.executor.SwapExactIn(ctx, swapRequest(genesis, quoted))
	assert.ErrorIs(t, err, domain.ErrSwapFailed)
	assert.True(t, f.bank.BalanceOf(appcommon.WBNB, user1).IsZero())
}

func TestExecutorUnknownVenue(t *testing.T) {
	f := newFixture(t)
	exec := NewExecutor(f.chain, f.bank, venue.NewSet(f.v2))
	_, err := exec.Quote(context.Background(), domain.Route{Venue: domain.VenueV3, FeeTier: 2500}, appcommon.USDT, appcommon.BTCB, ether(1))
	assert.ErrorIs(t, err, domain.ErrSwapFailed)
}
