package venue

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/block-etf/internal/domain"
	"github.com/hxuan190/block-etf/internal/services/chain"
	"github.com/hxuan190/block-etf/internal/services/token"
)

var (
	usdt    = common.HexToAddress("0x55d398326f99059fF775485246999027B3197955")
	wbnb    = common.HexToAddress("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c")
	btcb    = common.HexToAddress("0x7130d2A12B9BCbFAe4f2634d864A1Ee1Ce3Ead9c")
	v2Addr  = common.HexToAddress("0x10ED43C718714eb63d5aA57B78B54704E256024E")
	v3Addr  = common.HexToAddress("0x13f4EA83D0bd40E75C8222255bc855a974568Dd4")
	trader  = common.HexToAddress("0x0000000000000000000000000000000000000E05")
	genesis = time.Unix(1_700_000_000, 0)
)

func ether(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), domain.Wad)
}

type fixture struct {
	chain *chain.Chain
	bank  *token.Bank
	v2    *ConstantProduct
	v3    *FeeTiered
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	c := chain.New().WithClock(func() time.Time { return genesis })
	bank := token.NewBank(c)
	bank.Register(usdt, "USDT", 18)
	bank.Register(wbnb, "WBNB", 18)
	bank.Register(btcb, "BTCB", 18)

	f := &fixture{chain: c, bank: bank, v2: NewConstantProduct(v2Addr, c, bank, 25), v3: NewFeeTiered(v3Addr, c, bank)}
	_, err := f.v2.AddLiquidity(ctx, usdt, wbnb, ether(600_000), ether(1_000))
	require.NoError(t, err)
	_, err = f.v3.AddLiquidity(ctx, usdt, btcb, 2500, ether(6_000_000), ether(100))
	require.NoError(t, err)
	require.NoError(t, bank.Mint(ctx, usdt, trader, ether(10_000)))
	return f
}

func TestGetAmountOut(t *testing.T) {
	cases := []struct {
		name     string
		in       uint64
		rIn      uint64
		rOut     uint64
		feeMul   uint64
		denom    uint64
		expected uint64
	}{
		// 1000*9975*1000000 / (1000000*10000 + 1000*9975) = 996
		{"v2 25bps", 1000, 1_000_000, 1_000_000, 9975, 10_000, 996},
		{"no fee", 1000, 1000, 1000, 10_000, 10_000, 500},
		// 100*997500*5000 / (10000*1e6 + 100*997500) = 49
		{"v3 2500", 100, 10_000, 5_000, 997_500, 1_000_000, 49},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := GetAmountOut(uint256.NewInt(tc.in), domain.Reserves{In: uint256.NewInt(tc.rIn), Out: uint256.NewInt(tc.rOut)}, tc.feeMul, tc.denom)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, out.Uint64())
		})
	}
}

func TestGetAmountOutErrors(t *testing.T) {
	_, err := GetAmountOut(new(uint256.Int), domain.Reserves{In: uint256.NewInt(1), Out: uint256.NewInt(1)}, 1, 1)
	assert.ErrorIs(t, err, ErrInsufficientInputAmount)
	_, err = GetAmountOut(uint256.NewInt(1), domain.Reserves{In: new(uint256.Int), Out: uint256.NewInt(1)}, 1, 1)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestQuoteMatchesSwap(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	route := domain.Route{Venue: domain.VenueV2}

	quoted, err := f.v2.Quote(ctx, route, usdt, wbnb, ether(600))
	require.NoError(t, err)
	require.NoError(t, f.bank.Approve(ctx, usdt, trader, v2Addr, ether(600)))

	out, err := f.v2.SwapExactIn(ctx, domain.SwapRequest{
		Route: route, TokenIn: usdt, TokenOut: wbnb, AmountIn: ether(600), MinAmountOut: quoted,
		Payer: trader, Recipient: trader, Deadline: genesis.Add(time.Minute),
	})
	require.NoError(t, err)
	assert.Equal(t, quoted, out)
	assert.Equal(t, quoted, f.bank.BalanceOf(wbnb, trader))
	assert.Equal(t, ether(9_400), f.bank.BalanceOf(usdt, trader))
	assert.True(t, f.bank.Allowance(usdt, trader, v2Addr).IsZero())
}

func TestV3FeeTierSelectsPool(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.v3.Quote(ctx, domain.Route{Venue: domain.VenueV3, FeeTier: 2500}, usdt, btcb, ether(60))
	require.NoError(t, err)

	_, err = f.v3.Quote(ctx, domain.Route{Venue: domain.VenueV3, FeeTier: 500}, usdt, btcb, ether(60))
	assert.ErrorIs(t, err, ErrPoolNotFound)

	_, err = f.v3.Quote(ctx, domain.Route{Venue: domain.VenueV2}, usdt, btcb, ether(60))
	assert.ErrorIs(t, err, ErrRouteMismatch)
}

func TestSwapMinOutAndDeadline(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	route := domain.Route{Venue: domain.VenueV3, FeeTier: 2500}
	require.NoError(t, f.bank.Approve(ctx, usdt, trader, v3Addr, ether(1_000)))

	quoted, err := f.v3.Quote(ctx, route, usdt, btcb, ether(1_000))
	require.NoError(t, err)
	req := domain.SwapRequest{
		Route: route, TokenIn: usdt, TokenOut: btcb, AmountIn: ether(1_000),
		MinAmountOut: new(uint256.Int).AddUint64(quoted, 1),
		Payer:        trader, Recipient: trader, Deadline: genesis.Add(time.Minute),
	}
	_, err = f.v3.SwapExactIn(ctx, req)
	assert.ErrorIs(t, err, ErrInsufficientOutputAmount)

	req.MinAmountOut = quoted
	req.Deadline = genesis.Add(-time.Second)
	_, err = f.v3.SwapExactIn(ctx, req)
	assert.ErrorIs(t, err, domain.ErrDeadlineExceeded)

	assert.Equal(t, ether(10_000), f.bank.BalanceOf(usdt, trader))
	assert.Equal(t, ether(1_000), f.bank.Allowance(usdt, trader, v3Addr))
}

func TestSwapWithoutAllowanceFails(t *testing.T) {
	f := newFixture(t)
	_, err := f.v2.SwapExactIn(context.Background(), domain.SwapRequest{
		Route: domain.Route{Venue: domain.VenueV2}, TokenIn: usdt, TokenOut: wbnb, AmountIn: ether(1),
		Payer: trader, Recipient: trader, Deadline: genesis,
	})
	assert.ErrorIs(t, err, domain.ErrTransferFailed)
}

func TestSetDispatch(t *testing.T) {
	f := newFixture(t)
	set := NewSet(f.v2, f.v3)

	v, err := set.Get(domain.VenueV3)
	require.NoError(t, err)
	assert.Equal(t, v3Addr, v.Address())
	assert.Len(t, set.All(), 2)

	_, err = NewSet(f.v2).Get(domain.VenueV3)
	assert.Error(t, err)
}

func TestPoolsRestore(t *testing.T) {
	f := newFixture(t)
	pools := append(f.v2.Pools(), f.v3.Pools()...)
	require.Len(t, pools, 2)

	v3 := NewFeeTiered(v3Addr, f.chain, f.bank)
	v3.Restore(pools)
	require.Len(t, v3.Pools(), 1)
	_, err := v3.Quote(context.Background(), domain.Route{Venue: domain.VenueV3, FeeTier: 2500}, btcb, usdt, ether(1))
	assert.NoError(t, err)
}
