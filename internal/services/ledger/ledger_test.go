package ledger

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcommon "github.com/hxuan190/block-etf/internal/common"
	"github.com/hxuan190/block-etf/internal/domain"
	"github.com/hxuan190/block-etf/internal/services/chain"
)

var (
	owner  = common.HexToAddress("0x0000000000000000000000000000000000000A01")
	router = common.HexToAddress("0x0000000000000000000000000000000000000B02")
	user1  = common.HexToAddress("0x0000000000000000000000000000000000000C03")
	user2  = common.HexToAddress("0x0000000000000000000000000000000000000D04")
)

func ether(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), domain.Wad)
}

func newLedger(t *testing.T) (*Ledger, *chain.Chain) {
	t.Helper()
	c := chain.New()
	l, err := New(c, Config{
		Owner:  owner,
		Name:   appcommon.FundName,
		Symbol: appcommon.FundSymbol,
		Basket: appcommon.DefaultBasket(),
	})
	require.NoError(t, err)
	return l, c
}

// newManagedLedger grants the owner manager status so tests can mint directly.
func newManagedLedger(t *testing.T) *Ledger {
	t.Helper()
	l, _ := newLedger(t)
	require.NoError(t, l.SetManager(context.Background(), owner, owner, true))
	return l
}

func TestInitialState(t *testing.T) {
	l, _ := newLedger(t)
	assert.Equal(t, "Block ETF Token", l.Name())
	assert.Equal(t, "bETF", l.Symbol())
	assert.Equal(t, uint8(18), l.Decimals())
	assert.True(t, l.TotalSupply().IsZero())
	assert.Equal(t, owner, l.Owner())
}

func TestTargetWeightsSumToOne(t *testing.T) {
	l, _ := newLedger(t)
	weights := l.TargetWeights()
	require.Len(t, weights, 5)

	total := new(uint256.Int)
	for _, w := range weights.Weights() {
		total.Add(total, w)
	}
	assert.True(t, total.Eq(domain.Wad))

	// Mutating the returned copy leaves the ledger untouched.
	weights[0].Weight.SetUint64(0)
	assert.True(t, l.TargetWeights()[0].Weight.Eq(ether(30).Div(ether(30), uint256.NewInt(100))))
}

func TestNewRejectsBadBasket(t *testing.T) {
	cases := []struct {
		name   string
		basket domain.Basket
	}{
		{"empty", nil},
		{"short", domain.Basket{{Asset: appcommon.BTCB, Weight: uint256.NewInt(1)}}},
		{"duplicate", domain.Basket{
			{Asset: appcommon.BTCB, Weight: new(uint256.Int).Div(domain.Wad, uint256.NewInt(2))},
			{Asset: appcommon.BTCB, Weight: new(uint256.Int).Div(domain.Wad, uint256.NewInt(2))},
		}},
		{"zero asset", domain.Basket{{Weight: domain.Wad.Clone()}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(chain.New(), Config{Owner: owner, Basket: tc.basket})
			assert.ErrorIs(t, err, domain.ErrInvalidBasket)
			assert.ErrorIs(t, err, domain.ErrInvalidParameter)
		})
	}
}

func TestMintBurnRequireManager(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)

	err := l.Mint(ctx, user1, user1, ether(100))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	err = l.Burn(ctx, router, user1, ether(1))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	err = l.SetManager(ctx, user1, router, true)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.False(t, l.IsManager(router))

	require.NoError(t, l.SetManager(ctx, owner, router, true))
	assert.True(t, l.IsManager(router))
	require.NoError(t, l.Mint(ctx, router, user1, ether(100)))
	assert.Equal(t, ether(100), l.BalanceOf(user1))

	require.NoError(t, l.SetManager(ctx, owner, router, false))
	assert.ErrorIs(t, l.Mint(ctx, router, user1, ether(1)), domain.ErrUnauthorized)
}

func TestOwnerMintsOnceGranted(t *testing.T) {
	ctx := context.Background()
	l := newManagedLedger(t)

	require.NoError(t, l.Mint(ctx, owner, user1, ether(100)))
	assert.Equal(t, ether(100), l.BalanceOf(user1))
	assert.Equal(t, ether(100), l.TotalSupply())

	require.NoError(t, l.Burn(ctx, owner, user1, ether(50)))
	assert.Equal(t, ether(50), l.BalanceOf(user1))
	assert.Equal(t, ether(50), l.TotalSupply())
}

func TestMintBurnRoundTrip(t *testing.T) {
	ctx := context.Background()
	amounts := []*uint256.Int{
		uint256.NewInt(1),
		ether(7),
		uint256.MustFromDecimal("123456789012345678901234567890"),
	}
	for _, a := range amounts {
		t.Run(a.Dec(), func(t *testing.T) {
			l := newManagedLedger(t)
			require.NoError(t, l.Mint(ctx, owner, user2, ether(3)))
			balBefore, supplyBefore := l.BalanceOf(user1), l.TotalSupply()

			require.NoError(t, l.Mint(ctx, owner, user1, a))
			require.NoError(t, l.Burn(ctx, owner, user1, a))

			assert.Equal(t, balBefore, l.BalanceOf(user1))
			assert.Equal(t, supplyBefore, l.TotalSupply())
		})
	}
}

func TestBurnInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	l := newManagedLedger(t)
	require.NoError(t, l.Mint(ctx, owner, user1, ether(1)))

	err := l.Burn(ctx, owner, user1, ether(2))
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Equal(t, ether(1), l.BalanceOf(user1))
	assert.Equal(t, ether(1), l.TotalSupply())
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	l := newManagedLedger(t)
	require.NoError(t, l.Mint(ctx, owner, user1, ether(10)))

	require.NoError(t, l.Transfer(ctx, user1, user2, ether(4)))
	assert.Equal(t, ether(6), l.BalanceOf(user1))
	assert.Equal(t, ether(4), l.BalanceOf(user2))

	assert.ErrorIs(t, l.Transfer(ctx, user2, user1, ether(5)), domain.ErrInsufficientBalance)
	assert.ErrorIs(t, l.Transfer(ctx, user1, common.Address{}, ether(1)), domain.ErrZeroAddress)
	assert.Equal(t, ether(10), l.TotalSupply())
}

func TestMintRevertsWithEnclosingCall(t *testing.T) {
	l, c := newLedger(t)

	err := c.Call(context.Background(), func(ctx context.Context) error {
		require.NoError(t, l.SetManager(ctx, owner, router, true))
		require.NoError(t, l.Mint(ctx, router, user1, ether(5)))
		return domain.ErrSlippageExceeded
	})
	require.ErrorIs(t, err, domain.ErrSlippageExceeded)
	assert.True(t, l.BalanceOf(user1).IsZero())
	assert.True(t, l.TotalSupply().IsZero())
	assert.False(t, l.IsManager(router))
}

func TestSnapshotRestore(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)
	require.NoError(t, l.SetManager(ctx, owner, router, true))
	require.NoError(t, l.Mint(ctx, router, user1, ether(3)))
	require.NoError(t, l.Mint(ctx, router, user2, ether(2)))

	restored, _ := newLedger(t)
	require.NoError(t, restored.Restore(l.Snapshot()))

	assert.Equal(t, ether(3), restored.BalanceOf(user1))
	assert.Equal(t, ether(5), restored.TotalSupply())
	assert.True(t, restored.IsManager(router))
	assert.False(t, restored.IsManager(owner))
}
