package etf

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/block-etf/internal/adapters/persistence"
	appcommon "github.com/hxuan190/block-etf/internal/common"
	"github.com/hxuan190/block-etf/internal/domain"
	"github.com/hxuan190/block-etf/internal/services/chain"
)

var (
	deployer = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	alice    = common.HexToAddress("0x00000000000000000000000000000000000A11CE")
)

func testParams() Params {
	return Params{
		Deployer:       deployer,
		Name:           appcommon.FundName,
		Symbol:         appcommon.FundSymbol,
		Basket:         appcommon.DefaultBasket(),
		Routes:         appcommon.DefaultAssetConfigs(),
		Settlement:     appcommon.USDT,
		MaxSlippageBps: appcommon.DefaultMaxSlippageBps,
		SwapWindow:     5 * time.Minute,
		V2Address:      appcommon.PancakeV2Router,
		V3Address:      appcommon.PancakeV3Router,
		V2FeeBps:       appcommon.V2FeeBps,
	}
}

func newChain() *chain.Chain {
	return chain.New().WithClock(func() time.Time { return time.Unix(1_700_000_000, 0) })
}

func deploy(t *testing.T, seed bool) *Fund {
	t.Helper()
	f, err := Deploy(context.Background(), newChain(), testParams())
	require.NoError(t, err)
	if seed {
		require.NoError(t, f.SeedLiquidity(context.Background()))
	}
	return f
}

func ether(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), domain.Wad)
}

func TestDeploy(t *testing.T) {
	f := deploy(t, false)

	assert.Equal(t, crypto.CreateAddress(deployer, 0), f.Ledger.Address())
	assert.Equal(t, crypto.CreateAddress(deployer, 1), f.Router.Address())
	assert.Equal(t, deployer, f.Ledger.Owner())
	assert.Equal(t, deployer, f.Router.Owner())
	assert.Equal(t, f.Router.Address(), f.Registry.Owner())
	assert.True(t, f.Ledger.IsManager(f.Router.Address()))
	assert.False(t, f.Ledger.IsManager(deployer))
	assert.Equal(t, appcommon.DefaultMaxSlippageBps, f.Router.MaxSlippage())

	for asset, want := range appcommon.DefaultAssetConfigs() {
		assert.Equal(t, want, f.Router.AssetConfigs(asset), asset.Hex())
	}
	assert.Len(t, f.Bank.Tokens(), 6)
}

func TestDeployRejects(t *testing.T) {
	t.Run("zero deployer", func(t *testing.T) {
		p := testParams()
		p.Deployer = common.Address{}
		_, err := Deploy(context.Background(), newChain(), p)
		assert.ErrorIs(t, err, domain.ErrZeroAddress)
	})
	t.Run("settlement in basket", func(t *testing.T) {
		p := testParams()
		p.Settlement = appcommon.BTCB
		_, err := Deploy(context.Background(), newChain(), p)
		assert.ErrorIs(t, err, domain.ErrInvalidBasket)
	})
	t.Run("bad route", func(t *testing.T) {
		p := testParams()
		p.Routes = map[common.Address]domain.AssetConfig{appcommon.BTCB: {UseV3: true, Fee: 7}}
		_, err := Deploy(context.Background(), newChain(), p)
		assert.ErrorIs(t, err, domain.ErrInvalidFeeTier)
	})
}

func TestSeedLiquidity(t *testing.T) {
	f := deploy(t, true)

	assert.Len(t, f.V2.Pools(), 5)
	assert.Len(t, f.V3.Pools(), 5)

	// 1 BTCB quotes close to 60000 USDT on its configured V3 pool.
	out, err := f.Executor.Quote(context.Background(), f.Router.AssetConfigs(appcommon.BTCB).Route(), appcommon.BTCB, appcommon.USDT, ether(1))
	require.NoError(t, err)
	assert.True(t, out.Lt(ether(60_000)))
	assert.True(t, out.Gt(ether(59_000)))
}

func TestDepositRedeemAfterSeeding(t *testing.T) {
	ctx := context.Background()
	f := deploy(t, true)
	router := f.Router.Address()

	require.NoError(t, f.Faucet(ctx, alice, ether(1_000)))
	require.NoError(t, f.Bank.Approve(ctx, appcommon.USDT, alice, router, ether(1_000)))

	receipt, err := f.Router.Deposit(ctx, alice, ether(1_000), nil)
	require.NoError(t, err)
	assert.Len(t, receipt.Legs, 5)
	assert.Equal(t, receipt.SharesMinted, f.Ledger.BalanceOf(alice))

	redeemed, err := f.Router.Redeem(ctx, alice, receipt.SharesMinted, nil)
	require.NoError(t, err)
	assert.True(t, f.Ledger.TotalSupply().IsZero())
	assert.Equal(t, redeemed.AmountOut, f.Bank.BalanceOf(appcommon.USDT, alice))
	assert.True(t, redeemed.AmountOut.Gt(ether(980)))
}

func TestFaucetRejectsZero(t *testing.T) {
	f := deploy(t, false)
	assert.ErrorIs(t, f.Faucet(context.Background(), alice, new(uint256.Int)), domain.ErrZeroAmount)
}

func TestCaptureRestore(t *testing.T) {
	ctx := context.Background()
	f := deploy(t, true)
	require.NoError(t, f.Faucet(ctx, alice, ether(500)))
	require.NoError(t, f.Bank.Approve(ctx, appcommon.USDT, alice, f.Router.Address(), ether(500)))
	_, err := f.Router.Deposit(ctx, alice, ether(500), nil)
	require.NoError(t, err)
	require.NoError(t, f.Router.SetMaxSlippage(ctx, deployer, 450))
	require.NoError(t, f.Router.SetAssetConfig(ctx, deployer, appcommon.WBNB, true, 2500))

	storage, err := persistence.NewStorage(filepath.Join(t.TempDir(), "etf.db"))
	require.NoError(t, err)
	defer storage.Close()
	require.NoError(t, storage.SaveState(f.Capture()))

	st, err := storage.LoadState()
	require.NoError(t, err)
	require.NotNil(t, st)

	restored := deploy(t, false)
	require.NoError(t, restored.Restore(st))

	assert.Equal(t, f.Chain.Height(), restored.Chain.Height())
	assert.Equal(t, f.Ledger.BalanceOf(alice), restored.Ledger.BalanceOf(alice))
	assert.Equal(t, f.Ledger.TotalSupply(), restored.Ledger.TotalSupply())
	assert.Equal(t, uint16(450), restored.Router.MaxSlippage())
	assert.Equal(t, domain.AssetConfig{UseV3: true, Fee: 2500}, restored.Router.AssetConfigs(appcommon.WBNB))
	assert.Equal(t, f.V3.Pools(), restored.V3.Pools())
	for _, e := range appcommon.DefaultBasket() {
		assert.Equal(t, f.Bank.BalanceOf(e.Asset, f.Router.Address()), restored.Bank.BalanceOf(e.Asset, restored.Router.Address()))
	}

	// The restored fund keeps trading.
	require.NoError(t, restored.Faucet(ctx, alice, ether(100)))
	require.NoError(t, restored.Bank.Approve(ctx, appcommon.USDT, alice, restored.Router.Address(), ether(100)))
	_, err = restored.Router.Deposit(ctx, alice, ether(100), nil)
	require.NoError(t, err)
}
