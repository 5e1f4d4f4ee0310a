package router

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	appcommon "github.com/hxuan190/block-etf/internal/common"
	"github.com/hxuan190/block-etf/internal/domain"
	"github.com/hxuan190/block-etf/internal/services/chain"
	"github.com/hxuan190/block-etf/internal/services/ledger"
	"github.com/hxuan190/block-etf/internal/services/registry"
	"github.com/hxuan190/block-etf/internal/services/token"
	"github.com/hxuan190/block-etf/internal/services/venue"
)

var (
	owner      = common.HexToAddress("0x0000000000000000000000000000000000000A01")
	user1      = common.HexToAddress("0x0000000000000000000000000000000000000C03")
	user2      = common.HexToAddress("0x0000000000000000000000000000000000000D04")
	ledgerAddr = common.HexToAddress("0x00000000000000000000000000000000000E7F01")
	routerAddr = common.HexToAddress("0x00000000000000000000000000000000000E7F02")
	genesis    = time.Unix(1_700_000_000, 0)
)

func ether(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), domain.Wad)
}

type fixture struct {
	chain    *chain.Chain
	bank     *token.Bank
	ledger   *ledger.Ledger
	registry *registry.Registry
	v2       *venue.ConstantProduct
	v3       *venue.FeeTiered
	venues   *venue.Set
	executor *Executor
	router   *Router
}

// newFixture deploys the fund the way the service does: ledger, router, manager
// grant, default routes, then pools priced at BTCB 60000, ETH 3000, WBNB 600,
// XRP 0.5 and SOL 150 USDT.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{}
	f.chain = chain.New().WithClock(func() time.Time { return genesis })
	f.bank = token.NewBank(f.chain)
	f.bank.Register(appcommon.USDT, "USDT", 18)
	for _, e := range appcommon.DefaultBasket() {
		f.bank.Register(e.Asset, e.Symbol, 18)
	}

	var err error
	f.ledger, err = ledger.New(f.chain, ledger.Config{
		Address: ledgerAddr,
		Owner:   owner,
		Name:    appcommon.FundName,
		Symbol:  appcommon.FundSymbol,
		Basket:  appcommon.DefaultBasket(),
	})
	require.NoError(t, err)

	f.registry = registry.New(f.chain, routerAddr)
	f.v2 = venue.NewConstantProduct(appcommon.PancakeV2Router, f.chain, f.bank, appcommon.V2FeeBps)
	f.v3 = venue.NewFeeTiered(appcommon.PancakeV3Router, f.chain, f.bank)
	f.venues = venue.NewSet(f.v2, f.v3)
	f.executor = NewExecutor(f.chain, f.bank, f.venues)

	f.router, err = New(f.chain, Config{
		Address:        routerAddr,
		Owner:          owner,
		Settlement:     appcommon.USDT,
		MaxSlippageBps: DefaultMaxSlippageBps,
	}, f.ledger, f.registry, f.bank, f.executor)
	require.NoError(t, err)

	require.NoError(t, f.ledger.SetManager(ctx, owner, routerAddr, true))
	for asset, cfg := range appcommon.DefaultAssetConfigs() {
		require.NoError(t, f.router.SetAssetConfig(ctx, owner, asset, cfg.UseV3, cfg.Fee))
	}

	_, err = f.v3.AddLiquidity(ctx, appcommon.USDT, appcommon.BTCB, 2500, ether(60_000_000), ether(1_000))
	require.NoError(t, err)
	_, err = f.v3.AddLiquidity(ctx, appcommon.USDT, appcommon.ETH, 2500, ether(30_000_000), ether(10_000))
	require.NoError(t, err)
	_, err = f.v2.AddLiquidity(ctx, appcommon.USDT, appcommon.WBNB, ether(6_000_000), ether(10_000))
	require.NoError(t, err)
	_, err = f.v3.AddLiquidity(ctx, appcommon.USDT, appcommon.XRP, 2500, ether(5_000_000), ether(10_000_000))
	require.NoError(t, err)
	_, err = f.v3.AddLiquidity(ctx, appcommon.USDT, appcommon.SOL, 2500, ether(15_000_000), ether(100_000))
	require.NoError(t, err)

	for _, u := range []common.Address{user1, user2} {
		require.NoError(t, f.bank.Mint(ctx, appcommon.USDT, u, ether(10_000)))
	}
	return f
}

func (f *fixture) approve(t *testing.T, holder common.Address, amount *uint256.Int) {
	t.Helper()
	require.NoError(t, f.bank.Approve(context.Background(), appcommon.USDT, holder, routerAddr, amount))
}

func (f *fixture) deposit(t *testing.T, holder common.Address, amount *uint256.Int) *domain.DepositReceipt {
	t.Helper()
	f.approve(t, holder, amount)
	receipt, err := f.router.Deposit(context.Background(), holder, amount, nil)
	require.NoError(t, err)
	return receipt
}

// state captures every balance a deposit or redeem can touch.
type state struct {
	usdt, allowance, shares, supply *uint256.Int
	holdings                        map[common.Address]*uint256.Int
	height                          uint64
}

func (f *fixture) capture(holder common.Address) state {
	s := state{
		usdt:      f.bank.BalanceOf(appcommon.USDT, holder),
		allowance: f.bank.Allowance(appcommon.USDT, holder, routerAddr),
		shares:    f.ledger.BalanceOf(holder),
		supply:    f.ledger.TotalSupply(),
		holdings:  make(map[common.Address]*uint256.Int),
		height:    f.chain.Height(),
	}
	s.holdings[appcommon.USDT] = f.bank.BalanceOf(appcommon.USDT, routerAddr)
	for _, e := range appcommon.DefaultBasket() {
		s.holdings[e.Asset] = f.bank.BalanceOf(e.Asset, routerAddr)
	}
	return s
}
