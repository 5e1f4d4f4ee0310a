// Package etf wires the fund components together and runs them as a service.
package etf

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/hxuan190/block-etf/internal/domain"
	"github.com/hxuan190/block-etf/internal/services/chain"
	"github.com/hxuan190/block-etf/internal/services/ledger"
	"github.com/hxuan190/block-etf/internal/services/registry"
	"github.com/hxuan190/block-etf/internal/services/router"
	"github.com/hxuan190/block-etf/internal/services/token"
	"github.com/hxuan190/block-etf/internal/services/venue"
)

type Params struct {
	Deployer common.Address
	Name     string
	Symbol   string
	Basket   domain.Basket
	Routes   map[common.Address]domain.AssetConfig
	// Decimals per basket asset. Missing entries default to 18.
	Decimals map[common.Address]uint8

	Settlement       common.Address
	SettlementSymbol string

	MaxSlippageBps uint16
	SwapWindow     time.Duration

	V2Address common.Address
	V3Address common.Address
	V2FeeBps  uint16
}

// Fund is a deployed ledger and router with their collaborators.
type Fund struct {
	Chain    *chain.Chain
	Bank     *token.Bank
	Ledger   *ledger.Ledger
	Registry *registry.Registry
	V2       *venue.ConstantProduct
	V3       *venue.FeeTiered
	Venues   *venue.Set
	Executor *router.Executor
	Router   *router.Router

	deployer common.Address
	params   Params
}

// Deploy creates the ledger and router at the deployer's first two contract
// addresses, grants the router the manager capability and applies the initial routes.
func Deploy(ctx context.Context, c *chain.Chain, p Params) (*Fund, error) {
	if p.Deployer == (common.Address{}) {
		return nil, fmt.Errorf("deployer: %w", domain.ErrZeroAddress)
	}
	if p.SettlementSymbol == "" {
		p.SettlementSymbol = "USDT"
	}

	f := &Fund{Chain: c, deployer: p.Deployer, params: p}
	f.Bank = token.NewBank(c)
	f.registerTokens()

	ledgerAddr := crypto.CreateAddress(p.Deployer, 0)
	routerAddr := crypto.CreateAddress(p.Deployer, 1)

	var err error
	f.Ledger, err = ledger.New(c, ledger.Config{
		Address: ledgerAddr,
		Owner:   p.Deployer,
		Name:    p.Name,
		Symbol:  p.Symbol,
		Basket:  p.Basket,
	})
	if err != nil {
		return nil, fmt.Errorf("deploy ledger: %w", err)
	}

	f.Registry = registry.New(c, routerAddr)
	f.V2 = venue.NewConstantProduct(p.V2Address, c, f.Bank, p.V2FeeBps)
	f.V3 = venue.NewFeeTiered(p.V3Address, c, f.Bank)
	f.Venues = venue.NewSet(f.V2, f.V3)
	f.Executor = router.NewExecutor(c, f.Bank, f.Venues)

	f.Router, err = router.New(c, router.Config{
		Address:        routerAddr,
		Owner:          p.Deployer,
		Settlement:     p.Settlement,
		MaxSlippageBps: p.MaxSlippageBps,
		SwapWindow:     p.SwapWindow,
	}, f.Ledger, f.Registry, f.Bank, f.Executor)
	if err != nil {
		return nil, fmt.Errorf("deploy router: %w", err)
	}

	if err := f.Ledger.SetManager(ctx, p.Deployer, routerAddr, true); err != nil {
		return nil, fmt.Errorf("grant router manager: %w", err)
	}
	for _, e := range p.Basket {
		cfg, ok := p.Routes[e.Asset]
		if !ok {
			continue
		}
		if err := f.Router.SetAssetConfig(ctx, p.Deployer, e.Asset, cfg.UseV3, cfg.Fee); err != nil {
			return nil, fmt.Errorf("route %s: %w", e.Asset.Hex(), err)
		}
	}
	return f, nil
}

func (f *Fund) Deployer() common.Address { return f.deployer }

func (f *Fund) registerTokens() {
	f.Bank.Register(f.params.Settlement, f.params.SettlementSymbol, 18)
	for _, e := range f.params.Basket {
		f.Bank.Register(e.Asset, e.Symbol, f.decimals(e.Asset))
	}
}

func (f *Fund) decimals(asset common.Address) uint8 {
	if d, ok := f.params.Decimals[asset]; ok && d > 0 {
		return d
	}
	return 18
}

func (f *Fund) Symbol() string { return f.Ledger.Symbol() }
