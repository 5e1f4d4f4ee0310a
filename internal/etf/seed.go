package etf

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	appcommon "github.com/hxuan190/block-etf/internal/common"
	"github.com/hxuan190/block-etf/internal/domain"
)

// DevPrices are the settlement-token prices pools are seeded at, by symbol.
var DevPrices = map[string]float64{
	"BTCB": 60_000,
	"ETH":  3_000,
	"WBNB": 600,
	"XRP":  0.5,
	"SOL":  150,
}

// Settlement-side depth of every seeded pool, in whole tokens.
const devPoolDepth = 10_000_000

// SeedLiquidity creates a V2 pool and a V3 pool for every basket asset against
// the settlement token. V3 pools use the asset's configured tier, or the default
// tier when the asset routes through V2. Unknown symbols are priced at 1.
func (f *Fund) SeedLiquidity(ctx context.Context) error {
	settlement := f.Router.Settlement()
	return f.Chain.Call(ctx, func(ctx context.Context) error {
		for _, e := range f.params.Basket {
			price, ok := DevPrices[e.Symbol]
			if !ok {
				price = 1
			}
			quoteSide := units(devPoolDepth, 18)
			baseSide, err := baseReserve(devPoolDepth, price, f.decimals(e.Asset))
			if err != nil {
				return fmt.Errorf("seed %s: %w", e.Symbol, err)
			}

			if _, err := f.V2.AddLiquidity(ctx, settlement, e.Asset, quoteSide, baseSide); err != nil {
				return fmt.Errorf("seed v2 %s: %w", e.Symbol, err)
			}
			tier := appcommon.DefaultV3FeeTier
			if cfg := f.Registry.AssetConfig(e.Asset); cfg.UseV3 {
				tier = cfg.Fee
			}
			if _, err := f.V3.AddLiquidity(ctx, settlement, e.Asset, tier, quoteSide.Clone(), baseSide.Clone()); err != nil {
				return fmt.Errorf("seed v3 %s: %w", e.Symbol, err)
			}
		}
		return nil
	})
}

// Faucet mints settlement tokens to a holder.
func (f *Fund) Faucet(ctx context.Context, to common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return domain.ErrZeroAmount
	}
	return f.Bank.Mint(ctx, f.Router.Settlement(), to, amount)
}

func units(n uint64, decimals uint8) *uint256.Int {
	scale := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(decimals)))
	return new(uint256.Int).Mul(uint256.NewInt(n), scale)
}

// baseReserve is depth/price whole tokens, kept to six decimal places of the price.
func baseReserve(depth uint64, price float64, decimals uint8) (*uint256.Int, error) {
	if price <= 0 {
		return nil, fmt.Errorf("%w: price %v", domain.ErrInvalidParameter, price)
	}
	micros := uint64(price * 1e6)
	if micros == 0 {
		return nil, fmt.Errorf("%w: price %v below precision", domain.ErrInvalidParameter, price)
	}
	num := new(uint256.Int).Mul(units(depth, decimals), uint256.NewInt(1_000_000))
	return num.Div(num, uint256.NewInt(micros)), nil
}
