package config

import (
	"fmt"
	"strings"

	"github.com/andrew-solarstorm/go-packages/common"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/viper"

	appcommon "github.com/hxuan190/block-etf/internal/common"
	"github.com/hxuan190/block-etf/internal/domain"
)

// Hardhat account #0, used as deployer when none is configured.
const defaultDeployer = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

type FundConfig struct {
	Name     string
	Symbol   string
	Deployer ethcommon.Address

	// BasketFile is an optional YAML/JSON/TOML file describing the basket.
	// Empty means the built-in BSC basket.
	BasketFile string

	Basket   domain.Basket
	Routes   map[ethcommon.Address]domain.AssetConfig
	Decimals map[ethcommon.Address]uint8
}

// BasketAsset is one entry of the basket file.
type BasketAsset struct {
	Address  string `mapstructure:"address"`
	Symbol   string `mapstructure:"symbol"`
	Decimals uint8  `mapstructure:"decimals"`
	// Weight is a decimal fraction ("0.25") or an integer in 1e18 units.
	Weight string `mapstructure:"weight"`
	UseV3  bool   `mapstructure:"useV3"`
	Fee    uint32 `mapstructure:"fee"`
}

func (c *FundConfig) Key() string {
	return FUND_CONFIG_KEY
}

func (c *FundConfig) Load() error {
	c.Name = common.GetEnvOrDefault("FUND_NAME", appcommon.FundName)
	c.Symbol = common.GetEnvOrDefault("FUND_SYMBOL", appcommon.FundSymbol)
	c.BasketFile = common.GetEnvOrDefault("FUND_BASKET_FILE", "")

	deployer := common.GetEnvOrDefault("FUND_DEPLOYER", defaultDeployer)
	if !ethcommon.IsHexAddress(deployer) {
		return fmt.Errorf("FUND_DEPLOYER: invalid address %q", deployer)
	}
	c.Deployer = ethcommon.HexToAddress(deployer)

	if c.BasketFile == "" {
		c.useDefaultBasket()
	} else if err := c.loadBasketFile(c.BasketFile); err != nil {
		return err
	}
	return c.Validate()
}

func (c *FundConfig) Validate() error {
	if c.Name == "" || c.Symbol == "" {
		return fmt.Errorf("fund name and symbol are required")
	}
	if c.Deployer == (ethcommon.Address{}) {
		return fmt.Errorf("fund deployer must be set")
	}
	if err := c.Basket.Validate(); err != nil {
		return err
	}
	for asset, cfg := range c.Routes {
		if _, err := domain.NewAssetConfig(cfg.UseV3, cfg.Fee); err != nil {
			return fmt.Errorf("route for %s: %w", asset.Hex(), err)
		}
	}
	return nil
}

func (c *FundConfig) useDefaultBasket() {
	c.Basket = appcommon.DefaultBasket()
	c.Routes = appcommon.DefaultAssetConfigs()
	c.Decimals = make(map[ethcommon.Address]uint8, len(c.Basket))
	for _, e := range c.Basket {
		c.Decimals[e.Asset] = 18
	}
}

func (c *FundConfig) loadBasketFile(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read basket file %s: %w", path, err)
	}
	if name := v.GetString("name"); name != "" {
		c.Name = name
	}
	if symbol := v.GetString("symbol"); symbol != "" {
		c.Symbol = symbol
	}

	var assets []BasketAsset
	if err := v.UnmarshalKey("assets", &assets); err != nil {
		return fmt.Errorf("decode basket file %s: %w", path, err)
	}
	basket, routes, decimals, err := ParseBasket(assets)
	if err != nil {
		return fmt.Errorf("basket file %s: %w", path, err)
	}
	c.Basket, c.Routes, c.Decimals = basket, routes, decimals
	return nil
}

// ParseBasket converts basket file entries into the ledger weight table and the initial route table.
func ParseBasket(assets []BasketAsset) (domain.Basket, map[ethcommon.Address]domain.AssetConfig, map[ethcommon.Address]uint8, error) {
	basket := make(domain.Basket, 0, len(assets))
	routes := make(map[ethcommon.Address]domain.AssetConfig, len(assets))
	decimals := make(map[ethcommon.Address]uint8, len(assets))
	for i, a := range assets {
		if !ethcommon.IsHexAddress(a.Address) {
			return nil, nil, nil, fmt.Errorf("asset %d: invalid address %q", i, a.Address)
		}
		addr := ethcommon.HexToAddress(a.Address)
		w, err := ParseWeight(a.Weight)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("asset %s: %w", addr.Hex(), err)
		}
		route, err := domain.NewAssetConfig(a.UseV3, a.Fee)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("asset %s: %w", addr.Hex(), err)
		}
		basket = append(basket, domain.WeightEntry{Asset: addr, Symbol: a.Symbol, Weight: w})
		routes[addr] = route
		decimals[addr] = a.Decimals
		if decimals[addr] == 0 {
			decimals[addr] = 18
		}
	}
	return basket, routes, decimals, basket.Validate()
}

// ParseWeight reads a weight as a decimal fraction of one ("0.3") or as raw 1e18 units ("300000000000000000").
func ParseWeight(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty weight", domain.ErrInvalidParameter)
	}
	whole, frac, isFraction := strings.Cut(s, ".")
	if !isFraction {
		w, err := uint256.FromDecimal(s)
		if err != nil {
			return nil, fmt.Errorf("%w: weight %q", domain.ErrInvalidParameter, s)
		}
		return w, nil
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 18 {
		return nil, fmt.Errorf("%w: weight %q has more than 18 decimals", domain.ErrInvalidParameter, s)
	}
	w, err := uint256.FromDecimal(whole + frac + strings.Repeat("0", 18-len(frac)))
	if err != nil {
		return nil, fmt.Errorf("%w: weight %q", domain.ErrInvalidParameter, s)
	}
	return w, nil
}
