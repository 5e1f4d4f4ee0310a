package config

import (
	"fmt"
	"math"
	"time"

	"github.com/andrew-solarstorm/go-packages/common"
	ethcommon "github.com/ethereum/go-ethereum/common"

	appcommon "github.com/hxuan190/block-etf/internal/common"
)

type RouterConfig struct {
	Settlement ethcommon.Address

	MaxSlippageBps uint16
	SwapWindow     time.Duration

	// Venue router addresses. Pools are derived from them.
	V2Router ethcommon.Address
	V3Router ethcommon.Address
	V2FeeBps uint16

	// SeedLiquidity creates venue pools with genesis reserves on first start.
	SeedLiquidity bool
	// FaucetEnabled exposes settlement token minting over HTTP.
	FaucetEnabled bool
}

func (c *RouterConfig) Key() string {
	return ROUTER_CONFIG_KEY
}

func (c *RouterConfig) Load() error {
	var err error
	if c.Settlement, err = envAddress("ROUTER_SETTLEMENT_TOKEN", appcommon.USDT); err != nil {
		return err
	}
	if c.V2Router, err = envAddress("ROUTER_V2_ADDRESS", appcommon.PancakeV2Router); err != nil {
		return err
	}
	if c.V3Router, err = envAddress("ROUTER_V3_ADDRESS", appcommon.PancakeV3Router); err != nil {
		return err
	}
	if c.MaxSlippageBps, err = envBps("ROUTER_MAX_SLIPPAGE_BPS", appcommon.DefaultMaxSlippageBps); err != nil {
		return err
	}
	c.SwapWindow = time.Duration(common.GetEnvOrDefaultInt("ROUTER_SWAP_WINDOW_SECONDS", 300)) * time.Second
	if c.V2FeeBps, err = envBps("ROUTER_V2_FEE_BPS", appcommon.V2FeeBps); err != nil {
		return err
	}
	c.SeedLiquidity = common.GetEnvOrDefault("ROUTER_SEED_LIQUIDITY", "true") == "true"
	c.FaucetEnabled = common.GetEnvOrDefault("ROUTER_FAUCET_ENABLED", "false") == "true"
	return c.Validate()
}

func (c *RouterConfig) Validate() error {
	if c.MaxSlippageBps > appcommon.MaxSlippageCapBps {
		return fmt.Errorf("max slippage %d bps exceeds %d", c.MaxSlippageBps, appcommon.MaxSlippageCapBps)
	}
	if c.SwapWindow <= 0 {
		return fmt.Errorf("swap window must be positive")
	}
	if c.V2FeeBps >= 10_000 {
		return fmt.Errorf("v2 fee %d bps out of range", c.V2FeeBps)
	}
	if c.Settlement == (ethcommon.Address{}) || c.V2Router == (ethcommon.Address{}) || c.V3Router == (ethcommon.Address{}) {
		return fmt.Errorf("router addresses must be set")
	}
	if c.V2Router == c.V3Router {
		return fmt.Errorf("v2 and v3 venues share address %s", c.V2Router.Hex())
	}
	return nil
}

// envBps reads a basis-point value, rejecting anything a uint16 would wrap.
func envBps(key string, fallback uint16) (uint16, error) {
	v := common.GetEnvOrDefaultInt(key, int(fallback))
	if v < 0 || v > math.MaxUint16 {
		return 0, fmt.Errorf("%s: %d bps out of range", key, v)
	}
	return uint16(v), nil
}

func envAddress(key string, fallback ethcommon.Address) (ethcommon.Address, error) {
	raw := common.GetEnvOrDefault(key, fallback.Hex())
	if !ethcommon.IsHexAddress(raw) {
		return ethcommon.Address{}, fmt.Errorf("%s: invalid address %q", key, raw)
	}
	return ethcommon.HexToAddress(raw), nil
}
