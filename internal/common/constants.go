// Package common contains common constants and variables used across services
package common

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/hxuan190/block-etf/internal/domain"
)

// BNB Smart Chain mainnet addresses
var (
	USDT = common.HexToAddress("0x55d398326f99059fF775485246999027B3197955")
	BTCB = common.HexToAddress("0x7130d2A12B9BCbFAe4f2634d864A1Ee1Ce3Ead9c")
	ETH  = common.HexToAddress("0x2170Ed0880ac9A755fd29B2688956BD959F933F8")
	WBNB = common.HexToAddress("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c")
	XRP  = common.HexToAddress("0x1D2F0da169ceB9fC7B3144628dB156f3F6c60dBE")
	SOL  = common.HexToAddress("0x570A5D26f7765Ecb712C0924E4De545B89fD43dF")

	PancakeV2Router = common.HexToAddress("0x10ED43C718714eb63d5aA57B78B54704E256024E")
	PancakeV3Router = common.HexToAddress("0x13f4EA83D0bd40E75C8222255bc855a974568Dd4")
)

const (
	FundName   = "Block ETF Token"
	FundSymbol = "bETF"

	DefaultMaxSlippageBps uint16 = 300
	MaxSlippageCapBps     uint16 = 1000
	DefaultV3FeeTier      uint32 = 2500
	// PancakeSwap V2 pairs charge 0.25%.
	V2FeeBps uint16 = 25
)

// weight returns pct percent of one Wad.
func weight(pct uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(pct), uint256.NewInt(10_000_000_000_000_000))
}

// DefaultBasket is the BSC basket: BTCB 30%, ETH 25%, WBNB 20%, XRP 15%, SOL 10%.
func DefaultBasket() domain.Basket {
	return domain.Basket{
		{Asset: BTCB, Symbol: "BTCB", Weight: weight(30)},
		{Asset: ETH, Symbol: "ETH", Weight: weight(25)},
		{Asset: WBNB, Symbol: "WBNB", Weight: weight(20)},
		{Asset: XRP, Symbol: "XRP", Weight: weight(15)},
		{Asset: SOL, Symbol: "SOL", Weight: weight(10)},
	}
}

// DefaultAssetConfigs routes WBNB through V2 and every other basket asset through the V3 0.25% tier.
func DefaultAssetConfigs() map[common.Address]domain.AssetConfig {
	v3 := domain.AssetConfig{UseV3: true, Fee: DefaultV3FeeTier}
	return map[common.Address]domain.AssetConfig{
		BTCB: v3,
		ETH:  v3,
		WBNB: {},
		XRP:  v3,
		SOL:  v3,
	}
}
