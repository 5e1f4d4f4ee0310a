package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// LegQuote is the reference quote for one basket asset.
type LegQuote struct {
	Asset        common.Address `json:"asset"`
	Route        Route          `json:"route"`
	AmountIn     *uint256.Int   `json:"amountIn"`
	QuotedOut    *uint256.Int   `json:"quotedOut"`
	MinAmountOut *uint256.Int   `json:"minAmountOut"`

	PriceImpactBps uint16 `json:"priceImpactBps"`
	Severity       string `json:"severity"`
}

type DepositPreview struct {
	AmountIn       *uint256.Int `json:"amountIn"`
	ExpectedShares *uint256.Int `json:"expectedShares"`
	// MinShares is the share count if every leg fills exactly at its slippage floor.
	MinShares *uint256.Int `json:"minShares"`
	NAV       *uint256.Int `json:"nav"`
	Legs      []LegQuote   `json:"legs"`

	// PriceImpactBps is the worst leg's impact.
	PriceImpactBps uint16 `json:"priceImpactBps"`
	Warning        string `json:"warning,omitempty"`
}

type RedeemPreview struct {
	Shares         *uint256.Int `json:"shares"`
	ExpectedAmount *uint256.Int `json:"expectedAmount"`
	MinAmount      *uint256.Int `json:"minAmount"`
	Legs           []LegQuote   `json:"legs"`

	PriceImpactBps uint16 `json:"priceImpactBps"`
	Warning        string `json:"warning,omitempty"`
}
