package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// SwapRequest is what the router hands to a venue for a single exact-input swap.
type SwapRequest struct {
	Route Route

	TokenIn  common.Address
	TokenOut common.Address

	AmountIn     *uint256.Int
	MinAmountOut *uint256.Int

	// Payer must have approved the venue for AmountIn of TokenIn.
	Payer     common.Address
	Recipient common.Address

	Deadline time.Time
}

// SwapLeg records one per-asset trade of a deposit or redeem.
type SwapLeg struct {
	Asset        common.Address `json:"asset"`
	Route        Route          `json:"route"`
	AmountIn     *uint256.Int   `json:"amountIn"`
	QuotedOut    *uint256.Int   `json:"quotedOut"`
	MinAmountOut *uint256.Int   `json:"minAmountOut"`
	AmountOut    *uint256.Int   `json:"amountOut"`
}

type DepositReceipt struct {
	ID           string         `json:"id"`
	Caller       common.Address `json:"caller"`
	AmountIn     *uint256.Int   `json:"amountIn"`
	Value        *uint256.Int   `json:"value"`
	NAVBefore    *uint256.Int   `json:"navBefore"`
	SharesMinted *uint256.Int   `json:"sharesMinted"`
	Legs         []SwapLeg      `json:"legs"`
	Timestamp    time.Time      `json:"timestamp"`
}

type RedeemReceipt struct {
	ID           string         `json:"id"`
	Caller       common.Address `json:"caller"`
	SharesBurned *uint256.Int   `json:"sharesBurned"`
	AmountOut    *uint256.Int   `json:"amountOut"`
	Legs         []SwapLeg      `json:"legs"`
	Timestamp    time.Time      `json:"timestamp"`
}
