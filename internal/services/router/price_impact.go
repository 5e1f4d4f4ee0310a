package router

import (
	"github.com/holiman/uint256"

	"github.com/hxuan190/block-etf/internal/domain"
)

// Price impact thresholds in basis points (bps)
const (
	PriceImpactLow      uint16 = 100  // 1% - Low impact
	PriceImpactModerate uint16 = 300  // 3% - Moderate impact
	PriceImpactHigh     uint16 = 500  // 5% - High impact
	PriceImpactExtreme  uint16 = 1000 // 10% - Extreme impact
)

// probeDivisor sizes the marginal trade used as the spot price reference.
var probeDivisor = uint256.NewInt(10_000)

// PriceImpactSeverity represents the severity level of price impact
type PriceImpactSeverity string

const (
	SeverityNone     PriceImpactSeverity = "none"     // < 1%
	SeverityLow      PriceImpactSeverity = "low"      // 1-3%
	SeverityModerate PriceImpactSeverity = "moderate" // 3-5%
	SeverityHigh     PriceImpactSeverity = "high"     // 5-10%
	SeverityExtreme  PriceImpactSeverity = "extreme"  // > 10%
)

// GetPriceImpactSeverity returns the severity level based on price impact bps
func GetPriceImpactSeverity(priceImpactBps uint16) PriceImpactSeverity {
	switch {
	case priceImpactBps < PriceImpactLow:
		return SeverityNone
	case priceImpactBps < PriceImpactModerate:
		return SeverityLow
	case priceImpactBps < PriceImpactHigh:
		return SeverityModerate
	case priceImpactBps < PriceImpactExtreme:
		return SeverityHigh
	default:
		return SeverityExtreme
	}
}

// probeAmount is the marginal input used to read the venue's spot price for a leg.
func probeAmount(amountIn *uint256.Int) *uint256.Int {
	p := new(uint256.Int).Div(amountIn, probeDivisor)
	if p.IsZero() {
		p.SetOne()
	}
	return p
}

// CalculatePriceImpact compares the leg's effective price (amountOut/amountIn) with
// the spot price read from a marginal probe quote (probeOut/probeIn):
// impact = (1 - effective/spot) * 10000. Fees are part of both prices and cancel out.
func CalculatePriceImpact(amountIn, amountOut, probeIn, probeOut *uint256.Int) uint16 {
	if amountIn == nil || amountOut == nil || probeIn == nil || probeOut == nil {
		return 0
	}
	if amountIn.IsZero() || probeIn.IsZero() || probeOut.IsZero() {
		return 0
	}

	effective := MulDivSaturating(amountOut, domain.Wad, amountIn)
	spot := MulDivSaturating(probeOut, domain.Wad, probeIn)
	if spot.IsZero() || effective.Cmp(spot) >= 0 {
		return 0
	}

	diff := new(uint256.Int).Sub(spot, effective)
	impact := MulDivSaturating(diff, BPS_DENOM, spot)

	// Cap at max uint16
	if !impact.IsUint64() || impact.Uint64() > 65535 {
		return 65535
	}
	return uint16(impact.Uint64())
}

// GetPriceImpactWarning returns a user-friendly warning message based on impact
func GetPriceImpactWarning(priceImpactBps uint16) string {
	switch GetPriceImpactSeverity(priceImpactBps) {
	case SeverityLow:
		return "Low price impact"
	case SeverityModerate:
		return "Moderate price impact - consider reducing trade size"
	case SeverityHigh:
		return "High price impact - the basket legs will fill well below spot"
	case SeverityExtreme:
		return "EXTREME price impact - the pools are too shallow for this size"
	default:
		return ""
	}
}
