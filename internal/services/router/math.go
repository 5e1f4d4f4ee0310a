package router

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/hxuan190/block-etf/internal/domain"
)

var ErrMathOverflow = errors.New("fixed-point overflow")

// Pre-computed constants (avoid allocation on every call)
var (
	// BPS_DENOM = 10000 for basis points
	BPS_DENOM = uint256.NewInt(10_000)
)

// MulDivDown returns floor(x*y/d) with a 512-bit intermediate product.
// A zero divisor is a parameter error; a result above 2^256-1 is ErrMathOverflow.
func MulDivDown(x, y, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, fmt.Errorf("%w: division by zero", domain.ErrInvalidParameter)
	}
	z, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, fmt.Errorf("%w: %s * %s / %s", ErrMathOverflow, x.Dec(), y.Dec(), d.Dec())
	}
	return z, nil
}

// MulDivSaturating is MulDivDown clamped to the uint256 maximum. Used for read-only estimates.
func MulDivSaturating(x, y, d *uint256.Int) *uint256.Int {
	if d.IsZero() {
		return new(uint256.Int)
	}
	z, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return new(uint256.Int).SetAllOne()
	}
	return z
}

// WeightedPortion is amount * weight / 1e18, truncated toward zero.
func WeightedPortion(amount, weight *uint256.Int) (*uint256.Int, error) {
	return MulDivDown(amount, weight, domain.Wad)
}

// ApplySlippage returns the minimum acceptable output for a reference amount:
// amount * (10000 - bps) / 10000, truncated. bps above 10000 yields zero.
func ApplySlippage(amount *uint256.Int, bps uint16) *uint256.Int {
	if uint64(bps) >= BPS_DENOM.Uint64() {
		return new(uint256.Int)
	}
	keep := uint256.NewInt(BPS_DENOM.Uint64() - uint64(bps))
	z, _ := new(uint256.Int).MulDivOverflow(amount, keep, BPS_DENOM)
	return z
}

// checkedAdd accumulates v into acc.
func checkedAdd(acc, v *uint256.Int) error {
	if _, overflow := acc.AddOverflow(acc, v); overflow {
		return fmt.Errorf("%w: sum", ErrMathOverflow)
	}
	return nil
}
