package http

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/hxuan190/block-etf/internal/domain"
)

func parseAddress(raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%w: address %q", domain.ErrInvalidParameter, raw)
	}
	return common.HexToAddress(raw), nil
}

// parseAmount reads a base-unit amount as a decimal string.
func parseAmount(raw string) (*uint256.Int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: amount is required", domain.ErrInvalidParameter)
	}
	v, err := uint256.FromDecimal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: amount %q", domain.ErrInvalidParameter, raw)
	}
	return v, nil
}

// parseOptionalAmount is parseAmount that maps an empty string to nil.
func parseOptionalAmount(raw string) (*uint256.Int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	return parseAmount(raw)
}
