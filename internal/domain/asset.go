package domain

import (
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Wad is one unit in 18-decimal fixed point.
var Wad = uint256.NewInt(1_000_000_000_000_000_000)

type VenueKind uint8

const (
	VenueV2 VenueKind = iota
	VenueV3
)

func (v VenueKind) String() string {
	switch v {
	case VenueV2:
		return "V2"
	case VenueV3:
		return "V3"
	default:
		return "UNKNOWN"
	}
}

// Fee tiers accepted for V3 routing, in hundredths of a basis point.
var FeeTiers = []uint32{100, 500, 2500, 3000, 10000}

func IsFeeTier(fee uint32) bool {
	return slices.Contains(FeeTiers, fee)
}

// AssetConfig is the per-asset venue selection. Fee is only meaningful when UseV3 is set.
type AssetConfig struct {
	UseV3 bool   `json:"useV3"`
	Fee   uint32 `json:"fee"`
}

func NewAssetConfig(useV3 bool, fee uint32) (AssetConfig, error) {
	if !useV3 {
		return AssetConfig{}, nil
	}
	if !IsFeeTier(fee) {
		return AssetConfig{}, fmt.Errorf("%w: %d", ErrInvalidFeeTier, fee)
	}
	return AssetConfig{UseV3: true, Fee: fee}, nil
}

// Route returns the venue variant the config dispatches to.
func (c AssetConfig) Route() Route {
	if c.UseV3 {
		return Route{Venue: VenueV3, FeeTier: c.Fee}
	}
	return Route{Venue: VenueV2}
}

// Route is the tagged venue variant {V2, V3(feeTier)}.
type Route struct {
	Venue   VenueKind `json:"venue"`
	FeeTier uint32    `json:"feeTier,omitempty"`
}

func (r Route) String() string {
	if r.Venue == VenueV3 {
		return fmt.Sprintf("V3/%d", r.FeeTier)
	}
	return r.Venue.String()
}

type WeightEntry struct {
	Asset  common.Address `json:"asset"`
	Symbol string         `json:"symbol,omitempty"`
	Weight *uint256.Int   `json:"weight"`
}

// Basket is an ordered target-weight table.
type Basket []WeightEntry

// Validate checks that the basket is non-empty, has no duplicate or zero assets
// and that the weights sum to exactly one Wad.
func (b Basket) Validate() error {
	if len(b) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidBasket)
	}
	seen := make(map[common.Address]struct{}, len(b))
	total := new(uint256.Int)
	for _, e := range b {
		if e.Asset == (common.Address{}) {
			return fmt.Errorf("%w: zero asset address", ErrInvalidBasket)
		}
		if _, ok := seen[e.Asset]; ok {
			return fmt.Errorf("%w: duplicate asset %s", ErrInvalidBasket, e.Asset.Hex())
		}
		seen[e.Asset] = struct{}{}
		if e.Weight == nil {
			return fmt.Errorf("%w: nil weight for %s", ErrInvalidBasket, e.Asset.Hex())
		}
		if _, overflow := total.AddOverflow(total, e.Weight); overflow {
			return fmt.Errorf("%w: weight overflow", ErrInvalidBasket)
		}
	}
	if !total.Eq(Wad) {
		return fmt.Errorf("%w: weights sum to %s, want %s", ErrInvalidBasket, total.Dec(), Wad.Dec())
	}
	return nil
}

// Clone deep-copies the basket so callers cannot mutate stored weights.
func (b Basket) Clone() Basket {
	out := make(Basket, len(b))
	for i, e := range b {
		out[i] = WeightEntry{Asset: e.Asset, Symbol: e.Symbol, Weight: e.Weight.Clone()}
	}
	return out
}

func (b Basket) Assets() []common.Address {
	out := make([]common.Address, len(b))
	for i, e := range b {
		out[i] = e.Asset
	}
	return out
}

func (b Basket) Weights() []*uint256.Int {
	out := make([]*uint256.Int, len(b))
	for i, e := range b {
		out[i] = e.Weight.Clone()
	}
	return out
}
