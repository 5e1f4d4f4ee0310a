// Package registry stores which venue each basket asset is routed through.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hxuan190/block-etf/internal/domain"
	"github.com/hxuan190/block-etf/internal/services/chain"
)

// Entry pairs an asset with its stored config.
type Entry struct {
	Asset  common.Address     `json:"asset"`
	Config domain.AssetConfig `json:"config"`
}

type Registry struct {
	chain *chain.Chain
	owner common.Address

	mu      sync.RWMutex
	configs map[common.Address]domain.AssetConfig
}

// New creates a registry writable only by owner. The router deploys it with itself as owner.
func New(c *chain.Chain, owner common.Address) *Registry {
	return &Registry{
		chain:   c,
		owner:   owner,
		configs: make(map[common.Address]domain.AssetConfig),
	}
}

func (r *Registry) Owner() common.Address { return r.owner }

func (r *Registry) SetAssetConfig(ctx context.Context, caller, asset common.Address, useV3 bool, fee uint32) error {
	return r.chain.Call(ctx, func(ctx context.Context) error {
		if caller != r.owner {
			return fmt.Errorf("%w: %s does not own the asset registry", domain.ErrUnauthorized, caller.Hex())
		}
		if asset == (common.Address{}) {
			return fmt.Errorf("asset config: %w", domain.ErrZeroAddress)
		}
		cfg, err := domain.NewAssetConfig(useV3, fee)
		if err != nil {
			return err
		}

		r.mu.Lock()
		prev, had := r.configs[asset]
		r.configs[asset] = cfg
		r.mu.Unlock()

		return r.chain.Record(ctx, func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if had {
				r.configs[asset] = prev
			} else {
				delete(r.configs, asset)
			}
		})
	})
}

// AssetConfig returns the stored config, or the V2 default when the asset was never configured.
func (r *Registry) AssetConfig(asset common.Address) domain.AssetConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.configs[asset]
}

// Routes lists every configured asset in address order.
func (r *Registry) Routes() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.configs))
	for asset, cfg := range r.configs {
		out = append(out, Entry{Asset: asset, Config: cfg})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Asset.Cmp(out[j].Asset) < 0 })
	return out
}

// Restore replaces every stored config. Invalid fee tiers are rejected.
func (r *Registry) Restore(entries []Entry) error {
	configs := make(map[common.Address]domain.AssetConfig, len(entries))
	for _, e := range entries {
		cfg, err := domain.NewAssetConfig(e.Config.UseV3, e.Config.Fee)
		if err != nil {
			return fmt.Errorf("restore %s: %w", e.Asset.Hex(), err)
		}
		configs[e.Asset] = cfg
	}
	r.mu.Lock()
	r.configs = configs
	r.mu.Unlock()
	return nil
}
