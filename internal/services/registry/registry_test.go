package registry

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/block-etf/internal/domain"
	"github.com/hxuan190/block-etf/internal/services/chain"
)

var (
	owner    = common.HexToAddress("0x0000000000000000000000000000000000000A01")
	stranger = common.HexToAddress("0x0000000000000000000000000000000000000C03")
	asset    = common.HexToAddress("0x1234567890123456789012345678901234567890")
)

func TestSetAssetConfigFeeTiers(t *testing.T) {
	cases := []struct {
		name    string
		useV3   bool
		fee     uint32
		want    domain.AssetConfig
		wantErr error
	}{
		{"v3 2500", true, 2500, domain.AssetConfig{UseV3: true, Fee: 2500}, nil},
		{"v3 3000", true, 3000, domain.AssetConfig{UseV3: true, Fee: 3000}, nil},
		{"v3 100", true, 100, domain.AssetConfig{UseV3: true, Fee: 100}, nil},
		{"v3 10000", true, 10000, domain.AssetConfig{UseV3: true, Fee: 10000}, nil},
		{"v3 unknown", true, 1234, domain.AssetConfig{}, domain.ErrInvalidParameter},
		{"v3 zero", true, 0, domain.AssetConfig{}, domain.ErrInvalidFeeTier},
		{"v2 ignores fee", false, 1234, domain.AssetConfig{}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := New(chain.New(), owner)
			err := r.SetAssetConfig(context.Background(), owner, asset, tc.useV3, tc.fee)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.want, r.AssetConfig(asset))
		})
	}
}

func TestSetAssetConfigOwnerOnly(t *testing.T) {
	r := New(chain.New(), owner)
	err := r.SetAssetConfig(context.Background(), stranger, asset, true, 2500)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, domain.AssetConfig{}, r.AssetConfig(asset))
}

func TestDefaultConfigIsV2(t *testing.T) {
	r := New(chain.New(), owner)
	cfg := r.AssetConfig(asset)
	assert.False(t, cfg.UseV3)
	assert.Zero(t, cfg.Fee)
	assert.Equal(t, domain.Route{Venue: domain.VenueV2}, cfg.Route())
}

func TestInvalidUpdateKeepsPrevious(t *testing.T) {
	ctx := context.Background()
	r := New(chain.New(), owner)
	require.NoError(t, r.SetAssetConfig(ctx, owner, asset, true, 500))

	require.Error(t, r.SetAssetConfig(ctx, owner, asset, true, 42))
	assert.Equal(t, domain.AssetConfig{UseV3: true, Fee: 500}, r.AssetConfig(asset))
}

func TestRoutesAndRestore(t *testing.T) {
	ctx := context.Background()
	r := New(chain.New(), owner)
	other := common.HexToAddress("0x0000000000000000000000000000000000000001")
	require.NoError(t, r.SetAssetConfig(ctx, owner, asset, true, 2500))
	require.NoError(t, r.SetAssetConfig(ctx, owner, other, false, 0))

	routes := r.Routes()
	require.Len(t, routes, 2)
	assert.Equal(t, other, routes[0].Asset)

	restored := New(chain.New(), owner)
	require.NoError(t, restored.Restore(routes))
	assert.Equal(t, r.AssetConfig(asset), restored.AssetConfig(asset))

	err := restored.Restore([]Entry{{Asset: asset, Config: domain.AssetConfig{UseV3: true, Fee: 7}}})
	assert.ErrorIs(t, err, domain.ErrInvalidFeeTier)
}
