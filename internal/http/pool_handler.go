package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/block-etf/internal/domain"
	"github.com/hxuan190/block-etf/internal/etf"
	"github.com/hxuan190/block-etf/internal/http/httputil"
)

type PoolHandler struct {
	fund *etf.Fund
}

func NewPoolHandler(fund *etf.Fund) *PoolHandler {
	return &PoolHandler{fund: fund}
}

func (h *PoolHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/stats", h.getStats)
	pub.GET("/list", h.listPools)
	pub.GET("/:address", h.getPool)
}

func (h *PoolHandler) Root() string {
	return "/pools"
}

// PoolStatsResponse counts the pools on each venue
type PoolStatsResponse struct {
	PoolCount int `json:"pool_count" example:"10"`

	V2Pools int `json:"v2_pools" example:"5"`
	V3Pools int `json:"v3_pools" example:"5"`

	// Committed state transitions since genesis
	Height uint64 `json:"height" example:"42"`
}

func (h *PoolHandler) getStats(c *gin.Context) {
	v2, v3 := len(h.fund.V2.Pools()), len(h.fund.V3.Pools())
	httputil.Success(c, PoolStatsResponse{
		PoolCount: v2 + v3,
		V2Pools:   v2,
		V3Pools:   v3,
		Height:    h.fund.Chain.Height(),
	})
}

// PoolInfo contains basic information about a liquidity pool
type PoolInfo struct {
	Address string `json:"address"`

	// Venue name: "V2" or "V3"
	Venue string `json:"venue" example:"V3"`

	Token0 string `json:"token0"`
	Token1 string `json:"token1"`

	// V3 fee tier in hundredths of a bip, zero on V2
	FeeTier uint32 `json:"fee_tier" example:"2500"`

	Active bool `json:"active" example:"true"`
}

// PoolListResponse contains paginated list of liquidity pools
type PoolListResponse struct {
	Pools []PoolInfo `json:"pools"`
	Total int        `json:"total" example:"10"`
	Page  int        `json:"page" example:"1"`
	Limit int        `json:"limit" example:"100"`
	Pages int        `json:"pages" example:"1"`
}

func (h *PoolHandler) allPools() []domain.Pool {
	return append(h.fund.V2.Pools(), h.fund.V3.Pools()...)
}

func (h *PoolHandler) listPools(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}

	allPools := h.allPools()
	total := len(allPools)

	pages := (total + limit - 1) / limit
	offset := (page - 1) * limit
	end := offset + limit
	if offset > total {
		offset = total
	}
	if end > total {
		end = total
	}

	pools := make([]PoolInfo, 0, end-offset)
	for _, pool := range allPools[offset:end] {
		pools = append(pools, PoolInfo{
			Address: pool.Address.Hex(),
			Venue:   pool.Venue.String(),
			Token0:  pool.Key.Token0.Hex(),
			Token1:  pool.Key.Token1.Hex(),
			FeeTier: pool.Key.FeeTier,
			Active:  pool.Active,
		})
	}

	httputil.Success(c, PoolListResponse{
		Pools: pools,
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: pages,
	})
}

// PoolDetailResponse adds the current reserves to PoolInfo
type PoolDetailResponse struct {
	PoolInfo

	// Reserves in base units, read from the pool's token balances
	Reserve0 string `json:"reserve0" example:"10000000000000000000000000"`
	Reserve1 string `json:"reserve1" example:"166666666666666666666"`

	// V2 swap fee in basis points
	FeeBps uint16 `json:"fee_bps,omitempty" example:"25"`
}

func (h *PoolHandler) getPool(c *gin.Context) {
	address, err := parseAddress(c.Param("address"))
	if err != nil {
		httputil.Fail(c, err)
		return
	}

	for _, pool := range h.allPools() {
		if pool.Address != address {
			continue
		}
		httputil.Success(c, PoolDetailResponse{
			PoolInfo: PoolInfo{
				Address: pool.Address.Hex(),
				Venue:   pool.Venue.String(),
				Token0:  pool.Key.Token0.Hex(),
				Token1:  pool.Key.Token1.Hex(),
				FeeTier: pool.Key.FeeTier,
				Active:  pool.Active,
			},
			Reserve0: h.fund.Bank.BalanceOf(pool.Key.Token0, pool.Address).Dec(),
			Reserve1: h.fund.Bank.BalanceOf(pool.Key.Token1, pool.Address).Dec(),
			FeeBps:   pool.FeeBps,
		})
		return
	}
	httputil.Error(c, http.StatusNotFound, "pool not found")
}
