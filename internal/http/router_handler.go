package http

import (
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/block-etf/internal/etf"
	"github.com/hxuan190/block-etf/internal/http/httputil"
	"github.com/hxuan190/block-etf/internal/http/middlewares"
	"github.com/hxuan190/block-etf/internal/services/router"
)

type RouterHandler struct {
	fund *etf.Fund
}

func NewRouterHandler(fund *etf.Fund) *RouterHandler {
	return &RouterHandler{fund: fund}
}

func (h *RouterHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.getRouter)
	pub.GET("/assets/:address", h.getAssetConfig)
	pub.GET("/preview/deposit", h.previewDeposit)
	pub.GET("/preview/redeem", h.previewRedeem)

	private.POST("/deposit", h.deposit)
	private.POST("/redeem", h.redeem)

	admin.POST("/asset-config", h.setAssetConfig)
	admin.POST("/max-slippage", h.setMaxSlippage)
	admin.POST("/paused", h.setPaused)
	admin.POST("/owner", h.transferOwnership)
}

func (h *RouterHandler) Root() string {
	return "/router"
}

// RouterStateResponse is the router's admin state and basket holdings
type RouterStateResponse struct {
	Address    string `json:"address"`
	Owner      string `json:"owner"`
	Settlement string `json:"settlement"`

	// Maximum slippage applied to every swap leg, in basis points (max 1000)
	MaxSlippageBps uint16 `json:"maxSlippageBps" example:"300"`

	Paused   bool             `json:"paused" example:"false"`
	Holdings []router.Holding `json:"holdings"`
}

// @Summary Router state
// @Tags router
// @Produce json
// @Success 200 {object} httputil.Response{data=RouterStateResponse}
// @Router /api/v1/router [get]
func (h *RouterHandler) getRouter(c *gin.Context) {
	r := h.fund.Router
	httputil.Success(c, RouterStateResponse{
		Address:        r.Address().Hex(),
		Owner:          r.Owner().Hex(),
		Settlement:     r.Settlement().Hex(),
		MaxSlippageBps: r.MaxSlippage(),
		Paused:         r.Paused(),
		Holdings:       r.Holdings(),
	})
}

type AssetConfigResponse struct {
	Asset string `json:"asset"`
	UseV3 bool   `json:"useV3"`
	Fee   uint32 `json:"fee" example:"2500"`
	Route string `json:"route" example:"V3/2500"`
}

func (h *RouterHandler) getAssetConfig(c *gin.Context) {
	asset, err := parseAddress(c.Param("address"))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	cfg := h.fund.Router.AssetConfigs(asset)
	httputil.Success(c, AssetConfigResponse{Asset: asset.Hex(), UseV3: cfg.UseV3, Fee: cfg.Fee, Route: cfg.Route().String()})
}

// @Summary Preview a deposit
// @Description Splits amount across the basket at target weights and quotes every leg.
// @Description expectedShares is what a deposit mints if pools do not move, minShares
// @Description assumes every leg fills at its slippage floor. Use it as minSharesOut.
// @Tags router
// @Produce json
// @Param amount query string true "Settlement token amount in base units" example("1000000000000000000000")
// @Success 200 {object} httputil.Response{data=domain.DepositPreview}
// @Failure 400 {object} httputil.Response
// @Router /api/v1/router/preview/deposit [get]
func (h *RouterHandler) previewDeposit(c *gin.Context) {
	amount, err := parseAmount(c.Query("amount"))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	preview, err := h.fund.Router.PreviewDeposit(c.Request.Context(), amount)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Success(c, preview)
}

// @Summary Preview a redemption
// @Tags router
// @Produce json
// @Param shares query string true "Shares to burn in base units"
// @Success 200 {object} httputil.Response{data=domain.RedeemPreview}
// @Failure 400 {object} httputil.Response
// @Failure 422 {object} httputil.Response "Shares exceed supply"
// @Router /api/v1/router/preview/redeem [get]
func (h *RouterHandler) previewRedeem(c *gin.Context) {
	shares, err := parseAmount(c.Query("shares"))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	preview, err := h.fund.Router.PreviewRedeem(c.Request.Context(), shares)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Success(c, preview)
}

// DepositRequest buys the basket with the settlement token.
// The router pulls amountIn through the caller's allowance.
type DepositRequest struct {
	AmountIn string `json:"amountIn" binding:"required" example:"1000000000000000000000"`
	// Optional. Deposit reverts if fewer shares would be minted.
	MinSharesOut string `json:"minSharesOut" example:"990000000000000000000"`
}

// @Summary Deposit settlement token for fund shares
// @Tags router
// @Accept json
// @Produce json
// @Param X-Wallet-Address header string true "Depositor"
// @Param request body DepositRequest true "Deposit"
// @Success 200 {object} httputil.Response{data=domain.DepositReceipt}
// @Failure 400 {object} httputil.Response "Invalid amount"
// @Failure 409 {object} httputil.Response "Paused or slippage exceeded"
// @Failure 422 {object} httputil.Response "Allowance, balance or swap failure"
// @Router /api/v1/router/deposit [post]
func (h *RouterHandler) deposit(c *gin.Context) {
	caller, _ := middlewares.Caller(c)
	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}
	amountIn, err := parseAmount(req.AmountIn)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	minShares, err := parseOptionalAmount(req.MinSharesOut)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	receipt, err := h.fund.Router.Deposit(c.Request.Context(), caller, amountIn, minShares)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Success(c, receipt)
}

type RedeemRequest struct {
	Shares string `json:"shares" binding:"required" example:"500000000000000000000"`
	// Optional. Redeem reverts if fewer settlement tokens would be paid out.
	MinAmountOut string `json:"minAmountOut" example:"495000000000000000000"`
}

// @Summary Redeem fund shares for settlement token
// @Tags router
// @Accept json
// @Produce json
// @Param X-Wallet-Address header string true "Share holder"
// @Param request body RedeemRequest true "Redeem"
// @Success 200 {object} httputil.Response{data=domain.RedeemReceipt}
// @Failure 409 {object} httputil.Response "Paused or slippage exceeded"
// @Failure 422 {object} httputil.Response "Insufficient shares or swap failure"
// @Router /api/v1/router/redeem [post]
func (h *RouterHandler) redeem(c *gin.Context) {
	caller, _ := middlewares.Caller(c)
	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}
	shares, err := parseAmount(req.Shares)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	minOut, err := parseOptionalAmount(req.MinAmountOut)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	receipt, err := h.fund.Router.Redeem(c.Request.Context(), caller, shares, minOut)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Success(c, receipt)
}

type SetAssetConfigRequest struct {
	Asset string `json:"asset" binding:"required"`
	UseV3 bool   `json:"useV3"`
	Fee   uint32 `json:"fee" example:"2500"`
}

func (h *RouterHandler) setAssetConfig(c *gin.Context) {
	caller, _ := middlewares.Caller(c)
	var req SetAssetConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}
	asset, err := parseAddress(req.Asset)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	if err := h.fund.Router.SetAssetConfig(c.Request.Context(), caller, asset, req.UseV3, req.Fee); err != nil {
		httputil.Fail(c, err)
		return
	}
	cfg := h.fund.Router.AssetConfigs(asset)
	httputil.Success(c, AssetConfigResponse{Asset: asset.Hex(), UseV3: cfg.UseV3, Fee: cfg.Fee, Route: cfg.Route().String()})
}

type SetMaxSlippageRequest struct {
	Bps *uint16 `json:"bps" binding:"required" example:"500"`
}

func (h *RouterHandler) setMaxSlippage(c *gin.Context) {
	caller, _ := middlewares.Caller(c)
	var req SetMaxSlippageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}
	if err := h.fund.Router.SetMaxSlippage(c.Request.Context(), caller, *req.Bps); err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Success(c, gin.H{"maxSlippageBps": h.fund.Router.MaxSlippage()})
}

type SetPausedRequest struct {
	Paused bool `json:"paused"`
}

func (h *RouterHandler) setPaused(c *gin.Context) {
	caller, _ := middlewares.Caller(c)
	var req SetPausedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}
	if err := h.fund.Router.SetPaused(c.Request.Context(), caller, req.Paused); err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Success(c, gin.H{"paused": h.fund.Router.Paused()})
}

type TransferOwnershipRequest struct {
	Owner string `json:"owner" binding:"required"`
}

func (h *RouterHandler) transferOwnership(c *gin.Context) {
	caller, _ := middlewares.Caller(c)
	var req TransferOwnershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}
	owner, err := parseAddress(req.Owner)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	if err := h.fund.Router.TransferOwnership(c.Request.Context(), caller, owner); err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Success(c, gin.H{"owner": h.fund.Router.Owner().Hex()})
}
