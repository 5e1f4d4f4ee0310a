package http

import (
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/block-etf/internal/etf"
	"github.com/hxuan190/block-etf/internal/http/httputil"
	"github.com/hxuan190/block-etf/internal/http/middlewares"
)

type FundHandler struct {
	fund *etf.Fund
}

func NewFundHandler(fund *etf.Fund) *FundHandler {
	return &FundHandler{fund: fund}
}

func (h *FundHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.getFund)
	pub.GET("/weights", h.getWeights)
	pub.GET("/balance/:address", h.getBalance)
	private.POST("/transfer", h.transfer)
	admin.POST("/manager", h.setManager)
}

func (h *FundHandler) Root() string {
	return "/fund"
}

// FundInfoResponse describes the fund share token
type FundInfoResponse struct {
	Address     string   `json:"address" example:"0x5FbDB2315678afecb367f032d93F642f64180aa3"`
	Name        string   `json:"name" example:"Block ETF Token"`
	Symbol      string   `json:"symbol" example:"bETF"`
	Decimals    uint8    `json:"decimals" example:"18"`
	TotalSupply string   `json:"totalSupply" example:"1000000000000000000000"`
	Owner       string   `json:"owner"`
	Managers    []string `json:"managers"`
}

// @Summary Fund token info
// @Tags fund
// @Produce json
// @Success 200 {object} httputil.Response{data=FundInfoResponse}
// @Router /api/v1/fund [get]
func (h *FundHandler) getFund(c *gin.Context) {
	l := h.fund.Ledger
	managers := make([]string, 0)
	for _, m := range l.Managers() {
		managers = append(managers, m.Hex())
	}
	httputil.Success(c, FundInfoResponse{
		Address:     l.Address().Hex(),
		Name:        l.Name(),
		Symbol:      l.Symbol(),
		Decimals:    l.Decimals(),
		TotalSupply: l.TotalSupply().Dec(),
		Owner:       l.Owner().Hex(),
		Managers:    managers,
	})
}

type WeightResponse struct {
	Asset  string `json:"asset"`
	Symbol string `json:"symbol"`
	// Weight in 1e18 fixed point
	Weight string `json:"weight" example:"300000000000000000"`
}

func (h *FundHandler) getWeights(c *gin.Context) {
	basket := h.fund.Ledger.TargetWeights()
	out := make([]WeightResponse, 0, len(basket))
	for _, e := range basket {
		out = append(out, WeightResponse{Asset: e.Asset.Hex(), Symbol: e.Symbol, Weight: e.Weight.Dec()})
	}
	httputil.Success(c, out)
}

type BalanceResponse struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

func (h *FundHandler) getBalance(c *gin.Context) {
	holder, err := parseAddress(c.Param("address"))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Success(c, BalanceResponse{Address: holder.Hex(), Balance: h.fund.Ledger.BalanceOf(holder).Dec()})
}

type TransferRequest struct {
	To     string `json:"to" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

// @Summary Transfer fund shares
// @Tags fund
// @Accept json
// @Produce json
// @Param X-Wallet-Address header string true "Sender"
// @Param request body TransferRequest true "Transfer"
// @Success 200 {object} httputil.Response{data=BalanceResponse}
// @Failure 422 {object} httputil.Response
// @Router /api/v1/fund/transfer [post]
func (h *FundHandler) transfer(c *gin.Context) {
	caller, _ := middlewares.Caller(c)
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}
	to, err := parseAddress(req.To)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	if err := h.fund.Ledger.Transfer(c.Request.Context(), caller, to, amount); err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Success(c, BalanceResponse{Address: caller.Hex(), Balance: h.fund.Ledger.BalanceOf(caller).Dec()})
}

type SetManagerRequest struct {
	Address string `json:"address" binding:"required"`
	Enabled bool   `json:"enabled"`
}

func (h *FundHandler) setManager(c *gin.Context) {
	caller, _ := middlewares.Caller(c)
	var req SetManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}
	addr, err := parseAddress(req.Address)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	if err := h.fund.Ledger.SetManager(c.Request.Context(), caller, addr, req.Enabled); err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Success(c, gin.H{"address": addr.Hex(), "manager": h.fund.Ledger.IsManager(addr)})
}
