package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/block-etf/internal/etf"
	"github.com/hxuan190/block-etf/internal/http/httputil"
	"github.com/hxuan190/block-etf/internal/http/middlewares"
)

// TokenHandler exposes the settlement token and basket asset balances.
type TokenHandler struct {
	fund   *etf.Fund
	faucet bool
}

func NewTokenHandler(fund *etf.Fund, faucet bool) *TokenHandler {
	return &TokenHandler{fund: fund, faucet: faucet}
}

func (h *TokenHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.listTokens)
	pub.GET("/:token/balance/:address", h.getBalance)
	pub.GET("/:token/allowance/:owner/:spender", h.getAllowance)
	private.POST("/approve", h.approve)
	private.POST("/faucet", h.faucetMint)
}

func (h *TokenHandler) Root() string {
	return "/tokens"
}

type TokenInfo struct {
	Address     string `json:"address"`
	Symbol      string `json:"symbol" example:"USDT"`
	Decimals    uint8  `json:"decimals" example:"18"`
	TotalSupply string `json:"totalSupply"`
}

func (h *TokenHandler) listTokens(c *gin.Context) {
	tokens := h.fund.Bank.Tokens()
	out := make([]TokenInfo, 0, len(tokens))
	for _, m := range tokens {
		out = append(out, TokenInfo{
			Address:     m.Address.Hex(),
			Symbol:      m.Symbol,
			Decimals:    m.Decimals,
			TotalSupply: h.fund.Bank.TotalSupply(m.Address).Dec(),
		})
	}
	httputil.Success(c, out)
}

type TokenBalanceResponse struct {
	Token   string `json:"token"`
	Address string `json:"address"`
	Balance string `json:"balance"`
}

func (h *TokenHandler) getBalance(c *gin.Context) {
	token, err := parseAddress(c.Param("token"))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	if _, ok := h.fund.Bank.Metadata(token); !ok {
		httputil.NotFound(c, "token not found")
		return
	}
	holder, err := parseAddress(c.Param("address"))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Success(c, TokenBalanceResponse{Token: token.Hex(), Address: holder.Hex(), Balance: h.fund.Bank.BalanceOf(token, holder).Dec()})
}

func (h *TokenHandler) getAllowance(c *gin.Context) {
	token, err := parseAddress(c.Param("token"))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	owner, err := parseAddress(c.Param("owner"))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	spender, err := parseAddress(c.Param("spender"))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Success(c, gin.H{
		"token":     token.Hex(),
		"owner":     owner.Hex(),
		"spender":   spender.Hex(),
		"allowance": h.fund.Bank.Allowance(token, owner, spender).Dec(),
	})
}

type ApproveRequest struct {
	// Defaults to the settlement token
	Token string `json:"token"`
	// Defaults to the router
	Spender string `json:"spender"`
	Amount  string `json:"amount" binding:"required"`
}

// @Summary Approve a spender
// @Description Sets the caller's allowance. Approve the router for the settlement token before depositing.
// @Tags tokens
// @Accept json
// @Produce json
// @Param X-Wallet-Address header string true "Token owner"
// @Param request body ApproveRequest true "Approval"
// @Success 200 {object} httputil.Response
// @Router /api/v1/tokens/approve [post]
func (h *TokenHandler) approve(c *gin.Context) {
	caller, _ := middlewares.Caller(c)
	var req ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}
	token, spender := h.fund.Router.Settlement(), h.fund.Router.Address()
	var err error
	if req.Token != "" {
		if token, err = parseAddress(req.Token); err != nil {
			httputil.Fail(c, err)
			return
		}
	}
	if req.Spender != "" {
		if spender, err = parseAddress(req.Spender); err != nil {
			httputil.Fail(c, err)
			return
		}
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	if err := h.fund.Bank.Approve(c.Request.Context(), token, caller, spender, amount); err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Success(c, gin.H{
		"token":     token.Hex(),
		"spender":   spender.Hex(),
		"allowance": h.fund.Bank.Allowance(token, caller, spender).Dec(),
	})
}

type FaucetRequest struct {
	Amount string `json:"amount" binding:"required"`
}

func (h *TokenHandler) faucetMint(c *gin.Context) {
	if !h.faucet {
		httputil.Error(c, http.StatusForbidden, "faucet disabled")
		return
	}
	caller, _ := middlewares.Caller(c)
	var req FaucetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	if err := h.fund.Faucet(c.Request.Context(), caller, amount); err != nil {
		httputil.Fail(c, err)
		return
	}
	settlement := h.fund.Router.Settlement()
	httputil.Success(c, TokenBalanceResponse{Token: settlement.Hex(), Address: caller.Hex(), Balance: h.fund.Bank.BalanceOf(settlement, caller).Dec()})
}
