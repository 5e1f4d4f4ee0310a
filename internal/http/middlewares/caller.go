package middlewares

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/block-etf/internal/http/httputil"
)

const (
	WalletHeader = "X-Wallet-Address"
	callerKey    = "caller"
)

// RequireCaller resolves the acting principal from the wallet header.
// There is no signature check: the header is trusted as the caller.
func RequireCaller() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(WalletHeader)
		if raw == "" {
			httputil.Unauthorized(c, "missing "+WalletHeader+" header")
			c.Abort()
			return
		}
		if !common.IsHexAddress(raw) {
			httputil.Unauthorized(c, "invalid "+WalletHeader+" header")
			c.Abort()
			return
		}
		c.Set(callerKey, common.HexToAddress(raw))
		c.Next()
	}
}

// Caller returns the principal set by RequireCaller.
func Caller(c *gin.Context) (common.Address, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return common.Address{}, false
	}
	addr, ok := v.(common.Address)
	return addr, ok
}
