package httputil

import "github.com/gin-gonic/gin"

// IHttpHandler mounts a resource under Root in each of the three API groups.
// Private and admin groups only see requests that carry a caller address.
type IHttpHandler interface {
	Root() string
	SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup)
}
