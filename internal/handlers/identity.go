package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/restaurant-orderflow/internal/orders"
)

// Identity headers set by the upstream authorizer.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"
)

// Roles
const (
	RoleCustomer = "customer"
	RoleOperator = "operator"
)

const viewerKey = "viewer"

// RequireUser rejects requests without a user id and stores the caller for handlers.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}
		role := strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderUserRole)))
		c.Set(viewerKey, orders.Viewer{UserID: userID, Operator: role == RoleOperator})
		c.Next()
	}
}

// RequireOperator must run after RequireUser.
func RequireOperator() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !viewer(c).Operator {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden", "msg": "operator role required"})
			return
		}
		c.Next()
	}
}

func viewer(c *gin.Context) orders.Viewer {
	v, _ := c.Get(viewerKey)
	vw, _ := v.(orders.Viewer)
	return vw
}
