package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderTenantID lets clients pin the tenant they expect to act on.
const HeaderTenantID = "X-Tenant-ID"

// TenantGuard ensures tenant context is present. It relies on AuthMiddleware
// having already set the tenant_id. When the client sends X-Tenant-ID it must
// name the tenant from the token.
func TenantGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, err := GetTenantID(c)
		if err != nil || tenantID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "tenant context required"},
			})
			return
		}

		if pinned := c.GetHeader(HeaderTenantID); pinned != "" {
			want, err := uuid.Parse(pinned)
			if err != nil || want != tenantID {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"success": false,
					"error":   gin.H{"code": "TENANT_MISMATCH", "message": "X-Tenant-ID does not match the token tenant"},
				})
				return
			}
		}
		c.Next()
	}
}
