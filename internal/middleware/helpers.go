// internal/middleware/helpers.go
package middleware

import (
	"insurance-service/internal/domain/auth"

	"github.com/gin-gonic/gin"
)

// MustGetUserID panics when Auth did not run for the route.
func MustGetUserID(c *gin.Context) int64 {
	id, exists := GetUserID(c)
	if !exists {
		panic("user_id not found in context")
	}
	return id
}

func MustGetJTI(c *gin.Context) string {
	jti, exists := GetJTI(c)
	if !exists {
		panic("jti not found in context")
	}
	return jti
}

// Actor builds the service-level caller from the gin context.
func Actor(c *gin.Context) auth.Actor {
	return auth.Actor{UserID: MustGetUserID(c), Role: GetRole(c)}
}

func IsAuthenticated(c *gin.Context) bool {
	_, exists := c.Get(ctxUserID)
	return exists
}

func IsAdmin(c *gin.Context) bool {
	return GetRole(c) == auth.RoleAdmin
}
