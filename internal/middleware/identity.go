package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys populated by the identity middleware.
const (
	CtxUserIDKey   = "user_id"
	CtxUserNameKey = "user_name"
	CtxUserRoleKey = "user_role"
)

// Identity headers set by the authenticating gateway in front of this service.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserName = "X-User-Name"
	HeaderUserRole = "X-User-Role"
)

// Identity extracts the caller's identity from the trusted gateway headers.
// Authentication itself happens upstream; requests without a parsable user id
// simply carry no identity and handlers decide whether that is acceptable.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if raw != "" {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
				c.Set(CtxUserIDKey, id)
				c.Set(CtxUserNameKey, strings.TrimSpace(c.GetHeader(HeaderUserName)))
				c.Set(CtxUserRoleKey, strings.TrimSpace(c.GetHeader(HeaderUserRole)))
			}
		}
		c.Next()
	}
}

// UserID returns the caller's id from the request context, or 0 when absent.
func UserID(c *gin.Context) int64 {
	value, ok := c.Get(CtxUserIDKey)
	if !ok {
		return 0
	}
	id, _ := value.(int64)
	return id
}
