package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	csrfHeader = "X-CSRF-Token"
	csrfCookie = "scanq_csrf"
)

// CSRFMiddleware guards state-changing routes. Token issuance is external;
// this only requires the header to be present and, when the double-submit
// cookie accompanies the request, to agree with it.
func CSRFMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(csrfHeader))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "missing anti-forgery token"})
			return
		}
		if cookie, err := c.Cookie(csrfCookie); err == nil && strings.TrimSpace(cookie) != "" {
			if subtle.ConstantTimeCompare([]byte(token), []byte(strings.TrimSpace(cookie))) != 1 {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "anti-forgery token mismatch"})
				return
			}
		}
		c.Next()
	}
}
