package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"contact-relay-go/internal/contact"
)

const clientIPKey = "ClientIP"

// ClientIP resolves the caller address from a trusted proxy header. The
// socket address is never used; requests without the header share the
// "unknown" bucket.
func ClientIP(header string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(clientIPKey, ResolveClientIP(c.GetHeader(header)))
		c.Next()
	}
}

// ResolveClientIP takes the first entry of a comma separated header value
func ResolveClientIP(value string) string {
	if i := strings.IndexByte(value, ','); i >= 0 {
		value = value[:i]
	}
	if value = strings.TrimSpace(value); value != "" {
		return value
	}
	return contact.UnknownIP
}

// GetClientIP returns the address stored by ClientIP
func GetClientIP(c *gin.Context) string {
	if ip := c.GetString(clientIPKey); ip != "" {
		return ip
	}
	return contact.UnknownIP
}
