package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"contact-relay-go/internal/contact"
)

// Sentry attaches a per-request hub to the request context
func Sentry() gin.HandlerFunc {
	return func(c *gin.Context) {
		hub := sentry.CurrentHub().Clone()
		hub.Scope().SetRequest(c.Request)
		c.Request = c.Request.WithContext(sentry.SetHubOnContext(c.Request.Context(), hub))
		c.Next()
	}
}

// Recovery turns a panic into a generic JSON 500 and reports it to Sentry
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logrus.WithFields(logrus.Fields{
					"error":      err,
					"path":       c.Request.URL.Path,
					"method":     c.Request.Method,
					"request_id": GetRequestID(c),
					"stack":      string(debug.Stack()),
				}).Error("Panic recovered")

				if hub := sentry.GetHubFromContext(c.Request.Context()); hub != nil {
					hub.RecoverWithContext(c.Request.Context(), err)
				}

				c.AbortWithStatusJSON(http.StatusInternalServerError, contact.Response{
					Error: contact.Localize(contact.LangEN, contact.MsgInternal),
				})
			}
		}()
		c.Next()
	}
}
