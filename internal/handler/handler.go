package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"contact-relay-go/internal/contact"
	"contact-relay-go/internal/kv"
	"contact-relay-go/internal/middleware"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	service *contact.Service
	store   kv.Store
	sweeper *kv.Sweeper
}

// NewHandlers creates new HTTP handlers. store and sweeper may be nil.
func NewHandlers(service *contact.Service, store kv.Store, sweeper *kv.Sweeper) *Handlers {
	return &Handlers{
		service: service,
		store:   store,
		sweeper: sweeper,
	}
}

// SetupRoutes sets up all HTTP routes. guard runs in front of the contact
// endpoints only.
func (h *Handlers) SetupRoutes(router *gin.Engine, guard ...gin.HandlerFunc) {
	router.GET("/healthz", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	submit := append(append([]gin.HandlerFunc{}, guard...), h.SubmitContact)
	router.POST("/api/contact", submit...)
	router.POST("/contact", submit...)

	router.NoMethod(h.MethodNotAllowed)
}

// SubmitContact handles a form post
func (h *Handlers) SubmitContact(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		logrus.Warnf("Failed to read request body: %v", err)
		h.respond(c, contact.LangEN, &contact.Error{Kind: contact.KindUserInput, Key: contact.MsgInvalidBody, Err: err})
		return
	}

	sub, err := contact.ParseSubmission(body)
	if err != nil {
		h.respond(c, contact.LangEN, err)
		return
	}

	err = h.service.Submit(c.Request.Context(), sub, middleware.GetClientIP(c))
	if err != nil {
		_ = c.Error(err)
	}
	h.respond(c, sub.Language, err)
}

// MethodNotAllowed answers every non-POST verb on a known path
func (h *Handlers) MethodNotAllowed(c *gin.Context) {
	h.respond(c, contact.LangEN, &contact.Error{Kind: contact.KindMethodNotAllowed, Key: contact.MsgMethodNotAllowed})
}

func (h *Handlers) respond(c *gin.Context, lang contact.Language, err error) {
	status, resp := contact.Format(lang, err)
	c.JSON(status, resp)
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Store:     "disabled",
		Captcha:   "disabled",
		Metrics:   make(map[string]string),
	}

	if h.store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		response.Store = "ok"
		if err := h.store.Ping(ctx); err != nil {
			response.Status = "error"
			response.Store = "error"
			logrus.Errorf("Store health check failed: %v", err)
		}
	}

	if h.service.CaptchaConfigured() {
		response.Captcha = "enabled"
	}

	if h.sweeper != nil {
		if h.sweeper.IsRunning() {
			response.Metrics["sweeper"] = "running"
			if next := h.sweeper.NextRun(); !next.IsZero() {
				response.Metrics["next_sweep"] = next.Format(time.RFC3339)
			}
			if last := h.sweeper.LastRun(); !last.IsZero() {
				response.Metrics["last_sweep"] = last.Format(time.RFC3339)
			}
		} else {
			response.Metrics["sweeper"] = "stopped"
		}
	}

	statusCode := http.StatusOK
	if response.Status == "error" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}
