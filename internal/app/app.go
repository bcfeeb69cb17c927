package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	gmail "google.golang.org/api/gmail/v1"

	"contact-relay-go/internal/captcha"
	"contact-relay-go/internal/config"
	"contact-relay-go/internal/contact"
	"contact-relay-go/internal/handler"
	"contact-relay-go/internal/kv"
	"contact-relay-go/internal/mailer"
	"contact-relay-go/internal/metrics"
	"contact-relay-go/internal/router"
	"contact-relay-go/internal/token"
)

// Run initializes and starts the application
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	setupLogging(cfg.Log)
	logrus.Info("Starting Contact Relay Service")

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			return fmt.Errorf("failed to initialize sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	store, err := kv.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	if store == nil {
		logrus.Warn("No key-value store configured, rate limiting and audit logging are disabled")
	}

	var sweeper *kv.Sweeper
	if p, ok := store.(kv.Purger); ok {
		sweeper = kv.NewSweeper(p, cfg.Store.SweepInterval)
		if err := sweeper.Start(); err != nil {
			return fmt.Errorf("failed to start sweeper: %w", err)
		}
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	broker, sender := newTransport(cfg, httpClient)

	var verifier captcha.Verifier
	if cfg.Captcha.Secret != "" {
		verifier = captcha.NewTurnstile(cfg.Captcha.Secret, cfg.Captcha.VerifyURL, httpClient)
	} else {
		logrus.Info("No CAPTCHA secret configured, token verification is disabled")
	}

	svc := contact.NewService(contact.Options{
		Store:     store,
		Broker:    broker,
		Sender:    sender,
		Captcha:   verifier,
		Recipient: mailer.Address{Email: cfg.Mail.Recipient},
		Metrics:   metrics.NewMetrics(prometheus.DefaultRegisterer),
	})

	gin.SetMode(gin.ReleaseMode)
	h := handler.NewHandlers(svc, store, sweeper)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.SetupRouter(h, cfg.Server),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logrus.Infof("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}

	svc.Wait()

	if sweeper != nil {
		if err := sweeper.Stop(); err != nil {
			logrus.Errorf("Failed to stop sweeper: %v", err)
		}
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logrus.Errorf("Failed to close store: %v", err)
		}
	}

	logrus.Info("Server stopped gracefully")
	return nil
}

func newTransport(cfg *config.Config, httpClient *http.Client) (token.Broker, mailer.Sender) {
	switch cfg.Mail.Provider {
	case config.ProviderGmail:
		logrus.Info("Using Gmail API for mail relay")
		broker := token.NewRefreshToken(cfg.OAuth.ClientID, cfg.OAuth.ClientSecret, cfg.OAuth.RefreshToken,
			[]string{gmail.GmailSendScope}, httpClient)
		if cfg.OAuth.TokenURL != "" {
			broker.WithEndpoint(cfg.OAuth.TokenURL)
		}
		return broker, mailer.NewGmailSender(mailer.Address{Email: cfg.Mail.Sender}, cfg.Mail.APIEndpoint(), httpClient)
	default:
		logrus.Info("Using Microsoft Graph for mail relay")
		broker := token.NewClientCredentials(cfg.OAuth.TokenURL, cfg.OAuth.ClientID, cfg.OAuth.ClientSecret,
			cfg.OAuth.Scope, httpClient)
		return broker, mailer.NewGraphSender(cfg.Mail.APIEndpoint(), cfg.Mail.Sender, httpClient)
	}
}

func setupLogging(cfg config.LogConfig) {
	if strings.EqualFold(cfg.Format, "text") {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logrus.Warnf("Unknown log level %q, using info", cfg.Level)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
