package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	gmail "google.golang.org/api/gmail/v1"

	"contact-relay-go/internal/config"
	"contact-relay-go/internal/token"
)

// get_token fetches one access token with the configured credentials so
// operators can check the tenant, client and scope outside the service.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.OAuth.ClientID == "" || cfg.OAuth.ClientSecret == "" {
		logrus.Fatal("Please set AZURE_CLIENT_ID and AZURE_CLIENT_SECRET environment variables")
	}

	var broker token.Broker
	switch cfg.Mail.Provider {
	case config.ProviderGmail:
		if cfg.OAuth.RefreshToken == "" {
			logrus.Fatal("Please set GMAIL_REFRESH_TOKEN for the gmail provider")
		}
		broker = token.NewRefreshToken(cfg.OAuth.ClientID, cfg.OAuth.ClientSecret, cfg.OAuth.RefreshToken,
			[]string{gmail.GmailSendScope}, nil)
	default:
		if cfg.OAuth.TokenURL == "" {
			logrus.Fatal("Please set AZURE_TENANT_ID or OAUTH_TOKEN_URL")
		}
		broker = token.NewClientCredentials(cfg.OAuth.TokenURL, cfg.OAuth.ClientID, cfg.OAuth.ClientSecret, cfg.OAuth.Scope, nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	accessToken, err := broker.Token(ctx)
	if err != nil {
		logrus.Fatalf("Unable to retrieve token: %v", err)
	}

	fmt.Fprintf(os.Stderr, "Provider: %s\n", cfg.Mail.Provider)
	fmt.Println(accessToken)
}
