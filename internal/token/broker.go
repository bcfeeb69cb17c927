package token

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/oauth2/google"
)

// ErrAuthFailed is returned when no bearer token could be obtained
var ErrAuthFailed = errors.New("authentication failed")

// Broker exchanges service credentials for a short-lived bearer token.
// Tokens are not cached; every call performs a fresh grant.
type Broker interface {
	Token(ctx context.Context) (string, error)
}

// ClientCredentials performs an OAuth2 client-credentials grant
type ClientCredentials struct {
	config     clientcredentials.Config
	httpClient *http.Client
}

// NewClientCredentials creates a client-credentials broker.
// httpClient may be nil to use http.DefaultClient.
func NewClientCredentials(tokenURL, clientID, clientSecret, scope string, httpClient *http.Client) *ClientCredentials {
	return &ClientCredentials{
		config: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			Scopes:       []string{scope},
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		httpClient: httpClient,
	}
}

// Token fetches a new access token
func (c *ClientCredentials) Token(ctx context.Context) (string, error) {
	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}

	tok, err := c.config.Token(ctx)
	return accessToken(tok, err)
}

// RefreshToken exchanges a stored Google refresh token for an access token
type RefreshToken struct {
	config       *oauth2.Config
	refreshToken string
	httpClient   *http.Client
}

// NewRefreshToken creates a broker for the Gmail transport
func NewRefreshToken(clientID, clientSecret, refreshToken string, scopes []string, httpClient *http.Client) *RefreshToken {
	return &RefreshToken{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Scopes:       scopes,
			Endpoint:     google.Endpoint,
		},
		refreshToken: refreshToken,
		httpClient:   httpClient,
	}
}

// WithEndpoint overrides the token endpoint
func (r *RefreshToken) WithEndpoint(tokenURL string) *RefreshToken {
	r.config.Endpoint = oauth2.Endpoint{TokenURL: tokenURL, AuthStyle: oauth2.AuthStyleInParams}
	return r
}

// Token fetches a new access token
func (r *RefreshToken) Token(ctx context.Context) (string, error) {
	if r.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
	}

	tok, err := r.config.TokenSource(ctx, &oauth2.Token{RefreshToken: r.refreshToken}).Token()
	return accessToken(tok, err)
}

func accessToken(tok *oauth2.Token, err error) (string, error) {
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			logrus.WithFields(logrus.Fields{
				"status": re.Response.StatusCode,
				"body":   string(re.Body),
			}).Error("Token endpoint rejected the grant")
		} else {
			logrus.Errorf("Token request failed: %v", err)
		}
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if tok == nil || tok.AccessToken == "" {
		logrus.Error("Token endpoint returned no access_token")
		return "", fmt.Errorf("%w: empty access token", ErrAuthFailed)
	}
	return tok.AccessToken, nil
}
