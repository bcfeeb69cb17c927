package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailSender sends mail through the Gmail API users.messages.send call
type GmailSender struct {
	from       Address
	endpoint   string
	httpClient *http.Client
}

// NewGmailSender creates a Gmail sender. endpoint may be empty to use the
// public API; httpClient may be nil.
func NewGmailSender(from Address, endpoint string, httpClient *http.Client) *GmailSender {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &GmailSender{from: from, endpoint: endpoint, httpClient: httpClient}
}

// Send encodes the message as RFC 5322 and submits it
func (g *GmailSender) Send(ctx context.Context, accessToken string, msg *Message) error {
	raw, err := g.buildRFC822(msg)
	if err != nil {
		return fmt.Errorf("%w: build message: %v", ErrSendFailed, err)
	}

	base := context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
	client := oauth2.NewClient(base, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))

	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if g.endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.endpoint))
	}

	service, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return fmt.Errorf("%w: failed to create Gmail service: %v", ErrSendFailed, err)
	}

	_, err = service.Users.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		logrus.Errorf("Gmail send failed: %v", err)
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	logrus.Infof("Relayed message to %s via Gmail", msg.To.Email)
	return nil
}

func (g *GmailSender) buildRFC822(msg *Message) ([]byte, error) {
	var h mail.Header
	h.SetDate(time.Now())
	h.SetSubject(msg.Subject)
	if g.from.Email != "" {
		h.SetAddressList("From", []*mail.Address{{Name: g.from.Name, Address: g.from.Email}})
	}
	h.SetAddressList("To", []*mail.Address{{Name: msg.To.Name, Address: msg.To.Email}})
	h.SetAddressList("Reply-To", []*mail.Address{{Name: msg.ReplyTo.Name, Address: msg.ReplyTo.Email}})
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write([]byte(msg.Body)); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
