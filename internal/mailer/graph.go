package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// GraphSender sends mail through the Microsoft Graph sendMail action
type GraphSender struct {
	endpoint   string
	sender     string
	httpClient *http.Client
}

// NewGraphSender creates a Graph sender posting as the given mailbox
func NewGraphSender(endpoint, sender string, httpClient *http.Client) *GraphSender {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &GraphSender{
		endpoint:   strings.TrimRight(endpoint, "/"),
		sender:     sender,
		httpClient: httpClient,
	}
}

type graphEmailAddress struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

type graphRecipient struct {
	EmailAddress graphEmailAddress `json:"emailAddress"`
}

type graphBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type graphMessage struct {
	Subject      string           `json:"subject"`
	Body         graphBody        `json:"body"`
	ToRecipients []graphRecipient `json:"toRecipients"`
	ReplyTo      []graphRecipient `json:"replyTo"`
}

type graphSendMailRequest struct {
	Message         graphMessage `json:"message"`
	SaveToSentItems bool         `json:"saveToSentItems"`
}

func graphPayload(msg *Message) graphSendMailRequest {
	return graphSendMailRequest{
		Message: graphMessage{
			Subject: msg.Subject,
			Body:    graphBody{ContentType: "Text", Content: msg.Body},
			ToRecipients: []graphRecipient{
				{EmailAddress: graphEmailAddress{Address: msg.To.Email, Name: msg.To.Name}},
			},
			ReplyTo: []graphRecipient{
				{EmailAddress: graphEmailAddress{Address: msg.ReplyTo.Email, Name: msg.ReplyTo.Name}},
			},
		},
		SaveToSentItems: false,
	}
}

// Send posts the message. Any non-2xx status is reported as ErrSendFailed.
func (g *GraphSender) Send(ctx context.Context, accessToken string, msg *Message) error {
	payload, err := json.Marshal(graphPayload(msg))
	if err != nil {
		return fmt.Errorf("%w: encode payload: %v", ErrSendFailed, err)
	}

	sendURL := fmt.Sprintf("%s/users/%s/sendMail", g.endpoint, url.PathEscape(g.sender))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sendURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrSendFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		logrus.Errorf("Graph sendMail request failed: %v", err)
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		logrus.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"body":   string(body),
		}).Error("Graph sendMail rejected the message")
		return fmt.Errorf("%w: status %d", ErrSendFailed, resp.StatusCode)
	}

	logrus.Infof("Relayed message to %s via Graph", msg.To.Email)
	return nil
}
