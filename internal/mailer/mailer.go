package mailer

import (
	"context"
	"errors"
)

// ErrSendFailed is returned when the mail provider did not accept the message
var ErrSendFailed = errors.New("mail relay error")

// Address is a mailbox with an optional display name
type Address struct {
	Email string
	Name  string
}

// Message is a plain-text email addressed to a single recipient
type Message struct {
	To      Address
	ReplyTo Address
	Subject string
	Body    string
}

// Sender delivers a message using a bearer token obtained by the caller
type Sender interface {
	Send(ctx context.Context, accessToken string, msg *Message) error
}
