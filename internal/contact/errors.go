package contact

import (
	"fmt"
	"net/http"
)

// Kind classifies a terminal pipeline failure
type Kind int

const (
	KindUserInput Kind = iota + 1
	KindPolicy
	KindRateLimited
	KindCaptcha
	KindUpstreamAuth
	KindUpstreamSend
	KindInternal
	KindMethodNotAllowed
)

var kindNames = map[Kind]string{
	KindUserInput:        "invalid",
	KindPolicy:           "consumer_domain",
	KindRateLimited:      "rate_limited",
	KindCaptcha:          "captcha_failed",
	KindUpstreamAuth:     "auth_failed",
	KindUpstreamSend:     "send_failed",
	KindInternal:         "internal",
	KindMethodNotAllowed: "method_not_allowed",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Status returns the HTTP status code for the kind
func (k Kind) Status() int {
	switch k {
	case KindUserInput, KindPolicy, KindCaptcha:
		return http.StatusBadRequest
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// Error is a terminal pipeline outcome. Err carries server-side detail and
// is never shown to the caller.
type Error struct {
	Kind Kind
	Key  MessageKey
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}
