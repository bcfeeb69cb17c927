package contact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"

	"contact-relay-go/internal/captcha"
	"contact-relay-go/internal/kv"
	"contact-relay-go/internal/mailer"
	"contact-relay-go/internal/metrics"
	"contact-relay-go/internal/token"
)

const (
	RateLimitTTL      = 7 * 24 * time.Hour
	RejectedDomainTTL = 30 * 24 * time.Hour

	// UnknownIP is the rate-limit bucket for requests without a client IP
	// header. All such clients share one bucket per email.
	UnknownIP = "unknown"

	rateLimitValue = "submitted"
)

// RateLimitKey returns the store key guarding resubmission
func RateLimitKey(ip, email string) string {
	return fmt.Sprintf("rate_limit_%s_%s", ip, email)
}

// RejectedDomainKey returns the audit key for a consumer-domain rejection
func RejectedDomainKey(domain string, at time.Time) string {
	return fmt.Sprintf("rejected_%s_%d", domain, at.UnixMilli())
}

// RejectedDomainRecord is the audit value written on domain rejection
type RejectedDomainRecord struct {
	Domain    string `json:"domain"`
	Email     string `json:"email"`
	Timestamp string `json:"timestamp"`
	IP        string `json:"ip"`
	FormType  string `json:"formType"`
}

// Options wires the collaborators of a Service. Store and Captcha may be nil.
type Options struct {
	Store     kv.Store
	Broker    token.Broker
	Sender    mailer.Sender
	Captcha   captcha.Verifier
	Recipient mailer.Address
	Metrics   *metrics.Metrics
}

// Service runs the submission pipeline
type Service struct {
	store        kv.Store
	broker       token.Broker
	sender       mailer.Sender
	captcha      captcha.Verifier
	recipient    mailer.Address
	metrics      *metrics.Metrics
	now          func() time.Time
	auditTimeout time.Duration
	wg           sync.WaitGroup
}

// NewService creates a submission service
func NewService(opts Options) *Service {
	return &Service{
		store:        opts.Store,
		broker:       opts.Broker,
		sender:       opts.Sender,
		captcha:      opts.Captcha,
		recipient:    opts.Recipient,
		metrics:      opts.Metrics,
		now:          time.Now,
		auditTimeout: 5 * time.Second,
	}
}

// StoreConfigured reports whether rate limiting and audit logging are active
func (s *Service) StoreConfigured() bool {
	return s.store != nil
}

// CaptchaConfigured reports whether CAPTCHA tokens are verified
func (s *Service) CaptchaConfigured() bool {
	return s.captcha != nil
}

// Wait blocks until pending audit writes have finished
func (s *Service) Wait() {
	s.wg.Wait()
}

// Submit processes one submission. A nil error means the email was relayed;
// any other outcome is returned as *Error.
func (s *Service) Submit(ctx context.Context, sub *Submission, clientIP string) (err error) {
	defer func() { s.recordOutcome(err) }()

	if clientIP == "" {
		clientIP = UnknownIP
	}

	if err := Validate(sub); err != nil {
		return err
	}

	domain := EmailDomain(sub.Email)
	if IsConsumerDomain(domain) {
		logrus.WithFields(logrus.Fields{
			"domain":    domain,
			"ip":        clientIP,
			"form_type": sub.FormType,
		}).Info("Rejected consumer email domain")
		s.auditRejectedDomain(sub, domain, clientIP)
		return &Error{Kind: KindPolicy, Key: MsgCompanyEmail}
	}

	key := RateLimitKey(clientIP, sub.Email)
	if s.rateLimited(ctx, key) {
		logrus.WithField("ip", clientIP).Info("Submission blocked by rate limit")
		return &Error{Kind: KindRateLimited, Key: MsgTooManyRequests}
	}

	if s.captcha != nil {
		if err := s.verifyCaptcha(ctx, sub.CaptchaToken, clientIP); err != nil {
			return err
		}
	}

	accessToken, err := s.fetchToken(ctx)
	if err != nil {
		return err
	}

	if err := s.send(ctx, accessToken, Compose(sub, s.recipient)); err != nil {
		return err
	}

	s.markSubmitted(ctx, key)
	return nil
}

// rateLimited degrades open: an unconfigured or failing store never blocks.
func (s *Service) rateLimited(ctx context.Context, key string) bool {
	if !s.StoreConfigured() {
		return false
	}

	start := time.Now()
	_, found, err := s.store.Get(ctx, key)
	s.observe("store_get", start)
	if err != nil {
		logrus.Errorf("Rate limit lookup failed, allowing submission: %v", err)
		return false
	}
	return found
}

func (s *Service) markSubmitted(ctx context.Context, key string) {
	if !s.StoreConfigured() {
		return
	}

	start := time.Now()
	err := s.store.Put(ctx, key, rateLimitValue, RateLimitTTL)
	s.observe("store_put", start)
	if err != nil {
		logrus.Errorf("Failed to set rate limit entry after send: %v", err)
	}
}

func (s *Service) verifyCaptcha(ctx context.Context, tok, clientIP string) error {
	start := time.Now()
	err := s.captcha.Verify(ctx, tok, clientIP)
	s.observe("captcha", start)
	if err == nil {
		return nil
	}
	if errors.Is(err, captcha.ErrRejected) {
		return &Error{Kind: KindCaptcha, Key: MsgCaptchaFailed, Err: err}
	}
	logrus.Errorf("CAPTCHA verification unavailable: %v", err)
	return &Error{Kind: KindInternal, Key: MsgInternal, Err: err}
}

func (s *Service) fetchToken(ctx context.Context) (string, error) {
	start := time.Now()
	accessToken, err := s.broker.Token(ctx)
	s.observe("token", start)
	if err != nil {
		logrus.Errorf("Failed to obtain mail API token: %v", err)
		captureException(ctx, err)
		return "", &Error{Kind: KindUpstreamAuth, Key: MsgAuthFailed, Err: err}
	}
	return accessToken, nil
}

func (s *Service) send(ctx context.Context, accessToken string, msg *mailer.Message) error {
	start := time.Now()
	err := s.sender.Send(ctx, accessToken, msg)
	s.observe("mail", start)
	if err != nil {
		logrus.Errorf("Failed to relay submission: %v", err)
		captureException(ctx, err)
		return &Error{Kind: KindUpstreamSend, Key: MsgSendFailed, Err: err}
	}
	return nil
}

// auditRejectedDomain writes the audit record in the background. Its result
// is only logged.
func (s *Service) auditRejectedDomain(sub *Submission, domain, clientIP string) {
	if !s.StoreConfigured() {
		return
	}

	now := s.now()
	key := RejectedDomainKey(domain, now)
	value, err := json.Marshal(RejectedDomainRecord{
		Domain:    domain,
		Email:     sub.Email,
		Timestamp: now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		IP:        clientIP,
		FormType:  string(sub.FormType),
	})
	if err != nil {
		logrus.Errorf("Failed to encode rejected domain record: %v", err)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logrus.Errorf("Rejected domain audit write panicked: %v", r)
				s.countAudit("error")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.auditTimeout)
		defer cancel()

		if err := s.store.Put(ctx, key, string(value), RejectedDomainTTL); err != nil {
			logrus.Warnf("Failed to write rejected domain audit record: %v", err)
			s.countAudit("error")
			return
		}
		s.countAudit("ok")
	}()
}

// captureException reports to the request hub when one is attached
func captureException(ctx context.Context, err error) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.CaptureException(err)
}

func (s *Service) recordOutcome(err error) {
	if s.metrics == nil {
		return
	}
	outcome := "sent"
	if err != nil {
		outcome = KindInternal.String()
		var cerr *Error
		if errors.As(err, &cerr) {
			outcome = cerr.Kind.String()
		}
	}
	s.metrics.Submissions.WithLabelValues(outcome).Inc()
}

func (s *Service) observe(step string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.UpstreamDuration.WithLabelValues(step).Observe(time.Since(start).Seconds())
}

func (s *Service) countAudit(result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.AuditWrites.WithLabelValues(result).Inc()
}
