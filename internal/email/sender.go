// Package email sends the registration confirmation. Delivery is best effort
// with bounded retries: payment confirmation must never fail or unwind
// because a mail server was down, so every outcome ends in exactly one audit
// log entry and no error escapes to the reconciliation path.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"confreg/internal/platform/metrics"
	"confreg/internal/registration/models"
	"confreg/internal/registration/store/emaillog"
)

const (
	maxAttempts = 3
	// backoffBase doubles per attempt: 2s before the second try, 4s before
	// the third. Never before the first.
	backoffBase = 2 * time.Second

	confirmationSubject = "Conference Registration Confirmed"
	passFilename        = "conference-pass.png"
)

// Sender wraps the Mailer with retry, audit logging, and pass generation.
type Sender struct {
	mailer  Mailer
	logs    emaillog.Store
	tokens  *TokenIssuer
	logger  *slog.Logger
	metrics *metrics.Metrics
	sleep   func(time.Duration)
}

// Option configures a Sender.
type Option func(*Sender)

// WithMetrics attaches delivery counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sender) { s.metrics = m }
}

// WithSleep overrides the inter-attempt delay, for tests.
func WithSleep(sleep func(time.Duration)) Option {
	return func(s *Sender) { s.sleep = sleep }
}

// NewSender constructs the confirmation sender.
func NewSender(mailer Mailer, logs emaillog.Store, tokens *TokenIssuer, logger *slog.Logger, opts ...Option) *Sender {
	s := &Sender{
		mailer: mailer,
		logs:   logs,
		tokens: tokens,
		logger: logger,
		sleep:  time.Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendConfirmation attempts delivery with bounded retries and writes exactly
// one delivery log entry for the whole sequence. It never returns an error:
// the caller has already committed the payment transition and must not roll
// it back over a notification failure.
func (s *Sender) SendConfirmation(ctx context.Context, reg *models.Registration) {
	msg, err := s.buildMessage(reg)
	if err != nil {
		// Building the pass is local work; failure here is a bug, not an
		// outage, but it still lands in the audit trail.
		s.logger.ErrorContext(ctx, "failed to build confirmation email",
			"registration_id", reg.ID, "error", err)
		s.logOutcome(ctx, reg, models.EmailOutcomeFailed, err)
		return
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			s.sleep(backoffBase << (attempt - 2))
		}
		if lastErr = s.mailer.Send(ctx, msg); lastErr == nil {
			s.logger.InfoContext(ctx, "confirmation email sent",
				"registration_id", reg.ID, "recipient", reg.Email, "attempt", attempt)
			s.logOutcome(ctx, reg, models.EmailOutcomeSent, nil)
			s.metrics.IncrementEmailsSent()
			return
		}
		s.logger.WarnContext(ctx, "confirmation email attempt failed",
			"registration_id", reg.ID, "attempt", attempt, "error", lastErr)
	}

	s.logOutcome(ctx, reg, models.EmailOutcomeFailed, lastErr)
	s.metrics.IncrementEmailsFailed()
}

func (s *Sender) logOutcome(ctx context.Context, reg *models.Registration, outcome models.EmailOutcome, cause error) {
	entry := &models.EmailDeliveryLog{
		ID:             uuid.New(),
		RecipientEmail: reg.Email,
		Subject:        confirmationSubject,
		Outcome:        outcome,
		RegistrationID: reg.ID,
		SentAt:         time.Now(),
	}
	if cause != nil {
		entry.ErrorDetail = cause.Error()
	}
	if err := s.logs.Append(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "failed to append email delivery log",
			"registration_id", reg.ID, "outcome", outcome, "error", err)
	}
}

func (s *Sender) buildMessage(reg *models.Registration) (Message, error) {
	token, err := s.tokens.Issue(reg.ID, reg.Email, reg.FullName())
	if err != nil {
		return Message{}, err
	}
	png, err := qrcode.Encode(token, qrcode.High, 300)
	if err != nil {
		return Message{}, fmt.Errorf("encode pass qr: %w", err)
	}
	return Message{
		To:            reg.Email,
		Subject:       confirmationSubject,
		HTML:          renderConfirmationHTML(reg, passFilename),
		InlinePNG:     png,
		InlinePNGName: passFilename,
	}, nil
}
