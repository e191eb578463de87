package email

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confreg/internal/registration/models"
	"confreg/internal/registration/store/emaillog"
)

type fakeMailer struct {
	calls    int
	failures int
	sent     []Message
}

// Send fails the first `failures` calls, then succeeds.
func (m *fakeMailer) Send(_ context.Context, msg Message) error {
	m.calls++
	if m.calls <= m.failures {
		return errors.New("smtp: connection refused")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func testRegistration() *models.Registration {
	return &models.Registration{
		ID:               uuid.New(),
		Email:            "attendee@example.com",
		Surname:          "Okafor",
		FirstName:        "Ada",
		Category:         models.CategoryDoctor,
		YearsInPractice:  models.YearsLessThanFive,
		BaseFee:          30000,
		LateFee:          0,
		TotalAmount:      30000,
		PaymentStatus:    models.PaymentStatusPaid,
		PaymentReference: "CONF-1714000000000-a1b2c3d",
	}
}

func newTestSender(mailer Mailer, logs emaillog.Store, sleeps *[]time.Duration) *Sender {
	return NewSender(mailer, logs, NewTokenIssuer("test-secret"), slog.New(slog.DiscardHandler),
		WithSleep(func(d time.Duration) { *sleeps = append(*sleeps, d) }))
}

func TestSendConfirmationFirstAttempt(t *testing.T) {
	mailer := &fakeMailer{}
	logs := emaillog.NewInMemory()
	var sleeps []time.Duration
	sender := newTestSender(mailer, logs, &sleeps)

	reg := testRegistration()
	sender.SendConfirmation(context.Background(), reg)

	assert.Equal(t, 1, mailer.calls)
	assert.Empty(t, sleeps)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, models.EmailOutcomeSent, entries[0].Outcome)
	assert.Equal(t, reg.Email, entries[0].RecipientEmail)
	assert.Equal(t, reg.ID, entries[0].RegistrationID)
	assert.Empty(t, entries[0].ErrorDetail)
}

func TestSendConfirmationSecondAttempt(t *testing.T) {
	mailer := &fakeMailer{failures: 1}
	logs := emaillog.NewInMemory()
	var sleeps []time.Duration
	sender := newTestSender(mailer, logs, &sleeps)

	sender.SendConfirmation(context.Background(), testRegistration())

	assert.Equal(t, 2, mailer.calls, "no call after the first success")
	assert.Equal(t, []time.Duration{2 * time.Second}, sleeps)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, models.EmailOutcomeSent, entries[0].Outcome)
}

func TestSendConfirmationRetriesThenSucceeds(t *testing.T) {
	mailer := &fakeMailer{failures: 2}
	logs := emaillog.NewInMemory()
	var sleeps []time.Duration
	sender := newTestSender(mailer, logs, &sleeps)

	sender.SendConfirmation(context.Background(), testRegistration())

	assert.Equal(t, 3, mailer.calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, sleeps)

	entries := logs.All()
	require.Len(t, entries, 1, "one log entry per delivery sequence")
	assert.Equal(t, models.EmailOutcomeSent, entries[0].Outcome)
}

func TestSendConfirmationExhaustsAttempts(t *testing.T) {
	mailer := &fakeMailer{failures: maxAttempts}
	logs := emaillog.NewInMemory()
	var sleeps []time.Duration
	sender := newTestSender(mailer, logs, &sleeps)

	sender.SendConfirmation(context.Background(), testRegistration())

	assert.Equal(t, maxAttempts, mailer.calls)
	assert.Len(t, sleeps, maxAttempts-1)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, models.EmailOutcomeFailed, entries[0].Outcome)
	assert.Contains(t, entries[0].ErrorDetail, "connection refused")
}

func TestSendConfirmationMessageContents(t *testing.T) {
	mailer := &fakeMailer{}
	logs := emaillog.NewInMemory()
	var sleeps []time.Duration
	sender := newTestSender(mailer, logs, &sleeps)

	reg := testRegistration()
	sender.SendConfirmation(context.Background(), reg)

	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, reg.Email, msg.To)
	assert.Equal(t, confirmationSubject, msg.Subject)
	assert.NotEmpty(t, msg.InlinePNG, "pass image is attached inline")
	assert.Equal(t, passFilename, msg.InlinePNGName)
	assert.Contains(t, msg.HTML, "cid:"+passFilename)
	assert.Contains(t, msg.HTML, reg.PaymentReference)
	assert.Contains(t, msg.HTML, "30,000")
	assert.Contains(t, msg.HTML, "Ada Okafor")
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")
	id := uuid.New()

	raw, err := issuer.Issue(id, "attendee@example.com", "Ada Okafor")
	require.NoError(t, err)

	claims, err := issuer.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, id.String(), claims.RegistrationID)
	assert.Equal(t, "attendee@example.com", claims.Email)
	assert.Equal(t, "Ada Okafor", claims.Name)
	assert.False(t, claims.Verified)
}

func TestTokenParseRejectsWrongSecret(t *testing.T) {
	raw, err := NewTokenIssuer("secret-a").Issue(uuid.New(), "a@example.com", "A")
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret-b").Parse(raw)
	assert.Error(t, err)
}
