package email

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// The SMTP implementation must satisfy the transport boundary; everything
// else in this package is tested through fakes, so this is the one test that
// touches the production mailer's construction.
var _ Mailer = (*SMTPMailer)(nil)

func TestNewSMTPMailer(t *testing.T) {
	mailer := NewSMTPMailer(SMTPConfig{
		Host: "smtp.example.com",
		Port: 587,
		User: "conf",
		Pass: "secret",
		From: "no-reply@conf.example",
	})
	require.NotNil(t, mailer)
	require.Equal(t, "smtp.example.com", mailer.cfg.Host)
	require.Equal(t, 587, mailer.cfg.Port)
}
