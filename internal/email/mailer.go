package email

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// Message is a rendered email ready for transport. Attachments are embedded
// inline (cid) so the conference pass renders inside the HTML body.
type Message struct {
	To      string
	Subject string
	HTML    string
	// InlinePNG, when set, is embedded with the given content id.
	InlinePNG     []byte
	InlinePNGName string
}

// Mailer is the transport boundary. The SMTP implementation is the production
// default; tests substitute a recorder.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig configures the SMTP mailer.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// SMTPMailer delivers messages over SMTP.
type SMTPMailer struct {
	cfg SMTPConfig
}

// NewSMTPMailer constructs the production mailer.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	message := mail.NewMsg()
	if err := message.From(m.cfg.From); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := message.To(msg.To); err != nil {
		return fmt.Errorf("set to address: %w", err)
	}
	message.Subject(msg.Subject)
	message.SetBodyString(mail.TypeTextHTML, msg.HTML)
	message.SetImportance(mail.ImportanceHigh)
	if len(msg.InlinePNG) > 0 {
		if err := message.EmbedReader(msg.InlinePNGName, bytes.NewReader(msg.InlinePNG)); err != nil {
			return fmt.Errorf("embed attachment: %w", err)
		}
	}

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.User),
		mail.WithPassword(m.cfg.Pass),
	)
	if err != nil {
		return fmt.Errorf("build smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, message); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
