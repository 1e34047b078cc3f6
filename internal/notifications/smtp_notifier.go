package notifications

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// SMTPNotifier delivers over plain SMTP with STARTTLS. Good enough for
// a transactional welcome mail; anything fancier belongs in a provider.
type SMTPNotifier struct {
	cfg SMTPConfig
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg}
}

func (n *SMTPNotifier) SendWelcomeEmail(ctx context.Context, in WelcomeEmailInput) error {
	// net/smtp has no context support; honour cancellation up front
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := buildWelcomeMessage(n.cfg.From, in)

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	auth := smtp.PlainAuth("", n.cfg.User, n.cfg.Password, n.cfg.Host)

	if err := smtp.SendMail(addr, auth, n.cfg.From, []string{in.Email}, msg); err != nil {
		return fmt.Errorf("send welcome email: %w", err)
	}

	return nil
}

func buildWelcomeMessage(from string, in WelcomeEmailInput) []byte {
	var b strings.Builder

	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + in.Email + "\r\n")
	b.WriteString("Subject: Welcome to Arcodify!\r\n")
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString("Dear " + in.Username + ",\r\n\r\n")
	b.WriteString("Welcome to Arcodify! Your account has been successfully created.\r\n\r\n")
	b.WriteString("We're excited to have you on board!\r\n\r\n")
	b.WriteString("Best regards,\r\nThe Arcodify Team\r\n")

	return []byte(b.String())
}
