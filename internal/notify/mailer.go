package notify

import (
	"os"

	"gopkg.in/gomail.v2"

	"github.com/careform/intake/internal/utils"
)

// SMTPMailer delivers notification mail over SMTP.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailerFromEnv builds a mailer from INTAKE_SMTP_* variables, or
// returns nil when no host is configured.
func NewSMTPMailerFromEnv() *SMTPMailer {
	host := os.Getenv("INTAKE_SMTP_HOST")
	if host == "" {
		return nil
	}
	port := utils.EnvInt("INTAKE_SMTP_PORT", 587)
	user := os.Getenv("INTAKE_SMTP_USER")
	pass := os.Getenv("INTAKE_SMTP_PASS")
	from := os.Getenv("INTAKE_SMTP_FROM")
	if from == "" {
		from = user
	}
	return &SMTPMailer{dialer: gomail.NewDialer(host, port, user, pass), from: from}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return m.dialer.DialAndSend(msg)
}
