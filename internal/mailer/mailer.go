// Package mailer wraps the SMTP email transport used by the mailer
// worker.  Delivery failures are returned to the caller, which
// records them on the notification row; nothing here retries.
package mailer

import (
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// Config carries the SMTP transport settings.
type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

// SMTPMailer delivers email over SMTP.  Each message gets a generated
// Message-ID which is returned to the caller and stored in the
// notification metadata.
type SMTPMailer struct {
	cfg Config
}

func New(cfg Config) *SMTPMailer { return &SMTPMailer{cfg: cfg} }

// Send delivers one HTML email and returns its Message-ID.  The
// dialer connects per send; a hung connection blocks only the worker
// slot that called it.
func (m *SMTPMailer) Send(to, subject, htmlBody string) (string, error) {
	msgID := fmt.Sprintf("<%s@%s>", uuid.NewString(), m.cfg.Host)

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.cfg.FromEmail, m.cfg.FromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetHeader("Message-Id", msgID)
	msg.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	if err := d.DialAndSend(msg); err != nil {
		return "", err
	}
	return msgID, nil
}
