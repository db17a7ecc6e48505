// Package mail delivers outbound email. Delivery failure is never fatal to
// the request that triggered it; callers surface it as a warning.
package mail

import (
	"log"
	"strings"

	"gopkg.in/gomail.v2"
)

// Sender defines the interface for outbound mail delivery
type Sender interface {
	Send(toAddress, subject, body string) error
}

// SMTPSender delivers mail through an SMTP relay
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender creates a sender for the given relay
func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// Send delivers a plain-text message
func (s *SMTPSender) Send(toAddress, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", toAddress)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	return s.dialer.DialAndSend(m)
}

// LogSender is used when SMTP is not configured: it logs that a message
// would have been sent. The body is not logged (it carries the reset code).
type LogSender struct{}

// Send logs the delivery with a masked recipient
func (LogSender) Send(toAddress, subject, body string) error {
	log.Printf("mail (dev): to=%s subject=%q", MaskEmail(toAddress), subject)
	return nil
}

// MaskEmail masks the local part of an address for logging (e.g. al***@x.com)
func MaskEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		return "****"
	}
	local := email[:at]
	if len(local) <= 2 {
		return local[:1] + "***" + email[at:]
	}
	return local[:2] + strings.Repeat("*", len(local)-2) + email[at:]
}
