// Package mail defines the outbound e-mail contract. Delivery is a
// black-box collaborator; the core only ever calls Send.
package mail

import (
	"fmt"
	"net/smtp"
)

// Message is a single outbound e-mail.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers messages.
type Sender interface {
	Send(msg Message) error
}

// SMTPSender delivers mail through a plain SMTP relay.
type SMTPSender struct {
	addr string
	from string
}

// NewSMTPSender creates a sender relaying through addr (host:port).
func NewSMTPSender(addr, from string) *SMTPSender {
	return &SMTPSender{addr: addr, from: from}
}

// Send delivers one message.
func (s *SMTPSender) Send(msg Message) error {
	body := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, msg.To, msg.Subject, msg.HTML,
	)
	if err := smtp.SendMail(s.addr, nil, s.from, []string{msg.To}, []byte(body)); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}
