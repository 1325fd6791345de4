// Package email sends plain-text mail over SMTP with STARTTLS auth.
package email

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"
)

type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// SendText delivers a plain-text message to a single recipient. It is a
// no-op error when SMTP is not configured, so callers can fire and forget.
func SendText(cfg SMTPConfig, to, subject, body string) error {
	if cfg.Host == "" {
		return errors.New("email: smtp not configured")
	}
	from := cfg.From
	if from == "" {
		from = cfg.User
	}

	var msg strings.Builder
	msg.WriteString("From: " + from + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	}
	return smtp.SendMail(addr, auth, from, []string{to}, []byte(msg.String()))
}
