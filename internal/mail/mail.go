// Package mail delivers notification emails.
package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

type Sender interface {
	Send(ctx context.Context, subject, body string, recipients []string) error
}

// SMTP sends mail through a relay with PLAIN auth.
type SMTP struct {
	host     string
	port     int
	user     string
	password string
	from     string
	send     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTP(host string, port int, user, password, from string) *SMTP {
	return &SMTP{host: host, port: port, user: user, password: password, from: from, send: smtp.SendMail}
}

func (s *SMTP) Send(ctx context.Context, subject, body string, recipients []string) error {
	if len(recipients) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if s.user != "" {
		auth = smtp.PlainAuth("", s.user, s.password, s.host)
	}
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	if err := s.send(addr, auth, s.from, recipients, compose(s.from, subject, body, recipients)); err != nil {
		return fmt.Errorf("send mail %q: %w", subject, err)
	}
	return nil
}

func compose(from, subject, body string, to []string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	if len(to) == 1 {
		b.WriteString("To: " + to[0] + "\r\n")
	} else {
		b.WriteString("To: undisclosed-recipients:;\r\n")
	}
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// Log only records outgoing mail. Used when no SMTP host is configured.
type Log struct {
	log *zap.Logger
}

func NewLog(log *zap.Logger) *Log {
	if log == nil {
		log = zap.NewNop()
	}
	return &Log{log: log}
}

func (l *Log) Send(_ context.Context, subject, _ string, recipients []string) error {
	l.log.Info("mail suppressed", zap.String("subject", subject), zap.Int("recipients", len(recipients)))
	return nil
}
