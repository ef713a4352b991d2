/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package report

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SMTPConfig configures e-mail delivery.
type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	FromName   string
	To         []string
	MaxElapsed time.Duration
}

// Enabled reports whether enough is configured to send mail.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && len(c.To) > 0 && c.sender() != ""
}

func (c SMTPConfig) sender() string {
	if c.From != "" {
		return c.From
	}
	return c.Username
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSink e-mails the HTML report with a plain-text alternative.
type SMTPSink struct {
	cfg      SMTPConfig
	sendMail sendMailFunc
	logger   zerolog.Logger
}

// NewSMTPSink creates an e-mail sink.
func NewSMTPSink(cfg SMTPConfig, logger zerolog.Logger) (*SMTPSink, error) {
	if !cfg.Enabled() {
		return nil, errors.New("SMTP not configured")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.MaxElapsed <= 0 {
		cfg.MaxElapsed = 2 * time.Minute
	}
	return &SMTPSink{
		cfg:      cfg,
		sendMail: smtp.SendMail,
		logger:   logger.With().Str("component", "report_smtp").Logger(),
	}, nil
}

// Name implements Sink.
func (s *SMTPSink) Name() string { return "smtp" }

func (s *SMTPSink) addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

func (s *SMTPSink) auth() smtp.Auth {
	if s.cfg.Username == "" {
		return nil
	}
	return smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
}

// Deliver implements Sink. Transient failures are retried with exponential
// backoff until MaxElapsed.
func (s *SMTPSink) Deliver(ctx context.Context, r *Report) error {
	msg := s.buildMessage(r)

	operation := func() error {
		if err := s.sendMail(s.addr(), s.auth(), s.cfg.sender(), s.cfg.To, msg); err != nil {
			return fmt.Errorf("SMTP send failed: %w", err)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = s.cfg.MaxElapsed
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return &DeliveryError{Sink: s.Name(), Err: err}
	}

	s.logger.Info().
		Str("report_id", r.ID.String()).
		Strs("to", s.cfg.To).
		Str("subject", r.Subject).
		Int("records", r.Summary.Total).
		Msg("report e-mailed")
	return nil
}

// Verify connects to the server and authenticates without sending.
func (s *SMTPSink) Verify(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", s.addr())
	if err != nil {
		return fmt.Errorf("dial SMTP server: %w", err)
	}
	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("SMTP handshake: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return fmt.Errorf("SMTP STARTTLS: %w", err)
		}
	}
	if auth := s.auth(); auth != nil {
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth: %w", err)
		}
	}
	return c.Quit()
}

func (s *SMTPSink) buildMessage(r *Report) []byte {
	from := s.cfg.sender()
	if s.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.cfg.FromName, from)
	}
	boundary := "pirwatch-" + uuid.NewString()
	domain := s.cfg.Host
	if at := strings.LastIndex(s.cfg.sender(), "@"); at >= 0 {
		domain = s.cfg.sender()[at+1:]
	}

	msg := strings.Builder{}
	msg.WriteString(fmt.Sprintf("From: %s\r\n", from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(s.cfg.To, ", ")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", r.Subject))
	msg.WriteString(fmt.Sprintf("Date: %s\r\n", r.GeneratedAt.Format(time.RFC1123Z)))
	msg.WriteString(fmt.Sprintf("Message-ID: <%s@%s>\r\n", r.ID.String(), domain))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q\r\n", boundary))
	msg.WriteString("\r\n")

	msg.WriteString("--" + boundary + "\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	msg.WriteString(crlf(r.Text))
	msg.WriteString("\r\n--" + boundary + "\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.WriteString(crlf(r.HTML))
	msg.WriteString("\r\n--" + boundary + "--\r\n")
	return []byte(msg.String())
}

func crlf(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\n", "\r\n")
}
