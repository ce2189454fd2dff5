// Package mailer delivers the download-ready notification over plain SMTP.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"edupay/internal/config"
	"edupay/internal/domain/ports/adapter"
)

var _ adapter.Mailer = (*SMTPMailer)(nil)

type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from string
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		auth: auth,
		from: cfg.From,
	}
}

func (m *SMTPMailer) SendDownloadReady(ctx context.Context, dm adapter.DownloadMail) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", dm.To)
	fmt.Fprintf(&b, "Subject: %s is ready for download\r\n", dm.ProductName)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n")
	fmt.Fprintf(&b, "Hello %s,\r\n\r\n", dm.StudentName)
	fmt.Fprintf(&b, "Your personalized %s is ready.\r\n\r\n", dm.ProductName)
	fmt.Fprintf(&b, "Download: %s\r\n", dm.DownloadLink)
	fmt.Fprintf(&b, "Password: %s\r\n", dm.Password)

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(m.addr, m.auth, m.from, []string{dm.To}, []byte(b.String()))
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send mail: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
