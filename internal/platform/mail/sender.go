package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	cfgpkg "github.com/csinmamit/membership/pkg/config"
	"github.com/csinmamit/membership/pkg/tool"
)

type SendResult struct {
	MessageID string
	SentAt    time.Time
}

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) (SendResult, error)
}

type SMTPSender struct {
	addr string
	auth smtp.Auth
	from string
	// send is smtp.SendMail outside of tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(cfg cfgpkg.SMTPConfig) *SMTPSender {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPSender{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		auth: smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host),
		from: from,
		send: smtp.SendMail,
	}
}

func (s *SMTPSender) SendEmail(ctx context.Context, to, subject, htmlBody string) (SendResult, error) {
	if err := ctx.Err(); err != nil {
		return SendResult{}, err
	}
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return SendResult{}, fmt.Errorf("smtp send: header injection rejected")
	}
	id := tool.GenerateUUIDV7()
	msg := []byte(
		"From: " + s.from + "\r\n" +
			"To: " + to + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"Message-ID: <" + id + "@membership>\r\n" +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n" +
			"\r\n" +
			htmlBody,
	)
	if err := s.send(s.addr, s.auth, s.from, []string{to}, msg); err != nil {
		return SendResult{}, fmt.Errorf("smtp send failed: %w", err)
	}
	return SendResult{MessageID: id, SentAt: time.Now()}, nil
}

// NopSender drops every message. Used when SMTP is not configured.
type NopSender struct{}

func (NopSender) SendEmail(context.Context, string, string, string) (SendResult, error) {
	return SendResult{}, nil
}

func NewSender(l *zap.SugaredLogger, cfg *cfgpkg.Config) EmailSender {
	if !cfg.SMTP.Configured() {
		l.Infow("smtp not configured, membership emails disabled")
		return NopSender{}
	}
	return NewSMTPSender(cfg.SMTP)
}

var Module = fx.Options(
	fx.Provide(NewSender),
)
