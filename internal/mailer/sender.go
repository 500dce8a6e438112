package mailer

import (
	"context"
	"fmt"
	"net"
	"net/smtp"

	"github.com/inspectrack/inspectrack/internal/common/config"
	"go.uber.org/zap"
)

// LogSender writes mail to the application log instead of delivering
// it. Used in development and as the default when no SMTP host is
// configured.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a sender that only logs messages.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger.Named("mailer.log")}
}

func (s *LogSender) Send(_ context.Context, msg *Message) error {
	s.logger.Info("outgoing mail",
		zap.String("from", msg.From),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body))
	return nil
}

// NewSenderFromConfig picks SMTP delivery when an address is
// configured and falls back to logging otherwise.
func NewSenderFromConfig(logger *zap.Logger, cfg config.PortalConfig) Sender {
	if cfg.SMTPAddr == "" {
		return NewLogSender(logger)
	}
	host, _, err := net.SplitHostPort(cfg.SMTPAddr)
	if err != nil {
		host = cfg.SMTPAddr
	}
	return NewSMTPSender(cfg.SMTPAddr, cfg.SMTPUser, cfg.SMTPPassword, host)
}

// SMTPSender delivers mail through a plain SMTP relay.
type SMTPSender struct {
	addr string
	auth smtp.Auth
}

// NewSMTPSender creates a sender for the relay at addr (host:port).
// Username may be empty for unauthenticated relays.
func NewSMTPSender(addr, username, password, host string) *SMTPSender {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPSender{addr: addr, auth: auth}
}

func (s *SMTPSender) Send(_ context.Context, msg *Message) error {
	payload := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		msg.From, msg.To, msg.Subject, msg.Body)
	return smtp.SendMail(s.addr, s.auth, msg.From, []string{msg.To}, []byte(payload))
}
