// Package mailer delivers transactional portal mail. Rendering is
// template-driven so deployments can rebrand the messages without a
// rebuild.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/inspectrack/inspectrack/internal/common/config"
	"go.uber.org/zap"
)

const magicLinkTemplate = "magic_link.tmpl"

// Message is a rendered mail ready for delivery.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Sender delivers rendered messages.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// MagicLinkData is the template context for magic-link mail.
type MagicLinkData struct {
	CompanyName string
	Email       string
	Link        string
	ExpiresIn   time.Duration
}

// Mailer renders and sends portal mail.
type Mailer struct {
	logger    *zap.Logger
	sender    Sender
	from      string
	templates map[string]*template.Template
}

// NewMailer loads every template under cfg.MailTemplates and returns a
// mailer delivering through sender.
func NewMailer(logger *zap.Logger, cfg config.PortalConfig, sender Sender) (*Mailer, error) {
	templates := make(map[string]*template.Template)

	entries, err := os.ReadDir(cfg.MailTemplates)
	if err != nil {
		return nil, fmt.Errorf("failed to read mail templates dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".tmpl" {
			continue
		}
		path := filepath.Join(cfg.MailTemplates, entry.Name())
		tmpl, err := template.New(entry.Name()).Funcs(sprig.TxtFuncMap()).ParseFiles(path)
		if err != nil {
			return nil, fmt.Errorf("failed to parse mail template %s: %w", entry.Name(), err)
		}
		templates[entry.Name()] = tmpl
	}
	if _, ok := templates[magicLinkTemplate]; !ok {
		return nil, fmt.Errorf("missing required mail template %s", magicLinkTemplate)
	}

	return &Mailer{
		logger:    logger.Named("mailer"),
		sender:    sender,
		from:      cfg.MailFrom,
		templates: templates,
	}, nil
}

// SendMagicLink renders and delivers a portal sign-in link.
func (m *Mailer) SendMagicLink(ctx context.Context, to string, data MagicLinkData) error {
	body, err := m.render(magicLinkTemplate, data)
	if err != nil {
		return err
	}

	msg := &Message{
		From:    m.from,
		To:      to,
		Subject: fmt.Sprintf("Acceso al portal de calidad de %s", data.CompanyName),
		Body:    body,
	}
	if err := m.sender.Send(ctx, msg); err != nil {
		m.logger.Error("failed to send magic link mail",
			zap.String("to", to),
			zap.Error(err))
		return err
	}

	m.logger.Info("magic link mail sent", zap.String("to", to))
	return nil
}

func (m *Mailer) render(name string, data any) (string, error) {
	tmpl, ok := m.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown mail template %s", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render mail template %s: %w", name, err)
	}
	return buf.String(), nil
}
