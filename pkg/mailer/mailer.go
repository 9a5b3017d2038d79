// Package mailer sends departmental notification mail over SMTP.
//
// Recipients are always blind-copied; the visible To header carries the
// department's own address. Send returns the generated Message-ID so later
// reminders can thread onto the original announcement.
package mailer

import (
	"encoding/base64"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"acadflow/backend/config"
)

// Message is one outbound departmental email.
type Message struct {
	Subject  string
	HTMLBody string
	// BCC is the full recipient list; it never appears in headers.
	BCC []string
	// InReplyTo threads this message onto a previous Message-ID.
	InReplyTo string
	// Calendar, when non-empty, is attached as invite.ics.
	Calendar string
}

// Mailer sends Messages through a single SMTP account.
type Mailer struct {
	cfg    *config.MailConfig
	logger *zap.Logger
}

// New builds a Mailer from mail config.
func New(cfg *config.MailConfig, logger *zap.Logger) *Mailer {
	return &Mailer{cfg: cfg, logger: logger}
}

// IsConfigured reports whether SMTP credentials are present.
func (m *Mailer) IsConfigured() bool {
	return m.cfg.SMTPHost != "" && m.cfg.Username != ""
}

// Send delivers the message and returns its Message-ID.
func (m *Mailer) Send(msg *Message) (string, error) {
	if !m.IsConfigured() {
		return "", fmt.Errorf("smtp not configured")
	}
	if len(msg.BCC) == 0 {
		return "", fmt.Errorf("no recipients")
	}

	domain := m.cfg.From
	if i := strings.LastIndex(domain, "@"); i >= 0 {
		domain = domain[i+1:]
	}
	messageID := fmt.Sprintf("<%s@%s>", uuid.New().String(), domain)

	raw := m.build(msg, messageID)

	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.SMTPHost)

	if err := smtp.SendMail(addr, auth, m.cfg.From, msg.BCC, []byte(raw)); err != nil {
		return "", fmt.Errorf("smtp send: %w", err)
	}

	m.logger.Info("mail sent",
		zap.String("subject", msg.Subject),
		zap.Int("recipients", len(msg.BCC)),
	)

	return messageID, nil
}

func (m *Mailer) build(msg *Message, messageID string) string {
	var b strings.Builder

	b.WriteString("From: " + m.cfg.From + "\r\n")
	b.WriteString("To: " + m.cfg.From + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("Message-ID: " + messageID + "\r\n")
	b.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	if msg.InReplyTo != "" {
		b.WriteString("In-Reply-To: " + msg.InReplyTo + "\r\n")
		b.WriteString("References: " + msg.InReplyTo + "\r\n")
	}
	b.WriteString("MIME-Version: 1.0\r\n")

	if msg.Calendar == "" {
		b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		b.WriteString(msg.HTMLBody)
		return b.String()
	}

	boundary := "acadflow-" + uuid.New().String()
	b.WriteString("Content-Type: multipart/mixed; boundary=" + boundary + "\r\n\r\n")

	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(msg.HTMLBody)
	b.WriteString("\r\n")

	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Type: text/calendar; method=REQUEST; charset=UTF-8\r\n")
	b.WriteString("Content-Disposition: attachment; filename=invite.ics\r\n")
	b.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")
	b.WriteString(base64.StdEncoding.EncodeToString([]byte(msg.Calendar)))
	b.WriteString("\r\n--" + boundary + "--\r\n")

	return b.String()
}
