// Package mail renders and delivers purchase confirmation mails.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"text/template"
	"time"

	"go.uber.org/zap"

	"github.com/iftf/duoverkoop/internal/config"
	"github.com/iftf/duoverkoop/internal/queue"
)

const confirmationBody = `Hi {{.Event.Name}},

Thank you for buying a duo ticket for {{.Festival}}.

Your verification code: {{.Event.VerificationCode}}

{{range .Event.Performances}}- {{.Date.Format "Mon 02 Jan 15:04"}} | {{.Association}} | {{.Name}} | {{euro .PriceCents}}
{{end}}
Total: {{euro .Event.TotalCents}}

Show this code at the entrance of both performances.
`

var confirmationTmpl = template.Must(template.New("confirmation").
	Funcs(template.FuncMap{"euro": Euro}).
	Parse(confirmationBody))

// Euro formats cents as a euro amount, for example 1250 -> "€12.50".
func Euro(cents uint32) string {
	return fmt.Sprintf("€%d.%02d", cents/100, cents%100)
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends confirmation mails over SMTP.  With delivery disabled it
// renders the mail and logs it instead.
type Mailer struct {
	cfg  config.MailConfig
	log  *zap.Logger
	send sendFunc
	now  func() time.Time
}

// New returns a Mailer for cfg.
func New(cfg config.MailConfig, log *zap.Logger) *Mailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mailer{cfg: cfg, log: log, send: smtp.SendMail, now: time.Now}
}

// Channel names the delivery channel for metrics.
func (m *Mailer) Channel() string { return "mail" }

// Render builds the subject and plain-text body for ev.
func (m *Mailer) Render(ev queue.PurchaseConfirmedEvent) (string, string, error) {
	var buf bytes.Buffer
	err := confirmationTmpl.Execute(&buf, struct {
		Festival string
		Event    queue.PurchaseConfirmedEvent
	}{m.cfg.Festival, ev})
	if err != nil {
		return "", "", fmt.Errorf("render confirmation: %w", err)
	}
	subject := fmt.Sprintf("%s duo ticket: %s", m.cfg.Festival, ev.VerificationCode)
	return subject, buf.String(), nil
}

// PurchaseConfirmed renders and delivers the confirmation for ev.
func (m *Mailer) PurchaseConfirmed(_ context.Context, ev queue.PurchaseConfirmedEvent) error {
	subject, body, err := m.Render(ev)
	if err != nil {
		return err
	}
	if !m.cfg.Enabled {
		m.log.Info("mail delivery disabled, confirmation not sent",
			zap.Uint64("purchase_id", ev.PurchaseID),
			zap.String("to", ev.Email),
			zap.String("subject", subject))
		return nil
	}

	msg := m.buildMessage(ev.Email, subject, body)
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := m.send(addr, auth, m.cfg.From, []string{ev.Email}, msg); err != nil {
		return fmt.Errorf("send confirmation to %s: %w", ev.Email, err)
	}
	m.log.Info("confirmation mail sent", zap.Uint64("purchase_id", ev.PurchaseID), zap.String("to", ev.Email))
	return nil
}

func (m *Mailer) buildMessage(to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", m.now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}
