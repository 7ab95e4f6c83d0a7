// internal/services/notification_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/smtp"
	"net/url"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/bricolage-backend/internal/config"
	"github.com/javajoker/bricolage-backend/internal/models"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers one message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

func NewMailer(cfg config.EmailConfig) Mailer {
	if cfg.SMTPHost == "" {
		return LogMailer{}
	}
	return &SMTPMailer{cfg: cfg}
}

type SMTPMailer struct {
	cfg config.EmailConfig
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	addr := net.JoinHostPort(m.cfg.SMTPHost, m.cfg.SMTPPort)

	var auth smtp.Auth
	if m.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUsername, m.cfg.SMTPPassword, m.cfg.SMTPHost)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s <%s>\r\n", m.cfg.FromName, m.cfg.FromEmail)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	buf.WriteString(msg.Body)

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, m.cfg.FromEmail, []string{msg.To}, buf.Bytes())
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Message) error {
	logrus.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("Email not sent, SMTP is not configured\n" + msg.Body)
	return nil
}

// AsyncMailer hands messages to next in the background and never fails the caller.
type AsyncMailer struct {
	next    Mailer
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAsyncMailer(next Mailer, timeout time.Duration) *AsyncMailer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AsyncMailer{next: next, timeout: timeout}
}

func (m *AsyncMailer) Send(_ context.Context, msg Message) error {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		if err := m.next.Send(ctx, msg); err != nil {
			logrus.WithError(err).WithField("to", msg.To).Error("Failed to deliver email")
		}
	}()
	return nil
}

// Wait blocks until every queued message was handled.
func (m *AsyncMailer) Wait() {
	m.wg.Wait()
}

type NotificationService struct {
	mailer    Mailer
	config    *config.Config
	templates *template.Template
}

const emailTemplates = `
{{define "verification"}}Olá {{.Nome}},

Obrigado pelo seu registo na {{.Loja}}.
Para ativar a sua conta aceda a:

{{.URL}}

Se não criou esta conta ignore este email.
{{end}}
{{define "password_reset"}}Olá {{.Nome}},

Recebemos um pedido para redefinir a palavra-passe da sua conta.
O seu código de recuperação é:

{{.Token}}

Pode definir a nova palavra-passe em {{.URL}}
O código expira em {{.ExpiresIn}}.
{{end}}
`

func NewNotificationService(mailer Mailer, config *config.Config) *NotificationService {
	return &NotificationService{
		mailer:    mailer,
		config:    config,
		templates: template.Must(template.New("email").Parse(emailTemplates)),
	}
}

func (s *NotificationService) SendVerificationEmail(ctx context.Context, user *models.User, token string) {
	link := strings.TrimRight(s.config.Server.PublicURL, "/") + "/auth/verify-email?token=" + url.QueryEscape(token)
	s.send(ctx, user, "Confirme o seu email", "verification", map[string]interface{}{
		"Nome": user.Nome,
		"Loja": s.config.Email.FromName,
		"URL":  link,
	})
}

func (s *NotificationService) SendPasswordResetEmail(ctx context.Context, user *models.User, token string, ttl time.Duration) {
	query := url.Values{"email": {user.Email}, "token": {token}}
	link := strings.TrimRight(s.config.Frontend.BaseURL, "/") + "/reset-password?" + query.Encode()
	s.send(ctx, user, "Recuperação de palavra-passe", "password_reset", map[string]interface{}{
		"Nome":      user.Nome,
		"Token":     token,
		"URL":       link,
		"ExpiresIn": fmt.Sprintf("%.0f minutos", ttl.Minutes()),
	})
}

// send never fails the caller; delivery problems are only logged.
func (s *NotificationService) send(ctx context.Context, user *models.User, subject, templateName string, data map[string]interface{}) {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		logrus.WithError(err).WithField("template", templateName).Error("Failed to render email template")
		return
	}

	if err := s.mailer.Send(ctx, Message{To: user.Email, Subject: subject, Body: body.String()}); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"to":       user.Email,
			"template": templateName,
		}).Error("Failed to send email")
	}
}
