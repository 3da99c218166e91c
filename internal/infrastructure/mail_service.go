package infrastructure

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

type MailService struct {
	client *sendgrid.Client
	from   *mail.Email
	log    *zap.Logger
}

func NewMailService(apiKey, sender, senderName string, log *zap.Logger) *MailService {
	return &MailService{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(senderName, sender),
		log:    log,
	}
}

func (m *MailService) SendVerification(ctx context.Context, email, username, link string) error {
	subject := "Verify your account"
	plainTextContent := fmt.Sprintf("Hi %s,\n\nconfirm your email address by opening:\n%s\n", username, link)
	htmlContent := fmt.Sprintf(`<p>Hi %s,</p><p>Confirm your email address by clicking <a href="%s">this link</a>.</p>`, username, link)
	return m.send(ctx, email, username, subject, plainTextContent, htmlContent)
}

func (m *MailService) SendPasswordReset(ctx context.Context, email, username, link string) error {
	subject := "Reset your password"
	plainTextContent := fmt.Sprintf("Hi %s,\n\nreset your password by opening:\n%s\n\nIf you did not ask for this, ignore this email.\n", username, link)
	htmlContent := fmt.Sprintf(`<p>Hi %s,</p><p>Reset your password by clicking <a href="%s">this link</a>.</p><p>If you did not ask for this, ignore this email.</p>`, username, link)
	return m.send(ctx, email, username, subject, plainTextContent, htmlContent)
}

func (m *MailService) send(ctx context.Context, email, username, subject, plainTextContent, htmlContent string) error {
	to := mail.NewEmail(username, email)
	message := mail.NewSingleEmail(m.from, subject, to, plainTextContent, htmlContent)

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("send %q mail: %w", subject, err)
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("send %q mail: sendgrid status %d", subject, response.StatusCode)
	}

	m.log.Debug("email sent", zap.String("subject", subject), zap.Int("status", response.StatusCode))
	return nil
}

// LogNotifier stands in for MailService in local development. It writes the
// links to the log instead of mailing them.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendVerification(_ context.Context, email, username, link string) error {
	n.log.Info("verification link", zap.String("email", email), zap.String("username", username), zap.String("link", link))
	return nil
}

func (n *LogNotifier) SendPasswordReset(_ context.Context, email, username, link string) error {
	n.log.Info("password reset link", zap.String("email", email), zap.String("username", username), zap.String("link", link))
	return nil
}
