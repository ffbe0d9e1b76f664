package service

import (
	"errors"
	"fmt"
	"html"

	"ledger/config"

	"gopkg.in/gomail.v2"
)

// ErrEmailDisabled is returned when mail is switched off in configuration.
var ErrEmailDisabled = errors.New("email service disabled, set email.enabled=true")

// Mailer sends account notifications.
type Mailer interface {
	Enabled() bool
	SendWelcomeEmail(toEmail, username string, admin bool) error
}

// EmailService SMTP mailer
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService creates the SMTP mailer.
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// Enabled reports whether mail is configured on.
func (s *EmailService) Enabled() bool {
	return s != nil && s.cfg != nil && s.cfg.Enabled
}

// SendWelcomeEmail greets a freshly registered account.
func (s *EmailService) SendWelcomeEmail(toEmail, username string, admin bool) error {
	if !s.Enabled() {
		return ErrEmailDisabled
	}

	subject := "[Ledger] Welcome"
	body := s.generateWelcomeEmailBody(username, admin)

	return s.sendEmail(toEmail, subject, body)
}

func (s *EmailService) generateWelcomeEmailBody(username string, admin bool) string {
	role := "a regular account"
	if admin {
		role = "an administrator account"
	}
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; }
        .header { background: #2563eb; color: white; padding: 30px; text-align: center; }
        .content { padding: 40px 30px; color: #333; line-height: 1.8; }
        .footer { background: #f8f9fa; padding: 20px 30px; text-align: center; color: #6c757d; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header"><h1>Ledger</h1></div>
        <div class="content">
            <p>Hello <strong>%s</strong>,</p>
            <p>%s has been created for you. Log in with your email address to start recording transactions.</p>
        </div>
        <div class="footer"><p>This message was sent automatically, please do not reply.</p></div>
    </div>
</body>
</html>
`, html.EscapeString(username), role)
}

func (s *EmailService) sendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Username, s.cfg.From))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	return nil
}
