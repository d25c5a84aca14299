// Package mail composes and delivers account emails (verification and
// password reset links).
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"

	gomail "github.com/wneessen/go-mail"

	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/config"
)

type Message struct {
	To      string
	Subject string
	HTML    string
	// Link is the action URL embedded in the body.
	Link string
}

// Dispatcher delivers a single message.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPDispatcher sends through an authenticated SMTP relay.
type SMTPDispatcher struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewSMTPDispatcher(cfg *config.Config) *SMTPDispatcher {
	return &SMTPDispatcher{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUser,
		password: cfg.SMTPPass,
		from:     cfg.MailFrom,
	}
}

func (d *SMTPDispatcher) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMsg()
	if err := m.From(d.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextHTML, msg.HTML)

	opts := []gomail.Option{
		gomail.WithPort(d.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(d.username),
		gomail.WithPassword(d.password),
	}
	if d.port == 465 {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	}

	client, err := gomail.NewClient(d.host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	slog.Info("mail sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

// LogDispatcher is used when SMTP is not configured; it logs the action link
// so local signups can still be completed.
type LogDispatcher struct{}

func (LogDispatcher) Send(_ context.Context, msg Message) error {
	slog.Info("mail delivery disabled, logging message", "to", msg.To, "subject", msg.Subject, "link", msg.Link)
	return nil
}

// NewDispatcher picks SMTP when credentials are present.
func NewDispatcher(cfg *config.Config) Dispatcher {
	if cfg.SMTPConfigured() {
		slog.Info("mail: using smtp relay", "host", cfg.SMTPHost, "port", cfg.SMTPPort)
		return NewSMTPDispatcher(cfg)
	}
	slog.Warn("mail: SMTP_HOST/SMTP_USER/SMTP_PASS not set, messages will only be logged")
	return LogDispatcher{}
}

var (
	verificationTmpl = template.Must(template.New("verify").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #39FF14;">Welcome to GymBro, {{.Username}}!</h2>
  <p>Please verify your email address to start your fitness journey.</p>
  <a href="{{.Link}}" style="display: inline-block; background-color: #39FF14; color: #000; padding: 12px 24px; text-decoration: none; border-radius: 5px; font-weight: bold;">Verify Email</a>
  <p>Or copy this link: {{.Link}}</p>
  <p>This link expires in {{.Expiry}}.</p>
</div>`))

	resetTmpl = template.Must(template.New("reset").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #39FF14;">Reset your GymBro password</h2>
  <p>Hi {{.Username}}, we received a request to reset your password.</p>
  <a href="{{.Link}}" style="display: inline-block; background-color: #39FF14; color: #000; padding: 12px 24px; text-decoration: none; border-radius: 5px; font-weight: bold;">Reset Password</a>
  <p>Or copy this link: {{.Link}}</p>
  <p>This link expires in {{.Expiry}}. If you did not ask for a reset, ignore this email.</p>
</div>`))
)

// Composer renders account emails with links rooted at the public API URL.
type Composer struct {
	baseURL string
}

func NewComposer(baseURL string) *Composer {
	return &Composer{baseURL: baseURL}
}

func (c *Composer) Verification(to, username, token, expiry string) (Message, error) {
	link := c.baseURL + "/api/users/verify-email/" + token
	body, err := render(verificationTmpl, username, link, expiry)
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Verify Your Email - GymBro", HTML: body, Link: link}, nil
}

func (c *Composer) PasswordReset(to, username, token, expiry string) (Message, error) {
	link := c.baseURL + "/api/users/reset-password/" + token
	body, err := render(resetTmpl, username, link, expiry)
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Reset Your Password - GymBro", HTML: body, Link: link}, nil
}

func render(tmpl *template.Template, username, link, expiry string) (string, error) {
	var buf bytes.Buffer
	err := tmpl.Execute(&buf, struct {
		Username string
		Link     string
		Expiry   string
	}{username, link, expiry})
	if err != nil {
		return "", fmt.Errorf("failed to render %s mail: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
