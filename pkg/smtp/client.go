package smtp

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/blueskyapp/social-api/config"
)

// Client sends plain-text mail over authenticated SMTP. The reset flow uses
// it to deliver one-time codes; everything else about mail (templates,
// bounces, queues) lives outside this service.
type Client struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
}

// NewClient creates an SMTP client from the loaded configuration.
func NewClient(cfg config.SMTPConfig) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is not configured")
	}
	if cfg.FromEmail == "" {
		return nil, fmt.Errorf("smtp from address is not configured")
	}

	return &Client{
		host:      cfg.Host,
		port:      cfg.Port,
		username:  cfg.Username,
		password:  cfg.Password,
		fromEmail: cfg.FromEmail,
	}, nil
}

// Send delivers a plain-text message to a single recipient.
func (c *Client) Send(to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("recipient is required")
	}
	if subject == "" {
		return fmt.Errorf("subject is required")
	}

	msg := c.buildMessage(to, subject, body)
	addr := fmt.Sprintf("%s:%d", c.host, c.port)

	var auth smtp.Auth
	if c.username != "" {
		auth = smtp.PlainAuth("", c.username, c.password, c.host)
	}

	if err := smtp.SendMail(addr, auth, c.fromEmail, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}

	return nil
}

func (c *Client) buildMessage(to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", c.fromEmail)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}
