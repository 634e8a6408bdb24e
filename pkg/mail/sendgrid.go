package mail

import (
	"context"
	"fmt"
	"html"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/tair/course-checkout/pkg/logger"
)

// Message is a plain email
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// SendGridClient sends transactional mail through SendGrid
type SendGridClient struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

// NewSendGridClient creates a new SendGrid mailer
func NewSendGridClient(apiKey, from, fromName string) *SendGridClient {
	return &SendGridClient{
		client:   sendgrid.NewSendClient(apiKey),
		from:     from,
		fromName: fromName,
	}
}

// Send delivers msg. Any status of 400 or above is an error.
func (c *SendGridClient) Send(ctx context.Context, msg Message) error {
	if c.from == "" {
		return fmt.Errorf("from address is empty")
	}
	if msg.To == "" {
		return fmt.Errorf("to address is empty")
	}

	message := sgmail.NewSingleEmail(
		sgmail.NewEmail(c.fromName, c.from),
		msg.Subject,
		sgmail.NewEmail(msg.ToName, msg.To),
		msg.Text,
		htmlBody(msg),
	)

	response, err := c.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", response.StatusCode, response.Body)
	}

	logger.Info(ctx).
		Int("status", response.StatusCode).
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("Mail sent")
	return nil
}

// htmlBody returns msg.HTML, or the escaped plain text wrapped in <pre>
func htmlBody(msg Message) string {
	if msg.HTML != "" {
		return msg.HTML
	}
	return fmt.Sprintf("<pre>%s</pre>", html.EscapeString(msg.Text))
}
