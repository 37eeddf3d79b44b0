package mailer

import (
	"context"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

const mailgunTimeout = 10 * time.Second

// Mailgun is the Transport backed by the Mailgun HTTP API. It is safe for
// concurrent use.
type Mailgun struct {
	Sender string
	Tag    string

	client *mg.MailgunImpl
}

func NewMailgun(domain, apiKey, sender string) *Mailgun {
	return &Mailgun{Sender: sender, Tag: "radar", client: mg.NewMailgun(domain, apiKey)}
}

// WithAPIBase points the client at another endpoint, e.g. the EU region.
func (m *Mailgun) WithAPIBase(base string) *Mailgun {
	m.client.SetAPIBase(base)
	return m
}

// Send delivers one message. html is optional.
func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	msg := m.client.NewMessage(m.Sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	if m.Tag != "" {
		_ = msg.AddTag(m.Tag)
	}
	c, cancel := context.WithTimeout(ctx, mailgunTimeout)
	defer cancel()
	_, _, err := m.client.Send(c, msg)
	return err
}
