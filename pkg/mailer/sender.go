package mailer

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	mailtpl "github.com/oksasatya/competitor-radar/pkg/mailer/templates"
)

// Sender hands an email job to whatever delivers it.
type Sender interface {
	Send(ctx context.Context, job EmailJob) error
}

// Transport delivers an already rendered message.
type Transport interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Publisher is satisfied by helpers.RabbitPublisher.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// QueueSender enqueues jobs for cmd/email_worker.
type QueueSender struct {
	pub Publisher
}

func NewQueueSender(pub Publisher) *QueueSender { return &QueueSender{pub: pub} }

func (s *QueueSender) Send(ctx context.Context, job EmailJob) error {
	if err := s.pub.PublishJSON(ctx, job); err != nil {
		return fmt.Errorf("enqueue email to %s: %w", job.To, err)
	}
	return nil
}

// DirectSender renders and delivers in-process, for deployments without a broker.
type DirectSender struct {
	t Transport
}

func NewDirectSender(t Transport) *DirectSender { return &DirectSender{t: t} }

func (s *DirectSender) Send(ctx context.Context, job EmailJob) error {
	return Deliver(ctx, s.t, job)
}

// LogSender only logs the job. Used when MAIL_SEND_ENABLED=false.
type LogSender struct {
	Logger *logrus.Logger
}

func (s LogSender) Send(_ context.Context, job EmailJob) error {
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"to": job.To, "template": job.Template}).Info("email sending disabled, job dropped")
	}
	return nil
}

// Deliver renders the job's template, when it has one, and sends it.
func Deliver(ctx context.Context, t Transport, job EmailJob) error {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Email"] = job.To
	}

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		s, tx, h, err := mailtpl.Render(job.Template, job.Data)
		if err != nil {
			return fmt.Errorf("render %s: %w", job.Template, err)
		}
		subject, text, html = s, tx, h
	}
	if subject == "" {
		return fmt.Errorf("email to %s has no subject", job.To)
	}
	return t.Send(ctx, job.To, subject, text, html)
}
