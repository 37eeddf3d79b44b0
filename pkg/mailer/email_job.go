package mailer

import (
	"errors"
	"fmt"

	mailtpl "github.com/oksasatya/competitor-radar/pkg/mailer/templates"
)

var ErrInvalidJob = errors.New("invalid email job")

// EmailJob is the JSON payload put on the RabbitMQ queue. Either Template
// (with Data) or a literal Subject plus Text/HTML must be set.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // mailtpl.MagicLink or mailtpl.ReportReady
	Data     map[string]any `json:"data,omitempty"`
}

// Validate rejects jobs that can never be delivered, so the worker can
// drop them instead of retrying.
func (j EmailJob) Validate() error {
	switch {
	case j.To == "":
		return fmt.Errorf("%w: no recipient", ErrInvalidJob)
	case j.Template != "" && !mailtpl.Known(j.Template):
		return fmt.Errorf("%w: unknown template %q", ErrInvalidJob, j.Template)
	case j.Template == "" && j.Subject == "":
		return fmt.Errorf("%w: no subject", ErrInvalidJob)
	}
	return nil
}
