package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/curbcycle/pickup-platform/pkg/logging"
)

// Recipient identifies where a notification goes. At least one of Email or
// Phone must be set; when both are set, both channels are used.
type Recipient struct {
	ID    string
	Name  string
	Email string
	Phone string
}

// Service renders templates and fans out over the configured channels.
type Service struct {
	email    EmailSender
	sms      SMSSender
	renderer Renderer
	logger   *logging.Logger
}

// NewService creates a notification service.
func NewService(email EmailSender, sms SMSSender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, sms: sms, logger: logger}
}

// Send renders the template identified by templateID and delivers it to
// every channel the recipient has contact details for.
func (s *Service) Send(ctx context.Context, templateID string, rcpt Recipient, data map[string]string) error {
	tmpl, err := Lookup(templateID)
	if err != nil {
		return err
	}
	if rcpt.Email == "" && rcpt.Phone == "" {
		return fmt.Errorf("notify: recipient %q has no contact details", rcpt.ID)
	}

	merged := map[string]string{"Name": rcpt.Name}
	for k, v := range data {
		merged[k] = v
	}

	var errs []error
	if rcpt.Email != "" && s.email != nil {
		subject, err := s.renderer.Render(templateID+"_subject", tmpl.Subject, merged)
		if err != nil {
			return err
		}
		body, err := s.renderer.Render(templateID+"_email", tmpl.Email, merged)
		if err != nil {
			return err
		}
		msg := EmailMessage{To: rcpt.Email, ToName: rcpt.Name, Subject: subject, Body: body}
		if err := s.email.Send(ctx, msg); err != nil {
			s.logger.Error("notify: email send failed", "error", err, "template", templateID, "recipient", rcpt.ID)
			errs = append(errs, err)
		}
	}
	if rcpt.Phone != "" && s.sms != nil {
		body, err := s.renderer.Render(templateID+"_sms", tmpl.SMS, merged)
		if err != nil {
			return err
		}
		if err := s.sms.SendSMS(ctx, rcpt.Phone, body); err != nil {
			s.logger.Error("notify: sms send failed", "error", err, "template", templateID, "recipient", rcpt.ID)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return fmt.Errorf("notify: %d delivery failure(s): %s", len(errs), strings.Join(msgs, "; "))
	}
	return nil
}
