package notify

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/spec-kit/civic-request-service/internal/config"
)

// EmailNotifier delivers citizen notifications over SMTP.
type EmailNotifier struct {
	dialer *gomail.Dialer
	from   string
}

// NewEmailNotifier builds a notifier from SMTP settings. Returns nil when no
// host is configured, which disables outbound email.
func NewEmailNotifier(cfg config.NotificationConfig) *EmailNotifier {
	if cfg.SMTPHost == "" {
		return nil
	}
	return &EmailNotifier{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SenderEmail, cfg.SenderPassword),
		from:   cfg.SenderEmail,
	}
}

// NotifySubmitted emails the submission confirmation with the tracking number.
func (n *EmailNotifier) NotifySubmitted(_ context.Context, toEmail, requestNumber, title string) error {
	subject := fmt.Sprintf("Service request received - %s", requestNumber)
	body := fmt.Sprintf(
		"<h3>Your service request has been received</h3>"+
			"<p>Request number: <strong>%s</strong></p>"+
			"<p>Subject: %s</p>"+
			"<p>You can track the progress of your request with this number.</p>",
		requestNumber, title)
	return n.send(toEmail, subject, body)
}

// NotifyStatusChanged emails a status update for a tracked request.
func (n *EmailNotifier) NotifyStatusChanged(_ context.Context, toEmail, requestNumber, title, newStatusName string) error {
	subject := fmt.Sprintf("Service request updated - %s", requestNumber)
	body := fmt.Sprintf(
		"<h3>Your service request has been updated</h3>"+
			"<p>Request number: <strong>%s</strong></p>"+
			"<p>Subject: %s</p>"+
			"<p>New status: <strong>%s</strong></p>",
		requestNumber, title, newStatusName)
	return n.send(toEmail, subject, body)
}

func (n *EmailNotifier) send(toEmail, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", n.from)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)
	return n.dialer.DialAndSend(msg)
}
