// Package notify sends customer-facing email for booking lifecycle
// events.
package notify

import (
	"context"
	"fmt"

	"github.com/serenity-spa/booking-platform/internal/bookings"
	"github.com/serenity-spa/booking-platform/internal/catalog"
	"github.com/serenity-spa/booking-platform/pkg/logging"
)

// ServiceNamer resolves a service id to its display name for email
// copy. *catalog.Catalog satisfies it.
type ServiceNamer interface {
	Service(id string) (catalog.Service, error)
}

// EmailNotifier implements bookings.Notifier by emailing the customer
// on lifecycle events.
type EmailNotifier struct {
	sender  EmailSender
	catalog ServiceNamer
	logger  *logging.Logger
}

// NewEmailNotifier creates a booking email notifier. A nil catalog is
// allowed; emails then fall back to the raw service id.
func NewEmailNotifier(sender EmailSender, cat ServiceNamer, logger *logging.Logger) *EmailNotifier {
	if sender == nil {
		panic("notify: email sender required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &EmailNotifier{sender: sender, catalog: cat, logger: logger}
}

// NotifyBookingEvent sends the email matching the lifecycle event.
// Events with no customer-facing copy are skipped.
func (n *EmailNotifier) NotifyBookingEvent(ctx context.Context, event string, b *bookings.Booking) error {
	if b.CustomerEmail == "" {
		return nil
	}

	subject, body := n.compose(event, b)
	if subject == "" {
		return nil
	}

	msg := EmailMessage{
		To:      b.CustomerEmail,
		ToName:  b.CustomerName,
		Subject: subject,
		Body:    body,
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: booking %s event %s: %w", b.ID, event, err)
	}
	n.logger.Info("booking email sent", "event", event, "booking_id", b.ID)
	return nil
}

func (n *EmailNotifier) compose(event string, b *bookings.Booking) (subject, body string) {
	serviceName := b.ServiceID
	if n.catalog != nil {
		if svc, err := n.catalog.Service(b.ServiceID); err == nil {
			serviceName = svc.Name
		}
	}
	when := fmt.Sprintf("%s at %s", b.Date, b.Start.String())

	switch event {
	case bookings.EventCreated:
		subject = "Your appointment request is in"
		body = fmt.Sprintf(
			"Hi %s,\n\nWe received your request for %s on %s. "+
				"Your slot is held and will be confirmed once your deposit is processed.\n\nSerenity Spa",
			displayName(b.CustomerName), serviceName, when)
	case bookings.EventConfirmed:
		subject = "Your appointment is confirmed"
		body = fmt.Sprintf(
			"Hi %s,\n\nYour %s appointment on %s is confirmed. We look forward to seeing you.\n\nSerenity Spa",
			displayName(b.CustomerName), serviceName, when)
	case bookings.EventCancelled:
		subject = "Your appointment was cancelled"
		body = fmt.Sprintf(
			"Hi %s,\n\nYour %s appointment on %s has been cancelled. "+
				"Reply to this email if that wasn't expected.\n\nSerenity Spa",
			displayName(b.CustomerName), serviceName, when)
	}
	return subject, body
}

func displayName(name string) string {
	if name == "" {
		return "there"
	}
	return name
}
