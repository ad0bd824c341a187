package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/serenity-spa/booking-platform/internal/bookings"
	"github.com/serenity-spa/booking-platform/internal/catalog"
)

type mockEmailSender struct {
	sent    []EmailMessage
	callErr error
}

func (m *mockEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	if m.callErr != nil {
		return m.callErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

func emailFixture() (*EmailNotifier, *mockEmailSender) {
	sender := &mockEmailSender{}
	cat := catalog.New(
		[]catalog.Service{{ID: "svc-facial", Name: "Signature Facial", DurationMinutes: 50}},
		nil, nil,
	)
	return NewEmailNotifier(sender, cat, nil), sender
}

func notifyBooking() *bookings.Booking {
	return &bookings.Booking{
		ID:            uuid.New(),
		ServiceID:     "svc-facial",
		Date:          "2026-03-16",
		Start:         14 * 60,
		End:           14*60 + 50,
		Status:        bookings.StatusPending,
		CustomerName:  "Jess",
		CustomerEmail: "jess@example.com",
	}
}

func TestNotifySendsConfirmationEmail(t *testing.T) {
	notifier, sender := emailFixture()

	err := notifier.NotifyBookingEvent(context.Background(), bookings.EventConfirmed, notifyBooking())
	if err != nil {
		t.Fatalf("NotifyBookingEvent: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.To != "jess@example.com" {
		t.Fatalf("to = %s", msg.To)
	}
	if !strings.Contains(msg.Subject, "confirmed") {
		t.Fatalf("subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "Signature Facial") {
		t.Fatalf("body should name the service: %q", msg.Body)
	}
	if !strings.Contains(msg.Body, "2026-03-16 at 14:00") {
		t.Fatalf("body should name the slot: %q", msg.Body)
	}
}

func TestNotifySkipsEventsWithoutCopy(t *testing.T) {
	notifier, sender := emailFixture()

	for _, event := range []string{bookings.EventCompleted, bookings.EventNoShow} {
		if err := notifier.NotifyBookingEvent(context.Background(), event, notifyBooking()); err != nil {
			t.Fatalf("%s: %v", event, err)
		}
	}
	if len(sender.sent) != 0 {
		t.Fatalf("sent %d emails, want 0", len(sender.sent))
	}
}

func TestNotifySkipsMissingEmail(t *testing.T) {
	notifier, sender := emailFixture()

	b := notifyBooking()
	b.CustomerEmail = ""
	if err := notifier.NotifyBookingEvent(context.Background(), bookings.EventCreated, b); err != nil {
		t.Fatalf("NotifyBookingEvent: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatal("should not send without a recipient")
	}
}

func TestNotifyFallsBackToServiceID(t *testing.T) {
	sender := &mockEmailSender{}
	notifier := NewEmailNotifier(sender, nil, nil)

	if err := notifier.NotifyBookingEvent(context.Background(), bookings.EventCreated, notifyBooking()); err != nil {
		t.Fatalf("NotifyBookingEvent: %v", err)
	}
	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0].Body, "svc-facial") {
		t.Fatalf("expected raw service id in body, got %v", sender.sent)
	}
}

func TestNotifierOverStubSender(t *testing.T) {
	// The api binary falls back to the stub sender when SendGrid is
	// unconfigured; the notifier must still run cleanly over it.
	notifier := NewEmailNotifier(NewStubEmailSender(nil), nil, nil)

	if err := notifier.NotifyBookingEvent(context.Background(), bookings.EventCreated, notifyBooking()); err != nil {
		t.Fatalf("NotifyBookingEvent over stub sender: %v", err)
	}
}

func TestNotifyWrapsSendErrors(t *testing.T) {
	sender := &mockEmailSender{callErr: errors.New("sendgrid down")}
	notifier := NewEmailNotifier(sender, nil, nil)

	err := notifier.NotifyBookingEvent(context.Background(), bookings.EventCancelled, notifyBooking())
	if err == nil || !strings.Contains(err.Error(), "sendgrid down") {
		t.Fatalf("got %v, want wrapped send error", err)
	}
}
