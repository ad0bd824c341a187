// Package crm forwards booking lifecycle events to the spa's CRM over
// a JSON webhook.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/serenity-spa/booking-platform/internal/bookings"
	"github.com/serenity-spa/booking-platform/pkg/logging"
)

const (
	defaultTimeout = 10 * time.Second
	maxAttempts    = 3
	retryBackoff   = 500 * time.Millisecond
)

type webhookPayload struct {
	Event         string `json:"event"`
	BookingID     string `json:"booking_id"`
	ServiceID     string `json:"service_id"`
	StaffID       string `json:"staff_id"`
	RoomID        string `json:"room_id"`
	Date          string `json:"date"`
	Start         string `json:"start_time"`
	End           string `json:"end_time"`
	Status        string `json:"status"`
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
	SentAt        string `json:"sent_at"`
}

// Notifier POSTs booking events to the CRM webhook URL.
type Notifier struct {
	url        string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewNotifier creates a CRM notifier. Returns nil when no URL is
// configured so callers can skip wiring it.
func NewNotifier(url string, timeout time.Duration, logger *logging.Logger) *Notifier {
	if url == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Notifier{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// NotifyBookingEvent delivers the event, retrying transient failures a
// bounded number of times.
func (n *Notifier) NotifyBookingEvent(ctx context.Context, event string, b *bookings.Booking) error {
	payload := webhookPayload{
		Event:         event,
		BookingID:     b.ID.String(),
		ServiceID:     b.ServiceID,
		StaffID:       b.StaffID,
		RoomID:        b.RoomID,
		Date:          b.Date,
		Start:         b.Start.String(),
		End:           b.End.String(),
		Status:        string(b.Status),
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		SentAt:        time.Now().UTC().Format(time.RFC3339),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("crm: marshal payload: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBackoff * time.Duration(attempt-1)):
			}
		}
		lastErr = n.post(ctx, body)
		if lastErr == nil {
			n.logger.Info("crm event delivered", "event", event, "booking_id", b.ID, "attempt", attempt)
			return nil
		}
		if !retryable(lastErr) {
			break
		}
		n.logger.Warn("crm delivery failed, will retry", "event", event, "attempt", attempt, "error", lastErr)
	}
	return fmt.Errorf("crm: deliver %s for booking %s: %w", event, b.ID, lastErr)
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("crm webhook returned status %d", e.code)
}

func (n *Notifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return &statusError{code: resp.StatusCode}
	}
	return nil
}

// retryable treats transport errors and 5xx responses as transient.
// 4xx means the payload is wrong and retrying cannot help.
func retryable(err error) bool {
	if se, ok := err.(*statusError); ok {
		return se.code >= 500
	}
	return true
}
