// Package payments receives deposit webhooks from the payment provider
// and drives booking confirmation off them.
package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/serenity-spa/booking-platform/internal/bookings"
	"github.com/serenity-spa/booking-platform/internal/observability/metrics"
	"github.com/serenity-spa/booking-platform/pkg/logging"
)

// Provider event types the handler acts on.
const (
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentFailed    = "payment.failed"
)

// SignatureHeader carries the base64 HMAC-SHA256 of the raw body.
const SignatureHeader = "X-Spa-Signature"

const providerName = "deposits"

type processedTracker interface {
	AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, provider, eventID string) (bool, error)
}

// bookingTransitioner is the slice of the bookings service the webhook
// needs. A succeeded deposit confirms the booking, a failed one
// releases the slot.
type bookingTransitioner interface {
	Confirm(ctx context.Context, id uuid.UUID) (*bookings.Booking, error)
	Cancel(ctx context.Context, id uuid.UUID) (*bookings.Booking, error)
}

type depositEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		BookingID   string `json:"booking_id"`
		AmountCents int    `json:"amount_cents"`
		Currency    string `json:"currency"`
	} `json:"data"`
}

// WebhookHandler verifies, deduplicates, and applies deposit events.
type WebhookHandler struct {
	signatureKey string
	bookings     bookingTransitioner
	processed    processedTracker
	metrics      *metrics.BookingMetrics
	logger       *logging.Logger
}

func NewWebhookHandler(sigKey string, svc bookingTransitioner, processed processedTracker, m *metrics.BookingMetrics, logger *logging.Logger) *WebhookHandler {
	if svc == nil {
		panic("payments: bookings service required")
	}
	if processed == nil {
		panic("payments: processed store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{
		signatureKey: sigKey,
		bookings:     svc,
		processed:    processed,
		metrics:      m,
		logger:       logger,
	}
}

func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if !verifySignature(h.signatureKey, payload, r.Header.Get(SignatureHeader)) {
		h.metrics.ObserveWebhook("unknown", "unauthorized")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var evt depositEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		h.logger.Error("failed to decode deposit event", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if evt.ID == "" {
		http.Error(w, "missing event id", http.StatusBadRequest)
		return
	}

	if processed, err := h.processed.AlreadyProcessed(r.Context(), providerName, evt.ID); err != nil {
		h.logger.Error("processed lookup failed", "error", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	} else if processed {
		h.metrics.ObserveWebhook(evt.Type, "duplicate")
		w.WriteHeader(http.StatusOK)
		return
	}

	var apply func(context.Context, uuid.UUID) (*bookings.Booking, error)
	switch evt.Type {
	case EventPaymentSucceeded:
		apply = h.bookings.Confirm
	case EventPaymentFailed:
		apply = h.bookings.Cancel
	default:
		// Unknown event types are acknowledged so the provider stops
		// retrying them, whatever their payload looks like.
		h.metrics.ObserveWebhook(evt.Type, "ignored")
		w.WriteHeader(http.StatusOK)
		return
	}

	bookingID, err := uuid.Parse(evt.Data.BookingID)
	if err != nil {
		http.Error(w, "missing or invalid booking id", http.StatusBadRequest)
		return
	}

	_, err = apply(r.Context(), bookingID)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			// Acknowledge; the booking is gone and a retry cannot help.
			h.logger.Warn("deposit event for unknown booking", "event_id", evt.ID, "booking_id", bookingID)
			h.metrics.ObserveWebhook(evt.Type, "orphaned")
			w.WriteHeader(http.StatusOK)
			return
		case errors.Is(err, bookings.ErrInvalidTransition):
			// Already in a terminal or matching state, treat as done.
			h.metrics.ObserveWebhook(evt.Type, "noop")
		default:
			h.logger.Error("deposit event failed", "event_id", evt.ID, "error", err)
			h.metrics.ObserveWebhook(evt.Type, "error")
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
	}

	if _, err := h.processed.MarkProcessed(r.Context(), providerName, evt.ID); err != nil {
		// The transition already happened; a duplicate delivery will
		// hit the state machine's noop path.
		h.logger.Error("mark processed failed", "event_id", evt.ID, "error", err)
	}

	h.metrics.ObserveWebhook(evt.Type, "ok")
	h.logger.Info("deposit event applied", "event_id", evt.ID, "type", evt.Type, "booking_id", bookingID)
	w.WriteHeader(http.StatusOK)
}

func verifySignature(key string, payload []byte, signature string) bool {
	if key == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(payload)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
