package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/serenity-spa/booking-platform/internal/catalog"
	"github.com/serenity-spa/booking-platform/internal/http/middleware"
	"github.com/serenity-spa/booking-platform/internal/schedule"
	"github.com/serenity-spa/booking-platform/pkg/logging"
)

// Handler exposes the booking flow over HTTP.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a bookings HTTP handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if svc == nil {
		panic("bookings: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

type conflictCounts struct {
	Room   int `json:"room"`
	Staff  int `json:"staff"`
	Buffer int `json:"buffer"`
}

type rejectionResponse struct {
	Status    string         `json:"status"`
	Reason    string         `json:"reason"`
	Message   string         `json:"message"`
	Conflicts conflictCounts `json:"conflicts"`
}

// Create handles POST /bookings.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ServiceID == "" || req.Date == "" || req.Start == "" {
		http.Error(w, "service_id, date, and start_time are required", http.StatusBadRequest)
		return
	}

	booking, res, err := h.svc.Book(r.Context(), req)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	if booking == nil {
		writeJSON(w, http.StatusConflict, rejectionResponse{
			Status:  "rejected",
			Reason:  res.Reason,
			Message: schedule.RejectionMessage(res),
			Conflicts: conflictCounts{
				Room:   len(res.Conflicts.Room),
				Staff:  len(res.Conflicts.Staff),
				Buffer: len(res.Conflicts.Buffer),
			},
		})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"status":  "accepted",
		"booking": booking,
	})
}

// Get handles GET /bookings/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "bookingID"))
	if err != nil {
		http.Error(w, "invalid booking id", http.StatusBadRequest)
		return
	}
	booking, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// Availability handles GET /availability.
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	serviceID := r.URL.Query().Get("service_id")
	date := r.URL.Query().Get("date")
	if serviceID == "" || date == "" {
		http.Error(w, "service_id and date are required", http.StatusBadRequest)
		return
	}
	staffID := r.URL.Query().Get("staff_id")

	slots, err := h.svc.Availability(r.Context(), serviceID, staffID, date)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	if slots == nil {
		slots = []schedule.Slot{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":  date,
		"slots": slots,
	})
}

// AdminStats handles GET /admin/stats/bookings. The optional since
// query param defaults to the last 30 days.
func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	since := time.Now().AddDate(0, 0, -30)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			http.Error(w, "invalid since date", http.StatusBadRequest)
			return
		}
		since = parsed
	}
	counts, err := h.svc.Stats(r.Context(), since)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"since":  since.Format("2006-01-02"),
		"counts": counts,
	})
}

// Cancel handles POST /bookings/{id}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Cancel)
}

// Confirm handles POST /admin/bookings/{id}/confirm.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.auditAdmin(r, "confirm")
	h.transition(w, r, h.svc.Confirm)
}

// Complete handles POST /admin/bookings/{id}/complete.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.auditAdmin(r, "complete")
	h.transition(w, r, h.svc.Complete)
}

// NoShow handles POST /admin/bookings/{id}/no-show.
func (h *Handler) NoShow(w http.ResponseWriter, r *http.Request) {
	h.auditAdmin(r, "no_show")
	h.transition(w, r, h.svc.MarkNoShow)
}

func (h *Handler) auditAdmin(r *http.Request, action string) {
	if claims, ok := middleware.AdminClaimsFromContext(r.Context()); ok {
		h.logger.Info("admin booking action",
			"action", action,
			"actor", claims.Subject,
			"role", claims.Role,
			"booking_id", chi.URLParam(r, "bookingID"),
		)
	}
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id uuid.UUID) (*Booking, error)) {
	id, err := uuid.Parse(chi.URLParam(r, "bookingID"))
	if err != nil {
		http.Error(w, "invalid booking id", http.StatusBadRequest)
		return
	}
	booking, err := op(r.Context(), id)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrInvalidTimeFormat):
		http.Error(w, "invalid time or date format", http.StatusBadRequest)
	case errors.Is(err, catalog.ErrServiceNotFound),
		errors.Is(err, catalog.ErrStaffNotFound),
		errors.Is(err, catalog.ErrRoomNotFound),
		errors.Is(err, ErrBookingNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrStaleStatus), errors.Is(err, ErrBookingRace):
		http.Error(w, "booking changed concurrently, retry", http.StatusConflict)
	default:
		h.logger.Error("booking request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
