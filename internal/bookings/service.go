package bookings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/serenity-spa/booking-platform/internal/catalog"
	"github.com/serenity-spa/booking-platform/internal/observability/metrics"
	"github.com/serenity-spa/booking-platform/internal/schedule"
	"github.com/serenity-spa/booking-platform/pkg/logging"
)

var bookingsTracer = otel.Tracer("spa.internal.bookings")

// Booking lifecycle events published to notifiers.
const (
	EventCreated   = "booking.created"
	EventConfirmed = "booking.confirmed"
	EventCancelled = "booking.cancelled"
	EventCompleted = "booking.completed"
	EventNoShow    = "booking.no_show"
)

// store is the persistence surface the service needs; *Repository
// satisfies it, tests inject fakes.
type store interface {
	Insert(ctx context.Context, b *Booking) error
	ListForDate(ctx context.Context, date string) ([]schedule.BookingRef, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error
	CountByStatusSince(ctx context.Context, since time.Time) (map[Status]int, error)
}

// CatalogSource supplies the current reference data snapshot.
type CatalogSource interface {
	Get(ctx context.Context) (*catalog.Catalog, error)
}

// Notifier is told about booking lifecycle events. Delivery is
// best-effort; failures are logged, never surfaced to the customer.
type Notifier interface {
	NotifyBookingEvent(ctx context.Context, event string, b *Booking) error
}

// BookRequest is a customer (or admin) booking attempt.
type BookRequest struct {
	ServiceID     string `json:"service_id"`
	StaffID       string `json:"staff_id"`
	RoomID        string `json:"room_id,omitempty"`
	Date          string `json:"date"`
	Start         string `json:"start_time"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
}

// Service runs the booking flow: snapshot, admission, persist, and the
// status state machine.
type Service struct {
	repo      store
	catalogs  CatalogSource
	policy    schedule.Policy
	metrics   *metrics.BookingMetrics
	notifiers []Notifier
	logger    *logging.Logger
}

// NewService constructs a bookings service.
func NewService(repo store, catalogs CatalogSource, policy schedule.Policy, m *metrics.BookingMetrics, logger *logging.Logger, notifiers ...Notifier) *Service {
	if repo == nil {
		panic("bookings: repository required")
	}
	if catalogs == nil {
		panic("bookings: catalog source required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:      repo,
		catalogs:  catalogs,
		policy:    policy,
		metrics:   m,
		notifiers: notifiers,
		logger:    logger,
	}
}

// Book runs one booking attempt. A scheduling rejection is not an
// error: the result carries the reason and conflict breakdown for the
// caller to render. When the database rejects the insert despite a
// clean optimistic check, admission is re-run once against a refreshed
// snapshot before the conflict is surfaced.
func (s *Service) Book(ctx context.Context, req BookRequest) (*Booking, schedule.AdmissionResult, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("spa.service_id", req.ServiceID),
		attribute.String("spa.staff_id", req.StaffID),
		attribute.String("spa.date", req.Date),
	)
	started := time.Now()
	defer func() { s.metrics.ObserveBookLatency(time.Since(started).Seconds()) }()

	cat, err := s.catalogs.Get(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, schedule.AdmissionResult{}, err
	}
	engine := schedule.NewEngine(s.policy, cat)

	res, err := s.admit(ctx, engine, req)
	if err != nil {
		span.RecordError(err)
		return nil, schedule.AdmissionResult{}, err
	}
	if !res.Accepted {
		s.metrics.ObserveAdmission(false, res.Reason)
		s.logger.Info("booking rejected",
			"service_id", req.ServiceID,
			"date", req.Date,
			"start", req.Start,
			"reason", res.Reason,
		)
		return nil, res, nil
	}

	booking := s.newBooking(req, res)
	if err := s.repo.Insert(ctx, booking); err != nil {
		if !errors.Is(err, ErrBookingRace) {
			span.RecordError(err)
			return nil, schedule.AdmissionResult{}, err
		}
		// Lost the check-then-act race: the write-time constraint is
		// authoritative. Retry admission once on a fresh snapshot.
		s.metrics.ObserveWriteRace()
		s.logger.Warn("booking insert lost write race, retrying admission",
			"booking_id", booking.ID,
			"room_id", booking.RoomID,
		)
		res, err = s.admit(ctx, engine, req)
		if err != nil {
			span.RecordError(err)
			return nil, schedule.AdmissionResult{}, err
		}
		if !res.Accepted {
			s.metrics.ObserveAdmission(false, res.Reason)
			return nil, res, nil
		}
		booking = s.newBooking(req, res)
		if err := s.repo.Insert(ctx, booking); err != nil {
			span.RecordError(err)
			return nil, schedule.AdmissionResult{}, err
		}
	}

	s.metrics.ObserveAdmission(true, "")
	s.logger.Info("booking created",
		"booking_id", booking.ID,
		"service_id", booking.ServiceID,
		"room_id", booking.RoomID,
		"date", booking.Date,
		"start", booking.Start.String(),
	)
	s.notify(ctx, EventCreated, booking)
	return booking, res, nil
}

func (s *Service) admit(ctx context.Context, engine *schedule.Engine, req BookRequest) (schedule.AdmissionResult, error) {
	date, err := schedule.ParseDate(req.Date)
	if err != nil {
		return schedule.AdmissionResult{}, err
	}
	snapshot, err := s.repo.ListForDate(ctx, date)
	if err != nil {
		return schedule.AdmissionResult{}, err
	}
	return engine.Admit(schedule.AdmissionRequest{
		ServiceID: req.ServiceID,
		StaffID:   req.StaffID,
		RoomID:    req.RoomID,
		Date:      date,
		Start:     req.Start,
	}, snapshot)
}

func (s *Service) newBooking(req BookRequest, res schedule.AdmissionResult) *Booking {
	return &Booking{
		ID:            uuid.New(),
		ServiceID:     req.ServiceID,
		StaffID:       res.StaffID,
		RoomID:        res.RoomID,
		Date:          res.Date,
		Start:         res.Start,
		End:           res.End,
		Status:        StatusPending,
		BufferMinutes: s.policy.BufferMinutes,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
	}
}

// Availability lists open start times for a service on a date.
func (s *Service) Availability(ctx context.Context, serviceID, staffID, date string) ([]schedule.Slot, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.availability")
	defer span.End()

	normalized, err := schedule.ParseDate(date)
	if err != nil {
		return nil, err
	}
	cat, err := s.catalogs.Get(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	snapshot, err := s.repo.ListForDate(ctx, normalized)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return schedule.NewEngine(s.policy, cat).AvailableSlots(serviceID, staffID, normalized, snapshot)
}

// Get fetches one booking.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

// Stats reports booking volume per status since a cutoff, for the
// admin dashboard.
func (s *Service) Stats(ctx context.Context, since time.Time) (map[Status]int, error) {
	return s.repo.CountByStatusSince(ctx, since)
}

// Confirm moves a booking to confirmed, typically when the deposit
// webhook lands.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.transition(ctx, id, StatusConfirmed, EventConfirmed)
}

// Cancel cancels a pending or confirmed booking.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.transition(ctx, id, StatusCancelled, EventCancelled)
}

// Complete marks a confirmed booking as completed.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.transition(ctx, id, StatusCompleted, EventCompleted)
}

// MarkNoShow marks a confirmed booking as a no-show.
func (s *Service) MarkNoShow(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.transition(ctx, id, StatusNoShow, EventNoShow)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, to Status, event string) (*Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.transition")
	defer span.End()
	span.SetAttributes(
		attribute.String("spa.booking_id", id.String()),
		attribute.String("spa.target_status", string(to)),
	)

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := checkTransition(b.Status, to); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, id, b.Status, to); err != nil {
		span.RecordError(err)
		return nil, err
	}
	b.Status = to
	s.logger.Info("booking status changed", "booking_id", id, "status", to)
	s.notify(ctx, event, b)
	return b, nil
}

func (s *Service) notify(ctx context.Context, event string, b *Booking) {
	for _, n := range s.notifiers {
		if err := n.NotifyBookingEvent(ctx, event, b); err != nil {
			s.logger.Error("booking notifier failed", "event", event, "booking_id", b.ID, "error", err)
		}
	}
}
