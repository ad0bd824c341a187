package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/serenity-spa/booking-platform/internal/schedule"
)

var (
	// ErrBookingNotFound is returned for unknown booking ids.
	ErrBookingNotFound = errors.New("booking not found")
	// ErrBookingRace is returned when the database rejects an insert
	// that passed the optimistic admission check. The exclusion
	// constraints on (room, date, span) and (staff, date, span) are
	// the authoritative guard; the pure check is only a pre-check.
	ErrBookingRace = errors.New("booking slot taken at write time")
	// ErrStaleStatus is returned when a status update loses a race
	// with a concurrent transition.
	ErrStaleStatus = errors.New("booking status changed concurrently")
)

// Postgres SQLSTATEs the repository translates into typed errors.
const (
	pgExclusionViolation = "23P01"
	pgUniqueViolation    = "23505"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists bookings in Postgres.
type Repository struct {
	db querier
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("bookings: pgx pool required")
	}
	return &Repository{db: pool}
}

// newRepositoryWithDB allows injecting pgxmock in tests.
func newRepositoryWithDB(db querier) *Repository {
	if db == nil {
		panic("bookings: db required")
	}
	return &Repository{db: db}
}

// Insert writes a new booking row. A write-time overlap rejection from
// the exclusion constraints surfaces as ErrBookingRace.
func (r *Repository) Insert(ctx context.Context, b *Booking) error {
	query := `
		INSERT INTO bookings (id, service_id, staff_id, room_id, booked_on, start_time, end_time, status, buffer_minutes, customer_name, customer_email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		b.ID,
		b.ServiceID,
		b.StaffID,
		b.RoomID,
		b.Date,
		b.Start.String(),
		b.End.String(),
		string(b.Status),
		b.BufferMinutes,
		b.CustomerName,
		b.CustomerEmail,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && (pgErr.Code == pgExclusionViolation || pgErr.Code == pgUniqueViolation) {
			return fmt.Errorf("bookings: insert %s: %w", b.ID, ErrBookingRace)
		}
		return fmt.Errorf("bookings: insert %s: %w", b.ID, err)
	}
	return nil
}

// ListForDate returns the snapshot of non-cancelled bookings on a date
// for the admission check.
func (r *Repository) ListForDate(ctx context.Context, date string) ([]schedule.BookingRef, error) {
	query := `
		SELECT id, room_id, staff_id, to_char(booked_on, 'YYYY-MM-DD'), to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'), status
		FROM bookings
		WHERE booked_on = $1 AND status <> 'cancelled'
		ORDER BY start_time
	`
	rows, err := r.db.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("bookings: list for %s: %w", date, err)
	}
	defer rows.Close()

	var refs []schedule.BookingRef
	for rows.Next() {
		var (
			ref        schedule.BookingRef
			start, end string
		)
		if err := rows.Scan(&ref.ID, &ref.RoomID, &ref.StaffID, &ref.Date, &start, &end, &ref.Status); err != nil {
			return nil, fmt.Errorf("bookings: scan row: %w", err)
		}
		if ref.Span.Start, err = schedule.ParseClock(start); err != nil {
			return nil, fmt.Errorf("bookings: booking %s: %w", ref.ID, err)
		}
		if ref.Span.End, err = schedule.ParseClock(end); err != nil {
			return nil, fmt.Errorf("bookings: booking %s: %w", ref.ID, err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// GetByID fetches one booking.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	query := `
		SELECT id, service_id, staff_id, room_id, to_char(booked_on, 'YYYY-MM-DD'), to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'), status, buffer_minutes, customer_name, customer_email, created_at, updated_at
		FROM bookings
		WHERE id = $1
	`
	var (
		b          Booking
		start, end string
		status     string
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&b.ID,
		&b.ServiceID,
		&b.StaffID,
		&b.RoomID,
		&b.Date,
		&start,
		&end,
		&status,
		&b.BufferMinutes,
		&b.CustomerName,
		&b.CustomerEmail,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("bookings: %s: %w", id, ErrBookingNotFound)
		}
		return nil, fmt.Errorf("bookings: get %s: %w", id, err)
	}
	b.Status = Status(status)
	if b.Start, err = schedule.ParseClock(start); err != nil {
		return nil, fmt.Errorf("bookings: booking %s: %w", id, err)
	}
	if b.End, err = schedule.ParseClock(end); err != nil {
		return nil, fmt.Errorf("bookings: booking %s: %w", id, err)
	}
	return &b, nil
}

// UpdateStatus moves a booking from one status to another. The WHERE
// clause pins the expected current status so concurrent transitions
// lose cleanly instead of clobbering each other.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error {
	query := `
		UPDATE bookings
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3
	`
	ct, err := r.db.Exec(ctx, query, id, string(to), string(from))
	if err != nil {
		return fmt.Errorf("bookings: update status %s: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("bookings: update status %s: %w", id, ErrStaleStatus)
	}
	return nil
}

// CountByStatusSince reports booking volume per status since a cutoff,
// for the admin dashboard.
func (r *Repository) CountByStatusSince(ctx context.Context, since time.Time) (map[Status]int, error) {
	query := `
		SELECT status, count(*)
		FROM bookings
		WHERE created_at >= $1
		GROUP BY status
	`
	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("bookings: count by status: %w", err)
	}
	defer rows.Close()

	out := make(map[Status]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("bookings: scan count: %w", err)
		}
		out[Status(status)] = n
	}
	return out, rows.Err()
}
