package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository loads reference data from Postgres. It satisfies Loader.
type Repository struct {
	db querier
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("catalog: pgx pool required")
	}
	return &Repository{db: pool}
}

func newRepositoryWithDB(db querier) *Repository {
	if db == nil {
		panic("catalog: db required")
	}
	return &Repository{db: db}
}

// LoadCatalog fetches the full reference data set.
func (r *Repository) LoadCatalog(ctx context.Context) ([]Service, []Staff, []Room, error) {
	services, err := r.loadServices(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	staff, err := r.loadStaff(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	rooms, err := r.loadRooms(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return services, staff, rooms, nil
}

func (r *Repository) loadServices(ctx context.Context) ([]Service, error) {
	query := `
		SELECT id, name, duration_minutes, category, requires_special_room, is_couples_service, allows_addons
		FROM services
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("catalog: load services: %w", err)
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.Name, &s.DurationMinutes, &s.Category, &s.RequiresSpecialRoom, &s.IsCouplesService, &s.AllowsAddons); err != nil {
			return nil, fmt.Errorf("catalog: scan service: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) loadStaff(ctx context.Context) ([]Staff, error) {
	query := `
		SELECT id, name, capabilities, default_room_id, off_days
		FROM staff
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("catalog: load staff: %w", err)
	}
	defer rows.Close()

	var out []Staff
	for rows.Next() {
		var (
			s       Staff
			offDays []int
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.Capabilities, &s.DefaultRoomID, &offDays); err != nil {
			return nil, fmt.Errorf("catalog: scan staff: %w", err)
		}
		for _, d := range offDays {
			s.OffDays = append(s.OffDays, time.Weekday(d))
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) loadRooms(ctx context.Context) ([]Room, error) {
	query := `
		SELECT id, name, capacity, tags
		FROM rooms
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("catalog: load rooms: %w", err)
	}
	defer rows.Close()

	var out []Room
	for rows.Next() {
		var rm Room
		if err := rows.Scan(&rm.ID, &rm.Name, &rm.Capacity, &rm.Tags); err != nil {
			return nil, fmt.Errorf("catalog: scan room: %w", err)
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}
