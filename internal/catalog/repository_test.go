package catalog

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func mockRepo(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("create pgx mock: %v", err)
	}
	t.Cleanup(mock.Close)
	return newRepositoryWithDB(mock), mock
}

func TestLoadCatalog(t *testing.T) {
	repo, mock := mockRepo(t)

	mock.ExpectQuery("SELECT id, name, duration_minutes").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "duration_minutes", "category", "requires_special_room", "is_couples_service", "allows_addons"}).
			AddRow("svc-massage", "Swedish Massage", 60, "massage", false, false, true).
			AddRow("svc-scrub", "Salt Scrub", 45, "body", true, false, false))
	mock.ExpectQuery("SELECT id, name, capabilities").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "capabilities", "default_room_id", "off_days"}).
			AddRow("staff-a", "Ana", []string{"massage"}, "room-1", []int{0}))
	mock.ExpectQuery("SELECT id, name, capacity").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "capacity", "tags"}).
			AddRow("room-1", "Garden", 1, []string(nil)).
			AddRow("room-9", "Scrub Suite", 1, []string{TagScrubCapable}))

	services, staff, rooms, err := repo.LoadCatalog(context.Background())
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if len(services) != 2 || len(staff) != 1 || len(rooms) != 2 {
		t.Fatalf("got %d/%d/%d rows", len(services), len(staff), len(rooms))
	}
	if !services[1].RequiresSpecialRoom {
		t.Fatal("svc-scrub should require the special room")
	}
	if !staff[0].IsOff(time.Sunday) {
		t.Fatal("staff-a should be off Sundays")
	}
	if !rooms[1].HasTag(TagScrubCapable) {
		t.Fatal("room-9 should carry the scrub tag")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLoadCatalogPropagatesErrors(t *testing.T) {
	repo, mock := mockRepo(t)

	mock.ExpectQuery("SELECT id, name, duration_minutes").
		WillReturnError(context.DeadlineExceeded)

	if _, _, _, err := repo.LoadCatalog(context.Background()); err == nil {
		t.Fatal("expected error from failed services query")
	}
}
