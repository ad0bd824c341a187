package bookings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func handlerFixture(t *testing.T) (*chi.Mux, *fakeStore) {
	t.Helper()
	svc, store, _ := serviceFixture(t)
	h := NewHandler(svc, nil)

	r := chi.NewRouter()
	r.Post("/bookings", h.Create)
	r.Get("/bookings/{bookingID}", h.Get)
	r.Post("/bookings/{bookingID}/cancel", h.Cancel)
	r.Post("/bookings/{bookingID}/confirm", h.Confirm)
	r.Get("/availability", h.Availability)
	r.Get("/admin/stats/bookings", h.AdminStats)
	return r, store
}

func postJSON(t *testing.T, r http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreateBookingAccepted(t *testing.T) {
	r, _ := handlerFixture(t)

	rec := postJSON(t, r, "/bookings", bookReq())
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Status  string  `json:"status"`
		Booking Booking `json:"booking"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "accepted" {
		t.Fatalf("status field = %q", resp.Status)
	}
	if resp.Booking.Start.String() != "10:00" || resp.Booking.End.String() != "11:00" {
		t.Fatalf("span = %s-%s", resp.Booking.Start, resp.Booking.End)
	}
	if resp.Booking.Status != StatusPending {
		t.Fatalf("booking status = %s", resp.Booking.Status)
	}
}

func TestCreateBookingConflictReturns409(t *testing.T) {
	r, _ := handlerFixture(t)

	if rec := postJSON(t, r, "/bookings", bookReq()); rec.Code != http.StatusCreated {
		t.Fatalf("seed booking: %d", rec.Code)
	}

	req := bookReq()
	req.Start = "10:30"
	rec := postJSON(t, r, "/bookings", req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", rec.Code, rec.Body.String())
	}

	var resp rejectionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "rejected" || resp.Reason == "" || resp.Message == "" {
		t.Fatalf("rejection payload incomplete: %+v", resp)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	r, _ := handlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/bookings", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body: status = %d, want 400", rec.Code)
	}

	missing := bookReq()
	missing.ServiceID = ""
	if rec := postJSON(t, r, "/bookings", missing); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing service_id: status = %d, want 400", rec.Code)
	}

	badTime := bookReq()
	badTime.Start = "25:99"
	if rec := postJSON(t, r, "/bookings", badTime); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad start_time: status = %d, want 400", rec.Code)
	}
}

func TestCreateBookingUnknownService(t *testing.T) {
	r, _ := handlerFixture(t)

	req := bookReq()
	req.ServiceID = "svc-unknown"
	if rec := postJSON(t, r, "/bookings", req); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGetBooking(t *testing.T) {
	r, store := handlerFixture(t)

	rec := postJSON(t, r, "/bookings", bookReq())
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed booking: %d", rec.Code)
	}
	id := store.inserted[0].ID

	getReq := httptest.NewRequest(http.MethodGet, "/bookings/"+id.String(), nil)
	getRec := httptest.NewRecorder()
	r.ServeHTTP(getRec, getReq)
	if getRec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", getRec.Code)
	}

	var b Booking
	if err := json.Unmarshal(getRec.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.ID != id {
		t.Fatalf("id = %s, want %s", b.ID, id)
	}

	missing := httptest.NewRequest(http.MethodGet, "/bookings/"+uuid.NewString(), nil)
	missingRec := httptest.NewRecorder()
	r.ServeHTTP(missingRec, missing)
	if missingRec.Code != http.StatusNotFound {
		t.Fatalf("unknown id: status = %d, want 404", missingRec.Code)
	}

	bad := httptest.NewRequest(http.MethodGet, "/bookings/not-a-uuid", nil)
	badRec := httptest.NewRecorder()
	r.ServeHTTP(badRec, bad)
	if badRec.Code != http.StatusBadRequest {
		t.Fatalf("bad id: status = %d, want 400", badRec.Code)
	}
}

func TestCancelAndInvalidTransition(t *testing.T) {
	r, store := handlerFixture(t)

	if rec := postJSON(t, r, "/bookings", bookReq()); rec.Code != http.StatusCreated {
		t.Fatalf("seed booking: %d", rec.Code)
	}
	id := store.inserted[0].ID

	rec := postJSON(t, r, fmt.Sprintf("/bookings/%s/cancel", id), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel: status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var b Booking
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Status != StatusCancelled {
		t.Fatalf("status = %s, want cancelled", b.Status)
	}

	// Cancelled is terminal; confirming now conflicts.
	rec = postJSON(t, r, fmt.Sprintf("/bookings/%s/confirm", id), nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("confirm cancelled: status = %d, want 409", rec.Code)
	}
}

func TestAdminStatsEndpoint(t *testing.T) {
	r, _ := handlerFixture(t)

	if rec := postJSON(t, r, "/bookings", bookReq()); rec.Code != http.StatusCreated {
		t.Fatalf("seed booking: %d", rec.Code)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/stats/bookings", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Counts map[string]int `json:"counts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Counts["pending"] != 1 {
		t.Fatalf("counts = %v", resp.Counts)
	}

	bad := httptest.NewRecorder()
	r.ServeHTTP(bad, httptest.NewRequest(http.MethodGet, "/admin/stats/bookings?since=March", nil))
	if bad.Code != http.StatusBadRequest {
		t.Fatalf("bad since: status = %d, want 400", bad.Code)
	}
}

func TestAvailabilityEndpoint(t *testing.T) {
	r, _ := handlerFixture(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/availability?service_id=svc-massage&date=2026-03-16", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Date  string `json:"date"`
		Slots []struct {
			Start  string `json:"start"`
			RoomID string `json:"room_id"`
		} `json:"slots"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Slots) == 0 {
		t.Fatal("expected open slots on an unbooked day")
	}

	missing := httptest.NewRecorder()
	r.ServeHTTP(missing, httptest.NewRequest(http.MethodGet, "/availability?date=2026-03-16", nil))
	if missing.Code != http.StatusBadRequest {
		t.Fatalf("missing service_id: status = %d, want 400", missing.Code)
	}
}
