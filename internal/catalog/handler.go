package catalog

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/serenity-spa/booking-platform/pkg/logging"
)

// Source is the snapshot provider the handler reads from. *Store
// satisfies it.
type Source interface {
	Get(ctx context.Context) (*Catalog, error)
	Invalidate(ctx context.Context) error
}

// Handler serves the reference data over HTTP.
type Handler struct {
	source Source
	logger *logging.Logger
}

func NewHandler(source Source, logger *logging.Logger) *Handler {
	if source == nil {
		panic("catalog: source required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{source: source, logger: logger}
}

// ListServices handles GET /catalog/services.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	cat, err := h.source.Get(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.writeJSON(w, map[string]any{"services": cat.Services()})
}

// ListStaff handles GET /catalog/staff.
func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	cat, err := h.source.Get(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.writeJSON(w, map[string]any{"staff": cat.StaffMembers()})
}

// ListRooms handles GET /catalog/rooms.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	cat, err := h.source.Get(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.writeJSON(w, map[string]any{"rooms": cat.Rooms()})
}

// Invalidate handles POST /admin/catalog/invalidate, forcing the next
// read to hit the database.
func (h *Handler) Invalidate(w http.ResponseWriter, r *http.Request) {
	if err := h.source.Invalidate(r.Context()); err != nil {
		h.serverError(w, err)
		return
	}
	h.logger.Info("catalog cache invalidated")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) serverError(w http.ResponseWriter, err error) {
	h.logger.Error("catalog request failed", "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}
