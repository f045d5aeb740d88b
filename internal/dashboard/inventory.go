package dashboard

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"era-admin-console/internal/auth"
	"era-admin-console/internal/models"
	"era-admin-console/internal/view"
)

type inventoryPage struct {
	Items  []models.InventoryItem `json:"items"`
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
	Query  string                 `json:"query,omitempty"`
	Period view.Period            `json:"period"`
	Rollup view.Rollup            `json:"rollup"`
	Status feedStatus             `json:"status"`
}

// listInventory renders the inventory index. Load errors are reported
// inline in status rather than as an HTTP error.
func (s *Server) listInventory(w http.ResponseWriter, r *http.Request) {
	feed := s.inventoryFeed()
	if feed == nil {
		writeFeedMissing(w)
		return
	}

	params := parseListParams(r)
	period, err := parsePeriod(r, s.now())
	if err != nil {
		auth.WriteError(w, err.Error(), "INVALID_PERIOD", http.StatusBadRequest)
		return
	}

	st := feed.Snapshot()
	filtered := view.FilterInventory(st.Items, params.q, period)
	writeJSON(w, http.StatusOK, inventoryPage{
		Items:  page(filtered, params),
		Total:  len(filtered),
		Limit:  params.limit,
		Offset: params.offset,
		Query:  params.q,
		Period: period,
		Rollup: view.YearRollup(st.Items, period.Year),
		Status: statusOf(st),
	})
}

func (s *Server) inventorySummary(w http.ResponseWriter, r *http.Request) {
	feed := s.inventoryFeed()
	if feed == nil {
		writeFeedMissing(w)
		return
	}

	year := s.now().Year()
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			auth.WriteError(w, "invalid year", "INVALID_PERIOD", http.StatusBadRequest)
			return
		}
		year = y
	}

	st := feed.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"rollup": view.YearRollup(st.Items, year),
		"years":  view.Years(st.Items),
		"status": statusOf(st),
	})
}

func (s *Server) inventoryFilterOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := s.backend.InventoryFilterOptions(r.Context())
	if err != nil {
		s.writeBackendError(w, r, "load filter options", err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

func (s *Server) listSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := s.backend.Suppliers(r.Context())
	if err != nil {
		s.writeBackendError(w, r, "load suppliers", err)
		return
	}
	if suppliers == nil {
		suppliers = []models.Supplier{}
	}
	writeJSON(w, http.StatusOK, suppliers)
}

// createInventory does not append locally; the item shows up with the next
// push or reload.
func (s *Server) createInventory(w http.ResponseWriter, r *http.Request) {
	var in models.CreateInventoryRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	item, err := s.backend.CreateInventory(r.Context(), in)
	if err != nil {
		s.writeBackendError(w, r, "create item", err)
		return
	}
	toast(w, http.StatusCreated, "Item added successfully", item)
}

func (s *Server) updateInventory(w http.ResponseWriter, r *http.Request) {
	feed := s.inventoryFeed()
	if feed == nil {
		writeFeedMissing(w)
		return
	}
	id := chi.URLParam(r, "id")

	var in models.UpdateInventoryRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	current, ok := feed.Get(id)
	if !ok {
		auth.WriteError(w, "item "+id+" not found", "NOT_FOUND", http.StatusNotFound)
		return
	}
	if err := in.Validate(current); err != nil {
		writeValidation(w, err)
		return
	}

	if err := s.backend.UpdateInventory(r.Context(), id, in); err != nil {
		s.writeBackendError(w, r, "update item", err)
		return
	}

	feed.Patch(id, func(it *models.InventoryItem) { in.ApplyTo(it) })
	patched, _ := feed.Get(id)
	toast(w, http.StatusOK, "Item updated successfully", patched)
}

type deliverRequest struct {
	DeliveredBy  []string    `json:"delivered_by"`
	DeliveryDate models.Date `json:"delivery_date"`
}

func (s *Server) deliverInventory(w http.ResponseWriter, r *http.Request) {
	feed := s.inventoryFeed()
	if feed == nil {
		writeFeedMissing(w)
		return
	}
	id := chi.URLParam(r, "id")

	var in deliverRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.DeliveryDate.IsZero() {
		in.DeliveryDate = models.NewDate(s.now())
	}

	current, ok := feed.Get(id)
	if !ok {
		auth.WriteError(w, "item "+id+" not found", "NOT_FOUND", http.StatusNotFound)
		return
	}
	next := current.Clone()
	if err := next.MarkDelivered(in.DeliveredBy, in.DeliveryDate); err != nil {
		writeValidation(w, err)
		return
	}

	update := models.DeliveryUpdate(in.DeliveredBy, in.DeliveryDate)
	if err := s.backend.UpdateInventory(r.Context(), id, update); err != nil {
		s.writeBackendError(w, r, "mark delivered", err)
		return
	}

	feed.Patch(id, func(it *models.InventoryItem) { update.ApplyTo(it) })
	patched, _ := feed.Get(id)
	toast(w, http.StatusOK, "Item marked as delivered", patched)
}

func (s *Server) deleteInventory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.backend.DeleteInventory(r.Context(), id); err != nil {
		s.writeBackendError(w, r, "delete item", err)
		return
	}
	if feed := s.inventoryFeed(); feed != nil {
		feed.Remove(id)
	}
	toast(w, http.StatusOK, "Item deleted successfully", nil)
}

// reloadInventory is the manual retry after a failed load.
func (s *Server) reloadInventory(w http.ResponseWriter, r *http.Request) {
	feed := s.inventoryFeed()
	if feed == nil {
		writeFeedMissing(w)
		return
	}
	if err := feed.Reload(r.Context()); err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":  feed.Snapshot().Err,
			"code":   "LOAD_FAILED",
			"status": statusOf(feed.Snapshot()),
		})
		return
	}
	toast(w, http.StatusOK, "Inventory reloaded", statusOf(feed.Snapshot()))
}
