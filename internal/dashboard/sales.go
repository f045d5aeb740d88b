package dashboard

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"era-admin-console/internal/auth"
	"era-admin-console/internal/models"
	"era-admin-console/internal/view"
)

type salesPage struct {
	Items    []models.SalesAccount `json:"items"`
	Total    int                   `json:"total"`
	Limit    int                   `json:"limit"`
	Offset   int                   `json:"offset"`
	Counts   view.RemarksCounts    `json:"counts"`
	Managers []string              `json:"managers"`
	Status   feedStatus            `json:"status"`
}

func (s *Server) listSales(w http.ResponseWriter, r *http.Request) {
	feed := s.salesFeed()
	if feed == nil {
		writeFeedMissing(w)
		return
	}

	params := parseListParams(r)
	filter := view.SalesFilter{
		Query:          params.q,
		Remarks:        models.Remarks(r.URL.Query().Get("remarks")),
		AccountManager: r.URL.Query().Get("manager"),
	}
	if filter.Remarks != "" && !filter.Remarks.Valid() {
		auth.WriteError(w, "unknown remarks "+string(filter.Remarks), "VALIDATION_FAILED", http.StatusBadRequest)
		return
	}

	st := feed.Snapshot()
	filtered := view.FilterSales(st.Items, filter)
	managers := view.Managers(st.Items)
	if managers == nil {
		managers = []string{}
	}
	writeJSON(w, http.StatusOK, salesPage{
		Items:    page(filtered, params),
		Total:    len(filtered),
		Limit:    params.limit,
		Offset:   params.offset,
		Counts:   view.RemarksRollup(st.Items),
		Managers: managers,
		Status:   statusOf(st),
	})
}

// createSales is the AddCompany form. A duplicate company name comes back
// as 409 with the server's message.
func (s *Server) createSales(w http.ResponseWriter, r *http.Request) {
	var in models.CreateSalesAccountRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	account, err := s.backend.CreateSalesAccount(r.Context(), in)
	if err != nil {
		s.writeBackendError(w, r, "add company", err)
		return
	}
	toast(w, http.StatusCreated, "Company added successfully", account)
}

func (s *Server) updateSales(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var in models.UpdateSalesAccountRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	if err := s.backend.UpdateSalesAccount(r.Context(), id, in); err != nil {
		s.writeBackendError(w, r, "update company", err)
		return
	}

	var patched any
	if feed := s.salesFeed(); feed != nil {
		feed.Patch(id, func(a *models.SalesAccount) { in.ApplyTo(a) })
		if acc, ok := feed.Get(id); ok {
			patched = acc
		}
	}
	toast(w, http.StatusOK, "Company updated successfully", patched)
}

// deleteSales removes the account locally right after the backend accepts
// the delete. A later push that still carries it brings it back.
func (s *Server) deleteSales(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.backend.DeleteSalesAccount(r.Context(), id); err != nil {
		s.writeBackendError(w, r, "delete company", err)
		return
	}
	if feed := s.salesFeed(); feed != nil {
		feed.Remove(id)
	}
	toast(w, http.StatusOK, "Company deleted successfully", nil)
}

func (s *Server) reloadSales(w http.ResponseWriter, r *http.Request) {
	feed := s.salesFeed()
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
	toast(w, http.StatusOK, "Sales accounts reloaded", statusOf(feed.Snapshot()))
}

func (s *Server) listAccountManagers(w http.ResponseWriter, r *http.Request) {
	managers, err := s.backend.AccountManagers(r.Context())
	if err != nil {
		s.writeBackendError(w, r, "load account managers", err)
		return
	}
	if managers == nil {
		managers = []models.AccountManager{}
	}
	writeJSON(w, http.StatusOK, managers)
}
