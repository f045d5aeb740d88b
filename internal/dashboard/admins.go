package dashboard

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"era-admin-console/internal/auth"
	"era-admin-console/internal/models"
	"era-admin-console/internal/overlay"
)

func (s *Server) listAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := s.backend.ListAdmins(r.Context())
	if err != nil {
		s.writeBackendError(w, r, "load admins", err)
		return
	}
	if admins == nil {
		admins = []models.Admin{}
	}
	writeJSON(w, http.StatusOK, admins)
}

func (s *Server) registerAdmin(w http.ResponseWriter, r *http.Request) {
	var in models.RegisterAdminRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	admin, err := s.backend.RegisterAdmin(r.Context(), in)
	if err != nil {
		s.writeBackendError(w, r, "register admin", err)
		return
	}
	toast(w, http.StatusCreated, "Admin registered successfully", admin)
}

func (s *Server) deleteAdmin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.backend.DeleteAdmin(r.Context(), id); err != nil {
		s.writeBackendError(w, r, "delete admin", err)
		return
	}
	toast(w, http.StatusOK, "Admin deleted successfully", nil)
}

// search backs the dashboard's global search box.
func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeJSON(w, http.StatusOK, []models.SearchResult{})
		return
	}

	results, err := s.backend.Search(r.Context(), query)
	if err != nil {
		s.writeBackendError(w, r, "search", err)
		return
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

type placeRequest struct {
	Trigger  overlay.Rect `json:"trigger"`
	Popup    overlay.Size `json:"popup"`
	Viewport overlay.Size `json:"viewport"`
}

// placeOverlay positions a dropdown for clients that render the pages.
func (s *Server) placeOverlay(w http.ResponseWriter, r *http.Request) {
	var in placeRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.Viewport.Width <= 0 || in.Viewport.Height <= 0 {
		auth.WriteError(w, "viewport must have a positive size", "VALIDATION_FAILED", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, overlay.Place(in.Trigger, in.Popup, in.Viewport))
}
