package dashboard

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"era-admin-console/internal/api"
	"era-admin-console/internal/auth"
	"era-admin-console/internal/models"
)

type sessionResponse struct {
	Subject   string        `json:"sub"`
	Name      string        `json:"name,omitempty"`
	Email     string        `json:"email,omitempty"`
	Roles     []string      `json:"roles"`
	Pages     []models.Page `json:"pages"`
	ExpiresAt *time.Time    `json:"expires_at,omitempty"`
}

func newSessionResponse(c *auth.Claims) sessionResponse {
	resp := sessionResponse{
		Subject: c.Subject,
		Name:    c.Name,
		Email:   c.Email,
		Roles:   c.Roles,
		Pages:   models.AllowedPages(c.Roles),
	}
	if c.ExpiresAt != nil {
		t := c.ExpiresAt.Time
		resp.ExpiresAt = &t
	}
	return resp
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in models.LoginRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	out, err := s.backend.Login(r.Context(), in)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			auth.WriteError(w, api.Message(err), "INVALID_CREDENTIALS", http.StatusUnauthorized)
			return
		}
		s.writeBackendError(w, r, "login", err)
		return
	}

	claims, err := s.session.Begin(out.Token)
	if err != nil {
		s.logger.Error("login returned an unusable token", zap.Error(err))
		auth.WriteError(w, "server returned an invalid token", "INVALID_TOKEN", http.StatusBadGateway)
		return
	}
	s.Mount()

	s.logger.Info("logged in", zap.String("sub", claims.Subject), zap.Strings("roles", claims.Roles))
	toast(w, http.StatusOK, "Login successful", map[string]any{
		"session": newSessionResponse(claims),
		"user":    out.User,
	})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.Unmount()
	if err := s.session.End(); err != nil {
		s.logger.Error("failed to clear stored token", zap.Error(err))
		auth.WriteError(w, "failed to clear stored token", "LOGOUT_FAILED", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Location", auth.LoginPath)
	toast(w, http.StatusOK, "Logged out", nil)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newSessionResponse(auth.ClaimsFromContext(r.Context())))
}
