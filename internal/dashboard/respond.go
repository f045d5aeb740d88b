package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"era-admin-console/internal/api"
	"era-admin-console/internal/auth"
	"era-admin-console/internal/live"
	"era-admin-console/internal/models"
)

const maxBodyBytes = 1 << 20

// mutationResponse carries the toast shown after a successful write.
type mutationResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// feedStatus is the inline load state of a page.
type feedStatus struct {
	Loading   bool   `json:"loading"`
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
	Revision  uint64 `json:"revision"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func statusOf[T live.Record](st live.State[T]) feedStatus {
	fs := feedStatus{
		Loading:   st.Loading,
		Connected: st.Connected,
		Error:     st.Err,
		Revision:  st.Revision,
	}
	if !st.UpdatedAt.IsZero() {
		fs.UpdatedAt = st.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return fs
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func toast(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, mutationResponse{Message: message, Data: data})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		msg := "invalid JSON"
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		auth.WriteError(w, msg, "INVALID_JSON", http.StatusBadRequest)
		return false
	}
	return true
}

// writeValidation reports a client-side check that blocked submission.
func writeValidation(w http.ResponseWriter, err error) {
	code := "VALIDATION_FAILED"
	if errors.Is(err, models.ErrInvalidTransition) {
		code = "INVALID_TRANSITION"
	}
	auth.WriteError(w, err.Error(), code, http.StatusBadRequest)
}

// writeBackendError converts a failed backend call into the error envelope.
// Conflicts keep the server's own message for the toast.
func (s *Server) writeBackendError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, auth.ErrNoToken):
		w.Header().Set("Location", auth.LoginPath)
		auth.WriteError(w, auth.NoTokenMessage, "MISSING_TOKEN", http.StatusUnauthorized)
		return
	case errors.Is(err, auth.ErrTokenExpired):
		w.Header().Set("Location", auth.LoginPath)
		auth.WriteError(w, "Token has expired", "TOKEN_EXPIRED", http.StatusUnauthorized)
		return
	case errors.Is(err, api.ErrUnauthorized):
		w.Header().Set("Location", auth.LoginPath)
		auth.WriteError(w, api.Message(err), "UNAUTHORIZED", http.StatusUnauthorized)
		return
	case errors.Is(err, api.ErrForbidden):
		auth.WriteError(w, api.Message(err), "FORBIDDEN", http.StatusForbidden)
		return
	case errors.Is(err, api.ErrNotFound):
		auth.WriteError(w, api.Message(err), "NOT_FOUND", http.StatusNotFound)
		return
	case errors.Is(err, api.ErrConflict):
		auth.WriteError(w, api.Message(err), "CONFLICT", http.StatusConflict)
		return
	}

	s.logger.Warn("backend call failed",
		zap.String("op", op),
		zap.String("request_id", requestID(r)),
		zap.Error(err))

	if errors.Is(err, context.DeadlineExceeded) {
		auth.WriteError(w, fmt.Sprintf("%s timed out", op), "TIMEOUT", http.StatusGatewayTimeout)
		return
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		auth.WriteError(w, api.Message(err), "BACKEND_ERROR", http.StatusBadGateway)
		return
	}
	auth.WriteError(w, fmt.Sprintf("%s failed: backend unavailable", op), "BACKEND_UNAVAILABLE", http.StatusBadGateway)
}

func writeFeedMissing(w http.ResponseWriter) {
	auth.WriteError(w, "page data is not loaded; reload the page", "FEED_UNAVAILABLE", http.StatusServiceUnavailable)
}
