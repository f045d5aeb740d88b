package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"era-admin-console/internal/models"
)

type staticToken struct {
	token string
	err   error
}

func (s staticToken) Token() (string, error) { return s.token, s.err }

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) ObserveAPICall(method, route string, status int, _ time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, method+" "+route+" "+http.StatusText(status))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newBackend(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestListInventorySendsBearerAndDecodesDates(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/inventory/all", r.URL.Path)
		assert.Equal(t, "Bearer tok.en.value", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"ITM-1","item_name":"Router","quantity":2,
			"entry_date":"2024-05-01T23:30:00-05:00","delivery_date":null,
			"item_status":"Pending","created_at":"2024-05-02T04:30:00Z",
			"serial_numbers":[{"serial_number":"SN-9","remarks":"Good","notes":""}]}]`))
	})

	rec := &callLog{}
	c := NewClient(srv.URL, 5*time.Second, staticToken{token: "tok.en.value"}, WithRecorder(rec))
	items, err := c.ListInventory(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)

	it := items[0]
	assert.Equal(t, models.Date{Year: 2024, Month: time.May, Day: 1}, it.EntryDate)
	assert.True(t, it.DeliveryDate.IsZero())
	require.False(t, it.CreatedAt.IsZero())
	assert.Equal(t, 2024, it.CreatedAt.Year())
	assert.Equal(t, "SN-9", it.SerialNumbers[0].SerialNumber)

	assert.Equal(t, []string{"GET /api/inventory/all OK"}, rec.calls)
}

func TestMissingTokenMakesNoCall(t *testing.T) {
	called := false
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	c := NewClient(srv.URL, time.Second, staticToken{err: errors.New("no token found")})
	_, err := c.ListSalesAccounts(context.Background())
	require.Error(t, err)
	assert.False(t, called)
}

func TestCreateSalesAccountConflict(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Potential", body["remarks"])
		assert.Equal(t, "", body["email"])
		writeJSON(w, http.StatusConflict, map[string]string{"message": "Company 'Acme' already exists"})
	})

	c := NewClient(srv.URL, time.Second, staticToken{token: "a.b.c"})
	req := models.CreateSalesAccountRequest{CompanyName: "Acme", Address: "123 Rd", ContactPerson: "Jane"}
	require.NoError(t, req.Validate())

	_, err := c.CreateSalesAccount(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Company 'Acme' already exists", Message(err))

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
}

func TestPlainTextErrorBody(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "item not found", http.StatusNotFound)
	})

	c := NewClient(srv.URL, time.Second, staticToken{token: "a.b.c"})
	err := c.DeleteInventory(context.Background(), "ITM-404")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "item not found", Message(err))
}

func TestUpdateInventorySendsOnlyChangedFields(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/inventory/ITM-7", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"notes": "rechecked"}, body)
		w.WriteHeader(http.StatusOK)
	})

	c := NewClient(srv.URL, time.Second, staticToken{token: "a.b.c"})
	notes := "rechecked"
	require.NoError(t, c.UpdateInventory(context.Background(), "ITM-7", models.UpdateInventoryRequest{Notes: &notes}))
}

func TestLoginIsAnonymous(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, models.LoginResponse{Token: "x.y.z"})
	})

	c := NewClient(srv.URL, time.Second, staticToken{err: errors.New("logged out")})
	resp, err := c.Login(context.Background(), models.LoginRequest{Email: "a@b.c", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "x.y.z", resp.Token)
}

func TestSearchPassesQuery(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "acme corp", r.URL.Query().Get("query"))
		writeJSON(w, http.StatusOK, []models.SearchResult{{Type: "sales_account", ID: "1", Title: "Acme Corp"}})
	})

	c := NewClient(srv.URL, time.Second, staticToken{token: "a.b.c"})
	hits, err := c.Search(context.Background(), "acme corp")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Acme Corp", hits[0].Title)
}

func TestTransportErrorIsWrapped(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	rec := &callLog{}
	c := NewClient(url, time.Second, staticToken{token: "a.b.c"}, WithRecorder(rec))
	_, err := c.ListAdmins(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list admins")
	var apiErr *Error
	assert.False(t, errors.As(err, &apiErr))
	assert.Len(t, rec.calls, 1)
}
