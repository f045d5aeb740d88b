package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"era-admin-console/internal/models"
)

const testSecret = "test-secret-key-that-is-long-enough-for-testing"

func newToken(t *testing.T, roles []string, expiry time.Duration) string {
	t.Helper()
	token, err := NewJWTManager(testSecret, "test-issuer", expiry).GenerateToken("42", "Ana", "ana@example.com", roles)
	require.NoError(t, err)
	return token
}

func expiredToken(t *testing.T) string {
	t.Helper()
	claims := &Claims{
		Roles: []string{"inventory"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func TestJWTManager_ValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		issuer  string
		expiry  time.Duration
		wantErr bool
	}{
		{name: "valid config", secret: testSecret, issuer: "test-issuer", expiry: time.Hour},
		{name: "secret too short", secret: "short", issuer: "test-issuer", expiry: time.Hour, wantErr: true},
		{name: "empty issuer", secret: testSecret, issuer: "", expiry: time.Hour, wantErr: true},
		{name: "negative expiry", secret: testSecret, issuer: "test-issuer", expiry: -time.Hour, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewJWTManager(tt.secret, tt.issuer, tt.expiry).ValidateConfig()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestJWTManager_GenerateToken(t *testing.T) {
	manager := NewJWTManager(testSecret, "test-issuer", time.Hour)

	_, err := manager.GenerateToken("", "Ana", "", []string{"sales"})
	assert.Error(t, err)
	_, err = manager.GenerateToken("1", "Ana", "", nil)
	assert.Error(t, err)

	token, err := manager.GenerateToken("1", "Ana", "ana@example.com", []string{"sales"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestDecodeToken(t *testing.T) {
	token := newToken(t, []string{"inventory", "sales"}, time.Hour)

	claims, err := DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "Ana", claims.Name)
	assert.Equal(t, []string{"inventory", "sales"}, claims.Roles)
	assert.False(t, claims.Expired(time.Now()))
	assert.True(t, claims.Expired(time.Now().Add(2*time.Hour)))
	assert.True(t, claims.HasRole("sales"))
	assert.False(t, claims.HasRole("admin"))

	// Signed with some other key: still decodes, the server is the judge.
	other, err := NewJWTManager("another-secret-that-is-long-enough", "x", time.Hour).GenerateToken("7", "", "", []string{"admin"})
	require.NoError(t, err)
	claims, err = DecodeToken(other)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin"}, claims.Roles)
}

func TestValidateTokenFormat(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{name: "empty", token: "", wantErr: true},
		{name: "two parts", token: "a.b", wantErr: true},
		{name: "too large", token: string(make([]byte, 9000)), wantErr: true},
		{name: "three parts", token: "a.b.c", wantErr: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTokenFormat(tt.token)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateTokenFormat() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
	_, err := DecodeToken("a.b.c")
	assert.Error(t, err)
}

func TestFileTokenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.yaml")
	store := NewFileTokenStore(path)

	token, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.Save("abc.def.ghi"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	token, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	token, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestSessionLifecycle(t *testing.T) {
	store := &MemoryTokenStore{}
	s := NewSession(store)
	require.NoError(t, s.Init())

	_, err := s.Token()
	assert.ErrorIs(t, err, ErrNoToken)
	assert.False(t, s.CanAccess(models.PageInventory))

	token := newToken(t, []string{"inventory"}, time.Hour)
	claims, err := s.Begin(token)
	require.NoError(t, err)
	assert.Equal(t, "Ana", claims.Name)

	got, err := s.Token()
	require.NoError(t, err)
	assert.Equal(t, token, got)
	assert.True(t, s.CanAccess(models.PageInventory))
	assert.False(t, s.CanAccess(models.PageSales))

	// A new process picks the token up from the store.
	restored := NewSession(store)
	require.NoError(t, restored.Init())
	assert.Equal(t, []string{"inventory"}, restored.Roles())

	require.NoError(t, s.End())
	_, err = s.Token()
	assert.ErrorIs(t, err, ErrNoToken)
	stored, _ := store.Load()
	assert.Empty(t, stored)
}

func TestSessionExpiredToken(t *testing.T) {
	store := &MemoryTokenStore{}
	require.NoError(t, store.Save(expiredToken(t)))

	s := NewSession(store)
	require.NoError(t, s.Init())
	_, err := s.Token()
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSessionInitClearsGarbage(t *testing.T) {
	store := &MemoryTokenStore{}
	require.NoError(t, store.Save("not-a-jwt"))

	s := NewSession(store)
	assert.Error(t, s.Init())
	stored, _ := store.Load()
	assert.Empty(t, stored)
}

func TestRequireSession(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ClaimsFromContext(r.Context()) == nil {
			t.Error("claims missing from context")
		}
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name     string
		token    string
		wantCode int
		wantErr  string
	}{
		{name: "no token", wantCode: http.StatusUnauthorized, wantErr: "MISSING_TOKEN"},
		{name: "expired", token: expiredToken(t), wantCode: http.StatusUnauthorized, wantErr: "TOKEN_EXPIRED"},
		{name: "valid", token: newToken(t, []string{"sales"}, time.Hour), wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &MemoryTokenStore{}
			require.NoError(t, store.Save(tt.token))
			s := NewSession(store)
			require.NoError(t, s.Init())

			w := httptest.NewRecorder()
			RequireSession(s)(ok).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/inventory", nil))
			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantErr != "" {
				var resp ErrorResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.Equal(t, tt.wantErr, resp.Code)
				assert.Equal(t, LoginPath, w.Header().Get("Location"))
			}
		})
	}
}

func TestSessionCurrent(t *testing.T) {
	s := NewSession(&MemoryTokenStore{})
	_, claims, err := s.Current()
	assert.ErrorIs(t, err, ErrNoToken)
	assert.Nil(t, claims)

	token := newToken(t, []string{"inventory"}, time.Hour)
	_, err = s.Begin(token)
	require.NoError(t, err)
	got, claims, err := s.Current()
	require.NoError(t, err)
	assert.Equal(t, token, got)
	require.NotNil(t, claims)
	assert.Equal(t, []string{"inventory"}, claims.Roles)

	// The copy is detached from the session.
	claims.Roles[0] = "admin"
	assert.Equal(t, []string{"inventory"}, s.Roles())

	_, err = s.Begin(expiredToken(t))
	require.NoError(t, err)
	_, claims, err = s.Current()
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Nil(t, claims)
}

func TestRequireSessionDuringLogout(t *testing.T) {
	s := NewSession(&MemoryTokenStore{})
	token := newToken(t, []string{"sales"}, time.Hour)

	handler := RequireSession(s)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ClaimsFromContext(r.Context()) == nil {
			t.Error("request admitted without claims")
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_, _ = s.Begin(token)
			_ = s.End()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/session", nil))
			if w.Code != http.StatusNoContent && w.Code != http.StatusUnauthorized {
				t.Errorf("unexpected status %d", w.Code)
			}
		}
	}()
	wg.Wait()
}

func TestRequirePage(t *testing.T) {
	handler := RequirePage(models.PageAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admins", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	for roles, want := range map[string]int{
		"sales":       http.StatusForbidden,
		"admin":       http.StatusOK,
		"super_admin": http.StatusOK,
	} {
		req := httptest.NewRequest(http.MethodGet, "/admins", nil)
		req = req.WithContext(withClaims(req, &Claims{Roles: []string{roles}}))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, roles)
	}
}

func withClaims(r *http.Request, c *Claims) context.Context {
	return context.WithValue(r.Context(), ClaimsKey, c)
}

func TestErrorsAreDistinct(t *testing.T) {
	assert.False(t, errors.Is(ErrNoToken, ErrTokenExpired))
}
