package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"era-admin-console/internal/models"
)

// TokenStore persists the JWT between runs. It is the only client state
// that outlives a process.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

type tokenFile struct {
	Token   string    `yaml:"token"`
	SavedAt time.Time `yaml:"saved_at"`
}

// FileTokenStore keeps the token in a small YAML file.
type FileTokenStore struct {
	Path string
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{Path: path}
}

// Load returns "" without error when no token has been saved.
func (s *FileTokenStore) Load() (string, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	var tf tokenFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return "", fmt.Errorf("parse token file: %w", err)
	}
	return tf.Token, nil
}

func (s *FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	data, err := yaml.Marshal(tokenFile{Token: token, SavedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, data, 0o600)
}

func (s *FileTokenStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

// MemoryTokenStore is a TokenStore that forgets everything on exit.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func (s *MemoryTokenStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryTokenStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryTokenStore) Clear() error {
	return s.Save("")
}

// Session owns the current JWT and its decoded claims. It replaces any
// ambient global auth state: every component that needs the token gets
// the Session explicitly.
type Session struct {
	store TokenStore
	now   func() time.Time

	mu     sync.RWMutex
	token  string
	claims *Claims
}

func NewSession(store TokenStore) *Session {
	return &Session{store: store, now: time.Now}
}

// Init loads and decodes the stored token. An undecodable token is
// cleared so the user lands on the login flow instead of a broken state.
func (s *Session) Init() error {
	token, err := s.store.Load()
	if err != nil {
		return err
	}
	if token == "" {
		return nil
	}
	claims, err := DecodeToken(token)
	if err != nil {
		if clearErr := s.store.Clear(); clearErr != nil {
			return errors.Join(err, clearErr)
		}
		return err
	}
	s.mu.Lock()
	s.token, s.claims = token, claims
	s.mu.Unlock()
	return nil
}

// Begin installs a freshly issued token and persists it.
func (s *Session) Begin(token string) (*Claims, error) {
	claims, err := DecodeToken(token)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(token); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.token, s.claims = token, claims
	s.mu.Unlock()
	return claims, nil
}

// End forgets the token (logout).
func (s *Session) End() error {
	s.mu.Lock()
	s.token, s.claims = "", nil
	s.mu.Unlock()
	return s.store.Clear()
}

// Token returns the bearer token for outgoing calls.
func (s *Session) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", ErrNoToken
	}
	if s.claims != nil && s.claims.Expired(s.now()) {
		return "", ErrTokenExpired
	}
	return s.token, nil
}

// Current returns the token and a copy of its claims read under one lock,
// so a concurrent End can never split the pair.
func (s *Session) Current() (string, *Claims, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" || s.claims == nil {
		return "", nil, ErrNoToken
	}
	if s.claims.Expired(s.now()) {
		return "", nil, ErrTokenExpired
	}
	return s.token, s.claimsLocked(), nil
}

// Claims returns the decoded claims, or nil when logged out.
func (s *Session) Claims() *Claims {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.claimsLocked()
}

func (s *Session) claimsLocked() *Claims {
	if s.claims == nil {
		return nil
	}
	c := *s.claims
	c.Roles = append([]string(nil), s.claims.Roles...)
	return &c
}

func (s *Session) Roles() []string {
	if c := s.Claims(); c != nil {
		return c.Roles
	}
	return nil
}

// CanAccess reports whether the session's roles open page.
func (s *Session) CanAccess(page models.Page) bool {
	return models.CanAccess(s.Roles(), page)
}
