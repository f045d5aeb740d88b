// Package live keeps an in-memory copy of a backend collection current by
// combining one REST fetch with a WebSocket stream of full snapshots.
package live

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"go.uber.org/zap"

	"era-admin-console/internal/auth"
)

// ErrClosed is returned by operations on a feed after Close.
var ErrClosed = errors.New("feed closed")

// Record is anything with a stable identifier.
type Record interface {
	Key() string
}

// TokenSource supplies the JWT used for both the fetch and the socket.
type TokenSource interface {
	Token() (string, error)
}

// Recorder observes feed traffic. Implemented by the metrics package.
type Recorder interface {
	ObservePush(resource, outcome string)
	SetConnected(resource string, connected bool)
}

// Config describes one subscribed collection.
type Config[T Record] struct {
	// Resource is the socket path segment, e.g. "inventory".
	Resource string

	// MessageType is the accepted envelope type, e.g. "inventory_update".
	MessageType string

	WSBaseURL string
	Tokens    TokenSource
	Fetch     func(ctx context.Context) ([]T, error)
	Dialer    *websocket.Dialer
	Logger    *zap.Logger
	Recorder  Recorder

	// OnChange runs after every state change, outside the feed's lock.
	OnChange func(State[T])
}

// State is a point-in-time copy of a feed. Revision increases on every
// change to Items.
type State[T Record] struct {
	Items     []T
	Loading   bool
	Connected bool
	Err       string
	Revision  uint64
	UpdatedAt time.Time
}

// Feed owns the in-memory list of one screen. The list changes only by
// whole replacement (fetch or push) or by an optimistic Patch/Remove, and
// whichever of those lands last wins.
type Feed[T Record] struct {
	cfg Config[T]

	mu          sync.Mutex
	state       State[T]
	started     bool
	closed      bool
	subscribing bool
	conn        *websocket.Conn
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

func New[T Record](cfg Config[T]) *Feed[T] {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Dialer == nil {
		cfg.Dialer = &websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	}
	if cfg.MessageType == "" {
		cfg.MessageType = strings.ReplaceAll(cfg.Resource, "-", "_") + "_update"
	}
	return &Feed[T]{cfg: cfg, state: State[T]{Items: []T{}}}
}

// Start issues the initial fetch and opens the socket, both in the
// background. Without a usable token the feed settles in an error state
// and nothing is retried.
func (f *Feed[T]) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.started {
		f.mu.Unlock()
		return errors.New("feed already started")
	}
	f.started = true
	f.ctx, f.cancel = context.WithCancel(ctx)
	f.mu.Unlock()

	if err := f.mount(); err != nil {
		return err
	}

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		f.fetch(f.ctx)
	}()
	return nil
}

// Reload is the manual retry: it refetches synchronously and reopens the
// socket when it is not connected.
func (f *Feed[T]) Reload(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if !f.started {
		f.started = true
		f.ctx, f.cancel = context.WithCancel(context.Background())
	}
	f.mu.Unlock()

	if err := f.mount(); err != nil {
		return err
	}
	return f.fetch(ctx)
}

// mount checks the token, raises the loading flag and opens the socket
// unless one is already open or being dialed.
func (f *Feed[T]) mount() error {
	token, err := f.cfg.Tokens.Token()

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		f.state.Loading = false
		f.state.Err = errText(err)
		snap := f.snapshotLocked()
		f.mu.Unlock()
		f.notify(snap)
		return err
	}
	f.state.Loading = true
	f.state.Err = ""
	dial := !f.subscribing && f.conn == nil
	if dial {
		f.subscribing = true
		f.wg.Add(1)
	}
	snap := f.snapshotLocked()
	f.mu.Unlock()
	f.notify(snap)

	if dial {
		go func() {
			defer f.wg.Done()
			f.subscribe(token)
		}()
	}
	return nil
}

func (f *Feed[T]) fetch(ctx context.Context) error {
	items, err := f.cfg.Fetch(ctx)

	f.mu.Lock()
	if f.closed {
		// Disposed while the request was in flight.
		f.mu.Unlock()
		return ErrClosed
	}
	f.state.Loading = false
	if err != nil {
		f.state.Err = errText(err)
		snap := f.snapshotLocked()
		f.mu.Unlock()
		f.cfg.Logger.Warn("initial fetch failed", zap.String("resource", f.cfg.Resource), zap.Error(err))
		f.notify(snap)
		return err
	}
	f.state.Err = ""
	f.replaceLocked(items)
	snap := f.snapshotLocked()
	f.mu.Unlock()
	f.notify(snap)
	return nil
}

func (f *Feed[T]) socketURL(token string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(f.cfg.WSBaseURL, "/") + "/ws/" + f.cfg.Resource)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (f *Feed[T]) subscribe(token string) {
	log := f.cfg.Logger.With(zap.String("resource", f.cfg.Resource))
	defer func() {
		f.mu.Lock()
		f.subscribing = false
		f.mu.Unlock()
	}()

	target, err := f.socketURL(token)
	if err != nil {
		log.Error("bad websocket url", zap.Error(err))
		return
	}

	conn, _, err := f.cfg.Dialer.DialContext(f.ctx, target, nil)
	if err != nil {
		if f.ctx.Err() == nil {
			log.Warn("websocket dial failed", zap.Error(err))
		}
		return
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		_ = conn.Close()
		return
	}
	f.conn = conn
	f.state.Connected = true
	snap := f.snapshotLocked()
	f.mu.Unlock()

	log.Info("websocket connected")
	f.setConnected(true)
	f.notify(snap)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			f.mu.Lock()
			closed := f.closed
			f.conn = nil
			f.state.Connected = false
			snap := f.snapshotLocked()
			f.mu.Unlock()

			f.setConnected(false)
			if !closed {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Info("websocket closed by server")
				} else {
					log.Warn("websocket error", zap.Error(err))
				}
				f.notify(snap)
			}
			return
		}
		f.handleMessage(data, log)
	}
}

func (f *Feed[T]) handleMessage(data []byte, log *zap.Logger) {
	items, err := decodePush[T](data, f.cfg.MessageType)
	if err != nil {
		log.Warn("ignoring websocket message", zap.Error(err), zap.Int("bytes", len(data)))
		f.observePush("ignored")
		return
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.replaceLocked(items)
	snap := f.snapshotLocked()
	f.mu.Unlock()

	f.observePush("applied")
	f.notify(snap)
}

// Patch applies fn to a copy of the record with id and swaps it in. It
// reports false when no such record is held.
func (f *Feed[T]) Patch(id string, fn func(*T)) bool {
	f.mu.Lock()
	idx := f.indexLocked(id)
	if idx < 0 || f.closed {
		f.mu.Unlock()
		return false
	}
	next := make([]T, len(f.state.Items))
	copy(next, f.state.Items)
	rec := next[idx]
	fn(&rec)
	next[idx] = rec
	f.replaceLocked(next)
	snap := f.snapshotLocked()
	f.mu.Unlock()
	f.notify(snap)
	return true
}

// Remove drops the record with id from the local list.
func (f *Feed[T]) Remove(id string) bool {
	f.mu.Lock()
	if f.closed || f.indexLocked(id) < 0 {
		f.mu.Unlock()
		return false
	}
	next := make([]T, 0, len(f.state.Items))
	for _, it := range f.state.Items {
		if it.Key() != id {
			next = append(next, it)
		}
	}
	f.replaceLocked(next)
	snap := f.snapshotLocked()
	f.mu.Unlock()
	f.notify(snap)
	return true
}

// Get returns the record with id.
func (f *Feed[T]) Get(id string) (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if idx := f.indexLocked(id); idx >= 0 {
		return f.state.Items[idx], true
	}
	var zero T
	return zero, false
}

// Snapshot returns a copy of the current state.
func (f *Feed[T]) Snapshot() State[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

// Close tears the feed down: the socket is closed if open, in-flight work
// is cancelled and any late results are dropped. Close blocks until the
// feed's goroutines have exited.
func (f *Feed[T]) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	if f.cancel != nil {
		f.cancel()
	}
	conn := f.conn
	f.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}
	f.wg.Wait()
	return nil
}

func (f *Feed[T]) replaceLocked(items []T) {
	if items == nil {
		items = []T{}
	}
	f.state.Items = items
	f.state.Revision++
	f.state.UpdatedAt = time.Now()
}

func (f *Feed[T]) indexLocked(id string) int {
	for i, it := range f.state.Items {
		if it.Key() == id {
			return i
		}
	}
	return -1
}

func (f *Feed[T]) snapshotLocked() State[T] {
	s := f.state
	s.Items = append([]T(nil), f.state.Items...)
	return s
}

func (f *Feed[T]) notify(s State[T]) {
	if f.cfg.OnChange != nil {
		f.cfg.OnChange(s)
	}
}

func (f *Feed[T]) observePush(outcome string) {
	if f.cfg.Recorder != nil {
		f.cfg.Recorder.ObservePush(f.cfg.Resource, outcome)
	}
}

func (f *Feed[T]) setConnected(v bool) {
	if f.cfg.Recorder != nil {
		f.cfg.Recorder.SetConnected(f.cfg.Resource, v)
	}
}

func errText(err error) string {
	switch {
	case errors.Is(err, auth.ErrNoToken):
		return auth.NoTokenMessage
	case errors.Is(err, auth.ErrTokenExpired):
		return "Token has expired"
	}
	return err.Error()
}
