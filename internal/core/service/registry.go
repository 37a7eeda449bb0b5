package service

import (
	"context"
	"sync"
	"time"

	"github.com/inventory-system/inventory-web/internal/core/ports"
	"github.com/inventory-system/inventory-web/internal/core/view"
	"github.com/inventory-system/inventory-web/internal/pkg/metrics"
)

const defaultIdleTTL = 30 * time.Minute

// Entry is everything the server holds for one browser session: its
// authorization context, the product view of the current page load and a
// one-shot flash message.
type Entry struct {
	Session *Session

	mu       sync.Mutex
	products *view.ProductList
	flash    string
	lastSeen time.Time
}

// ProductList returns the session's product list, creating it bound to gw
// on first use.
func (e *Entry) ProductList(gw ports.ProductGateway) *view.ProductList {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.products == nil {
		e.products = view.NewProductList(gw)
	}
	return e.products
}

// ResetViews closes the views of the session so that responses still in
// flight for them are dropped.
func (e *Entry) ResetViews() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.products != nil {
		e.products.Close()
		e.products = nil
	}
}

// SetFlash stores a message shown once on the next rendered page.
func (e *Entry) SetFlash(msg string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.flash = msg
}

// TakeFlash returns and clears the flash message.
func (e *Entry) TakeFlash() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	msg := e.flash
	e.flash = ""
	return msg
}

func (e *Entry) touch(now time.Time) {
	e.mu.Lock()
	e.lastSeen = now
	e.mu.Unlock()
}

func (e *Entry) idleSince(now time.Time) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return now.Sub(e.lastSeen)
}

// SessionRegistry owns one Entry per browser session id. It is the single
// owner of session state; handlers reach a Session only through it.
type SessionRegistry struct {
	deps    SessionDeps
	idleTTL time.Duration

	mu      sync.Mutex
	entries map[string]*Entry
	closed  bool
}

// NewSessionRegistry returns a registry that evicts entries idle for longer
// than idleTTL (30 minutes when zero). Evicted sessions are restored from the
// credential store on the next request.
func NewSessionRegistry(deps SessionDeps, idleTTL time.Duration) *SessionRegistry {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	return &SessionRegistry{
		deps:    deps,
		idleTTL: idleTTL,
		entries: make(map[string]*Entry),
	}
}

// Get returns the entry for id, creating an uninitialized one if needed.
func (r *SessionRegistry) Get(id string) *Entry {
	now := r.deps.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		e = &Entry{Session: NewSession(id, r.deps)}
		if !r.closed {
			r.entries[id] = e
			metrics.ActiveSessions.Set(float64(len(r.entries)))
		}
	}
	e.touch(now)
	return e
}

// Len returns the number of entries held.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep evicts idle entries and returns how many were removed.
func (r *SessionRegistry) Sweep() int {
	now := r.deps.Now()

	r.mu.Lock()
	var idle []*Entry
	for id, e := range r.entries {
		if e.idleSince(now) > r.idleTTL {
			idle = append(idle, e)
			delete(r.entries, id)
		}
	}
	metrics.ActiveSessions.Set(float64(len(r.entries)))
	r.mu.Unlock()

	for _, e := range idle {
		e.ResetViews()
	}
	if len(idle) > 0 {
		r.deps.Logger.Debug().Int("evicted", len(idle)).Msg("idle sessions swept")
	}
	return len(idle)
}

// Run sweeps every interval until ctx is cancelled.
func (r *SessionRegistry) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Sweep()
		}
	}
}

// Close drops every entry. Later Get calls return detached entries that are
// not retained.
func (r *SessionRegistry) Close() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*Entry)
	r.closed = true
	metrics.ActiveSessions.Set(0)
	r.mu.Unlock()

	for _, e := range entries {
		e.ResetViews()
	}
}
