package queue

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/inventory-system/inventory-web/internal/core/domain"
	"github.com/inventory-system/inventory-web/internal/core/ports"
	"github.com/inventory-system/inventory-web/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64
	revokeTimeout  = 5 * time.Second
)

// Logouter is the backend call a revocation ends in.
type Logouter interface {
	Logout(ctx context.Context, cred domain.Credential) error
}

// Dispatcher sends best-effort remote logouts on a fixed set of workers,
// sharded by session id so revocations of one session stay ordered.
// Enqueue never blocks: when a worker's buffer is full the revocation is
// dropped and counted.
type Dispatcher struct {
	workers []chan ports.Revocation
	auth    Logouter
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, auth Logouter, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.Revocation, numWorkers),
		auth:    auth,
		log:     log.With().Str("component", "revoker").Logger(),
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.Revocation, channelBuffer)
	}
	return d
}

// Start launches the workers. They stop when ctx is cancelled or, after
// Close, once their queue is drained.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands r to the worker responsible for its session.
func (d *Dispatcher) Enqueue(r ports.Revocation) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		metrics.RevocationsTotal.WithLabelValues("dropped").Inc()
		return
	}
	select {
	case d.workers[d.shardIndex(r.SessionID)] <- r:
	default:
		metrics.RevocationsTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().Msg("revocation queue full, dropping")
	}
}

// Close stops accepting revocations and waits for queued ones to be sent.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// shardIndex maps a session id deterministically to a worker index.
func (d *Dispatcher) shardIndex(sessionID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.Revocation) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-ch:
			if !ok {
				return
			}
			d.send(ctx, id, r)
		}
	}
}

func (d *Dispatcher) send(ctx context.Context, id int, r ports.Revocation) {
	sctx, cancel := context.WithTimeout(ctx, revokeTimeout)
	defer cancel()

	if err := d.auth.Logout(sctx, r.Credential); err != nil {
		metrics.RevocationsTotal.WithLabelValues("failed").Inc()
		d.log.Warn().Err(err).
			Int("worker_id", id).
			Msg("remote logout failed")
		return
	}
	metrics.RevocationsTotal.WithLabelValues("sent").Inc()
}
