// Package source is the server-wide registry of named mountpoint
// reservations that relay workers attach to and listeners read from. The
// actual audio decoding and the public-facing HTTP/ICY listener surface are
// out of scope; this package gives the relay pipeline a concrete,
// minimal byte-fan-out primitive to drive and test against.
package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

var (
	// ErrMountCollision is returned by Reserve when local_mount is already
	// held by another slot.
	ErrMountCollision = errors.New("source: mountpoint already reserved")
	// ErrNotFound is returned when a lookup by mount fails.
	ErrNotFound = errors.New("source: mountpoint not found")
)

// Slot is a single named reservation in the source tree. It owns the
// fan-out of upstream bytes to attached listeners and the bookkeeping
// on-demand activation reads (Running, ListenerCount).
type Slot struct {
	Mount string

	// FallbackMount/FallbackOverride mirror the relay's configured fallback
	// policy and are read by the cleanup/start sweep under the registry's
	// read lock — they are set once at creation and treated as immutable
	// thereafter, so no separate lock is needed for them.
	FallbackMount    string
	FallbackOverride bool

	running     atomic.Bool
	onDemandReq atomic.Bool
	sourceIP    atomic.Value // string

	mu      sync.RWMutex
	clients map[uint64]*subscriber
	nextID  uint64
}

type subscriber struct {
	id uint64
	ch chan []byte
}

func newSlot(mount string) *Slot {
	s := &Slot{
		Mount:   mount,
		clients: make(map[uint64]*subscriber),
	}
	s.sourceIP.Store("")
	return s
}

// Running reports whether the upstream pump is currently active for this
// slot, mirrored onto the slot so both the worker and the cleanup sweep can
// read it without touching the record.
func (s *Slot) Running() bool { return s.running.Load() }

// SetRunning is the cooperative stop/start switch: the supervisor sets it
// false to request a stop; the worker's pump observes it and returns.
func (s *Slot) SetRunning(v bool) { s.running.Store(v) }

// SourceIP is the upstream server this slot is currently relaying from.
func (s *Slot) SourceIP() string {
	v, _ := s.sourceIP.Load().(string)
	return v
}

func (s *Slot) SetSourceIP(ip string) { s.sourceIP.Store(ip) }

// RequestOnDemand marks that demand exists via fallback override.
func (s *Slot) RequestOnDemand()      { s.onDemandReq.Store(true) }
func (s *Slot) ClearOnDemandReq()     { s.onDemandReq.Store(false) }
func (s *Slot) OnDemandRequested() bool { return s.onDemandReq.Load() }

// Subscribe registers a new listener and returns a handle the caller must
// eventually pass to Unsubscribe.
func (s *Slot) Subscribe() *subscriber {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	sub := &subscriber{id: id, ch: make(chan []byte, 256)}
	s.clients[id] = sub
	return sub
}

// Unsubscribe removes a listener.
func (s *Slot) Unsubscribe(sub *subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[sub.id]; ok {
		delete(s.clients, sub.id)
		close(sub.ch)
	}
}

// ListenerCount returns the number of attached listeners — read by the
// on-demand fallback-override check and exported as the "listeners" stat.
func (s *Slot) ListenerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Pump copies bytes from r to every attached listener until r is exhausted,
// an error occurs, or Running() is set to false. Bytes are relayed
// verbatim, never decoded.
func (s *Slot) Pump(r io.Reader) error {
	s.SetRunning(true)
	defer s.SetRunning(false)

	buf := bufio.NewReaderSize(r, 8192)
	chunk := make([]byte, 4096)

	for s.Running() {
		n, err := buf.Read(chunk)
		if n > 0 {
			s.broadcast(chunk[:n])
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("source pump read: %w", err)
		}
	}
	return nil
}

func (s *Slot) broadcast(p []byte) {
	out := make([]byte, len(p))
	copy(out, p)

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.clients {
		select {
		case sub.ch <- out:
		default:
			// Slow listener — drop this chunk rather than block the pump;
			// the only flow control here is socket backpressure.
		}
	}
}

// Registry is the shared source tree. One Registry instance per server
// process; the reconciler's two lists (static and master) both reserve into
// it, which is what gives local_mount uniqueness across their union.
type Registry struct {
	mu    sync.RWMutex
	slots map[string]*Slot
}

func NewRegistry() *Registry {
	return &Registry{slots: make(map[string]*Slot)}
}

// Reserve creates and registers a new Slot for mount, or returns
// ErrMountCollision if one is already held.
func (r *Registry) Reserve(mount string) (*Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.slots[mount]; exists {
		return nil, fmt.Errorf("%w: %s", ErrMountCollision, mount)
	}
	slot := newSlot(mount)
	r.slots[mount] = slot
	return slot, nil
}

// Release frees a reservation.
func (r *Registry) Release(mount string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.slots, mount)
}

// Find looks up a slot by mount under the registry's read lock.
func (r *Registry) Find(mount string) (*Slot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.slots[mount]
	return s, ok
}

// MoveClients transfers every attached listener from src to dst, invoked on
// fallback handoff. It returns the number of listeners moved.
func (r *Registry) MoveClients(src, dst *Slot) int {
	src.mu.Lock()
	moved := src.clients
	src.clients = make(map[uint64]*subscriber)
	src.mu.Unlock()

	if len(moved) == 0 {
		return 0
	}

	dst.mu.Lock()
	defer dst.mu.Unlock()
	n := 0
	for _, sub := range moved {
		id := dst.nextID
		dst.nextID++
		sub.id = id
		dst.clients[id] = sub
		n++
	}

	slog.Info("Moved listeners on fallback", "from", src.Mount, "to", dst.Mount, "count", n)
	return n
}
