// Package relay implements the relay supervisor subsystem: reconciling a
// desired set of upstream relays against a running set, starting and
// stopping per-relay workers, and maintaining the slave host redirect table.
package relay

import (
	"context"
	"strings"

	"github.com/arung-agamani/icerelay/internal/source"
)

// Record is one configured relay: the description of an upstream mountpoint
// to mirror, plus the runtime handles attached once the relay is accepted.
type Record struct {
	Server string
	Port   uint16
	Mount  string

	// LocalMount is the local mountpoint this relay is served under; it must
	// begin with "/" (enforced at start time).
	LocalMount string

	Username string
	Password string

	MP3Metadata bool
	OnDemand    bool
	Enable      bool

	FallbackMount    string
	FallbackOverride bool

	// Runtime handles. Zero value means "not yet started".
	Source  *source.Slot
	Running bool
	Cleanup bool

	cancel context.CancelFunc
	done   chan struct{}
}

// HasCredentials reports whether username/password are both set; they're
// used together or not at all.
func (r *Record) HasCredentials() bool {
	return r.Username != "" && r.Password != ""
}

// ValidLocalMount reports whether LocalMount is admissible as a mountpoint
// name.
func (r *Record) ValidLocalMount() bool {
	return strings.HasPrefix(r.LocalMount, "/")
}

// MateriallyEquivalent reports whether two records are equal enough that the
// running relay for r can be kept rather than restarted for other: server,
// mount, port and mp3_metadata must match. on_demand is deliberately
// excluded — a change there alone is a hot update, not a restart.
func (r *Record) MateriallyEquivalent(other *Record) bool {
	return r.Server == other.Server &&
		r.Mount == other.Mount &&
		r.Port == other.Port &&
		r.MP3Metadata == other.MP3Metadata
}

// Clone deep-copies the configuration fields of r. Runtime handles are never
// copied — a clone always starts with a clean runtime state; the caller is
// responsible for transferring any source handle separately.
func (r *Record) Clone() *Record {
	return &Record{
		Server:           r.Server,
		Port:             r.Port,
		Mount:            r.Mount,
		LocalMount:       r.LocalMount,
		Username:         r.Username,
		Password:         r.Password,
		MP3Metadata:      r.MP3Metadata,
		OnDemand:         r.OnDemand,
		Enable:           r.Enable,
		FallbackMount:    r.FallbackMount,
		FallbackOverride: r.FallbackOverride,
	}
}

// setTask attaches the cancel function and completion channel of a running
// worker — the single-writer fields the supervisor reads under the relay
// lock during the cleanup sweep.
func (r *Record) setTask(cancel context.CancelFunc, done chan struct{}) {
	r.cancel = cancel
	r.done = done
}

// stop requests the worker's cooperative shutdown and blocks until it has
// joined.
func (r *Record) stop() {
	if r.Source != nil {
		r.Source.SetRunning(false)
	}
	if r.cancel != nil {
		r.cancel()
	}
	if r.done != nil {
		<-r.done
	}
	r.cancel = nil
	r.done = nil
}

// hasWorker reports whether a worker task is currently attached.
func (r *Record) hasWorker() bool {
	return r.done != nil
}
