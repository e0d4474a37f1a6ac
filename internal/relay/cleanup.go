package relay

import (
	"log/slog"

	"github.com/arung-agamani/icerelay/internal/source"
	"github.com/arung-agamani/icerelay/internal/stats"
)

// Sweeper applies the cleanup and start/on-demand policy to a reconciled
// list. It is shared across the static and master relay lists; it holds no
// per-list state.
type Sweeper struct {
	Registry *source.Registry
	Worker   *Worker
	Stats    *stats.Stats
	Signals  *Signals
}

// Cleanup disposes of every record in list: stopping and joining any
// running worker, clearing stats, and releasing the source reservation.
func (sw *Sweeper) Cleanup(list *List) {
	for _, r := range list.Records() {
		switch {
		case r.Source != nil && r.hasWorker():
			r.stop()
			sw.Signals.RequestRescan()
		case r.Source != nil:
			sw.Stats.ClearMount(r.LocalMount)
		}

		if r.Source != nil {
			sw.Registry.Release(r.LocalMount)
			r.Source = nil
		}
	}
}

// Start applies the start/on-demand policy to every record in list, then
// runs the independent completion sweep for each.
func (sw *Sweeper) Start(list *List) {
	for _, r := range list.Records() {
		sw.startOne(r)
		sw.completionSweep(r)
	}
}

func (sw *Sweeper) startOne(r *Record) {
	if r.Source == nil {
		if !r.ValidLocalMount() {
			slog.Warn("Skipping relay with invalid local_mount", "local_mount", r.LocalMount)
			return
		}
		slot, err := sw.Registry.Reserve(r.LocalMount)
		if err != nil {
			slog.Warn("Skipping relay, mount already reserved", "local_mount", r.LocalMount, "error", err)
			return
		}
		slot.FallbackMount = r.FallbackMount
		slot.FallbackOverride = r.FallbackOverride
		r.Source = slot
	}

	if r.Running || !r.Enable {
		if !r.Enable {
			sw.Stats.ClearMount(r.LocalMount)
		}
		return
	}

	if !r.OnDemand {
		sw.spawn(r)
		return
	}

	// on_demand == true: demand must be shown, directly or via fallback
	// override, before a worker is spawned.
	if r.Source.FallbackMount != "" && r.Source.FallbackOverride {
		if fb, ok := sw.Registry.Find(r.Source.FallbackMount); ok {
			if fb.Running() && fb.ListenerCount() >= 1 {
				r.Source.RequestOnDemand()
			}
		}
	}

	if r.Source.OnDemandRequested() {
		sw.spawn(r)
	}
}

func (sw *Sweeper) spawn(r *Record) {
	if r.Running {
		return
	}
	r.Running = true
	done := make(chan struct{})
	r.setTask(func() {}, done)

	go func() {
		defer close(done)
		if err := sw.Worker.Run(r); err != nil {
			slog.Warn("Relay worker stopped", "mount", r.LocalMount, "error", err)
		}
		r.Running = false
		sw.Signals.RequestRescan()
	}()

	slog.Info("Relay worker started", "mount", r.LocalMount, "upstream", r.Server, "on_demand", r.OnDemand)
}

// completionSweep runs independently of start decisions: it joins any
// worker whose Cleanup flag has been raised by its own goroutine and resets
// the record to an idle state.
func (sw *Sweeper) completionSweep(r *Record) {
	if !r.Cleanup || !r.hasWorker() {
		return
	}

	r.stop()
	r.Cleanup = false
	r.Running = false

	if !r.Enable {
		sw.Stats.ClearMount(r.LocalMount)
	}
	if r.OnDemand {
		r.Source.ClearOnDemandReq()
		sw.Stats.SetListeners(r.LocalMount, 0)
	}
}
