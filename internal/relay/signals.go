package relay

import "sync/atomic"

// Signals are the control flags that drive the supervisor loop. They are
// expressed as atomics rather than plain booleans so concurrent reads and
// writes from the supervisor loop, the admin API, and the config watcher
// are all well-defined.
type Signals struct {
	rescanRequested      atomic.Bool
	maxInterval          atomic.Int64
	interval             atomic.Int64
	shutdownRequested    atomic.Bool
	scheduleConfigReread atomic.Bool
	settingsDirty        atomic.Bool
}

// NewSignals returns Signals initialized so the first tick performs an
// immediate full refresh: a zero max_interval forces it.
func NewSignals() *Signals {
	s := &Signals{}
	s.maxInterval.Store(0)
	s.interval.Store(0)
	return s
}

// RequestRescan forces at least a light rescan on the next tick.
func (s *Signals) RequestRescan() { s.rescanRequested.Store(true) }

// RequestFullRefresh forces an immediate full refresh on the next tick.
func (s *Signals) RequestFullRefresh() { s.maxInterval.Store(0) }

// RequestRebuildMounts forces both a rescan and a full refresh on the next
// tick.
func (s *Signals) RequestRebuildMounts() {
	s.RequestRescan()
	s.RequestFullRefresh()
}

// RequestConfigReread schedules a config file reload on the next tick.
func (s *Signals) RequestConfigReread() { s.scheduleConfigReread.Store(true) }

// MarkSettingsDirty requests a start/on-demand re-evaluation pass after the
// next sweep completes.
func (s *Signals) MarkSettingsDirty() { s.settingsDirty.Store(true) }

// RequestShutdown signals that the supervisor loop should stop.
func (s *Signals) RequestShutdown() { s.shutdownRequested.Store(true) }

func (s *Signals) ShutdownRequested() bool { return s.shutdownRequested.Load() }
