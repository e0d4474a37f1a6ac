package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/arung-agamani/icerelay/config"
	"github.com/arung-agamani/icerelay/internal/source"
	"github.com/arung-agamani/icerelay/internal/stats"
)

// tickInterval is the supervisor's sleep between loop iterations.
const tickInterval = 1 * time.Second

// Supervisor is the single long-lived relay controller. It owns both relay
// lists and drives the reconcile/cleanup/start cycle.
type Supervisor struct {
	Signals       *Signals
	Reconciler    *Reconciler
	Sweeper       *Sweeper
	MasterFetcher *MasterFetcher
	SlaveHosts    *SlaveHostTable
	Registry      *source.Registry
	Stats         *stats.Stats

	RelayConfigPath string

	// configSnapshot is read under configMu, acquired and released around
	// every read of the shared config; never held across network I/O or
	// across relayMu.
	configMu       sync.Mutex
	configSnapshot *config.RelayConfig

	relayMu      sync.Mutex
	staticRelays *List
	masterRelays *List

	rereadCh chan struct{}
	fetchWG  sync.WaitGroup

	// OnEvent, if set, is invoked with kind "relay_stopped" for every record
	// a reconcile pass moves to cleanup, so the admin API can fan it out over
	// its live event feed; no other kinds are emitted. It must not block.
	OnEvent func(kind, mount string)
}

// NewSupervisor constructs a Supervisor ready to Run. rereadCh is fed by a
// config.Watcher; a nil channel is valid (no hot file watching).
func NewSupervisor(path string, rereadCh chan struct{}) *Supervisor {
	return &Supervisor{
		Signals:         NewSignals(),
		Reconciler:      NewReconciler(),
		SlaveHosts:      NewSlaveHostTable(),
		RelayConfigPath: path,
		staticRelays:    NewList(),
		masterRelays:    NewList(),
		rereadCh:        rereadCh,
	}
}

// Run executes the supervisor loop until ctx is cancelled. On cancellation
// it performs the final "cleanup everything" pass before returning.
func (s *Supervisor) Run(ctx context.Context) error {
	if err := s.reloadConfig(); err != nil {
		return fmt.Errorf("loading initial relay config: %w", err)
	}

	s.updateMasterAsSlave(s.snapshot())
	slog.Info("Relay supervisor started", "config", s.RelayConfigPath)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Signals.RequestShutdown()
			s.shutdown()
			return nil

		case <-s.rereadCh:
			s.Signals.RequestConfigReread()

		case <-ticker.C:
			if s.Signals.scheduleConfigReread.CompareAndSwap(true, false) {
				if err := s.reloadConfig(); err != nil {
					slog.Warn("Relay config reload failed, keeping previous snapshot", "error", err)
				} else {
					s.Signals.MarkSettingsDirty()
				}
			}
			s.tick()
		}
	}
}

func (s *Supervisor) snapshot() *config.RelayConfig {
	s.configMu.Lock()
	defer s.configMu.Unlock()
	return s.configSnapshot
}

func (s *Supervisor) reloadConfig() error {
	cfg, err := config.LoadRelayConfig(s.RelayConfigPath)
	if err != nil {
		return err
	}
	s.configMu.Lock()
	s.configSnapshot = cfg
	s.configMu.Unlock()
	return nil
}

// tick runs a single iteration of the loop body.
func (s *Supervisor) tick() {
	rescanRequested := s.Signals.rescanRequested.Load()
	interval := s.Signals.interval.Load()
	maxInterval := s.Signals.maxInterval.Load()

	if !rescanRequested && interval < maxInterval {
		s.Signals.interval.Add(1)
		if s.Signals.settingsDirty.CompareAndSwap(true, false) {
			s.relayMu.Lock()
			s.Sweeper.Start(s.staticRelays)
			s.Sweeper.Start(s.masterRelays)
			s.relayMu.Unlock()
		}
		return
	}

	if interval >= maxInterval {
		s.fullRefresh()
	} else {
		s.lightRescan()
	}

	s.Signals.rescanRequested.Store(false)
	s.Signals.settingsDirty.Store(false)
}

// fullRefresh re-snapshots config, resets the interval, reseeds the slave
// host table, kicks off a detached master fetch, and reconciles the static
// relay list against the fresh config.
func (s *Supervisor) fullRefresh() {
	cfg := s.snapshot()

	s.Signals.interval.Store(0)
	s.Signals.maxInterval.Store(int64(cfg.Master.UpdateInterval().Seconds()))

	s.updateMasterAsSlave(cfg)
	s.spawnMasterFetch(cfg)

	templates := staticTemplates(cfg)

	s.relayMu.Lock()
	keep, cleanup := s.Reconciler.Reconcile(s.staticRelays, templates)
	s.staticRelays = keep
	s.Sweeper.Cleanup(cleanup)
	s.Sweeper.Start(s.staticRelays)
	s.relayMu.Unlock()

	s.emitCleanupEvents(cleanup)
}

// lightRescan is the lightweight branch: no new desired set, just re-run
// the start/on-demand/completion sweep over both existing lists.
func (s *Supervisor) lightRescan() {
	s.relayMu.Lock()
	defer s.relayMu.Unlock()
	s.Sweeper.Start(s.masterRelays)
	s.Sweeper.Start(s.staticRelays)
}

// spawnMasterFetch runs a detached fetch-and-commit cycle. The supervisor's
// shutdown path waits for in-flight fetches via fetchWG before freeing the
// lists they would otherwise commit into.
func (s *Supervisor) spawnMasterFetch(cfg *config.RelayConfig) {
	if cfg.Master.Server == "" {
		return
	}

	s.fetchWG.Add(1)
	go func() {
		defer s.fetchWG.Done()

		ctx, cancel := context.WithTimeout(context.Background(), FetchTimeout)
		defer cancel()

		records, err := s.MasterFetcher.Fetch(ctx, cfg.Master, cfg.OnDemandDefault)
		if err != nil {
			slog.Warn("Master streamlist fetch failed", "master", cfg.Master.Server, "error", err)
			return
		}

		if s.Signals.ShutdownRequested() {
			return
		}

		s.relayMu.Lock()
		keep, cleanup := s.Reconciler.Reconcile(s.masterRelays, records)
		s.masterRelays = keep
		s.Sweeper.Cleanup(cleanup)
		s.Sweeper.Start(s.masterRelays)
		s.relayMu.Unlock()

		s.emitCleanupEvents(cleanup)
	}()
}

// updateMasterAsSlave seeds the SlaveHostTable with the master server
// itself, iff this instance advertises a redirect port to it.
func (s *Supervisor) updateMasterAsSlave(cfg *config.RelayConfig) {
	if cfg == nil || cfg.Master.Server == "" || cfg.Master.RedirectPort == 0 {
		return
	}
	header := fmt.Sprintf("%s:%d", cfg.Master.Server, cfg.Master.Port)
	if err := s.SlaveHosts.Add(header); err != nil {
		slog.Warn("Failed to seed slave host table with master", "error", err)
	}
}

// shutdown waits for any in-flight fetch to commit or abort, then cleans up
// both lists entirely.
func (s *Supervisor) shutdown() {
	slog.Info("Relay supervisor shutting down")
	s.fetchWG.Wait()

	s.relayMu.Lock()
	static := s.staticRelays
	master := s.masterRelays
	s.staticRelays = NewList()
	s.masterRelays = NewList()
	s.relayMu.Unlock()

	s.Sweeper.Cleanup(static)
	s.Sweeper.Cleanup(master)
	slog.Info("Relay supervisor stopped")
}

func (s *Supervisor) emitCleanupEvents(cleanup *List) {
	if s.OnEvent == nil {
		return
	}
	for _, r := range cleanup.Records() {
		s.OnEvent("relay_stopped", r.LocalMount)
	}
}

// RecheckMounts forces an immediate full refresh on the next tick.
func (s *Supervisor) RecheckMounts() { s.Signals.RequestFullRefresh() }

// Rescan forces at least a light rescan on the next tick.
func (s *Supervisor) Rescan() { s.Signals.RequestRescan() }

// RebuildMounts forces both a rescan and a full refresh on the next tick.
func (s *Supervisor) RebuildMounts() { s.Signals.RequestRebuildMounts() }

// FindRelay looks up a record by local mount across both lists under the
// relay lock.
func (s *Supervisor) FindRelay(mount string) (*Record, bool) {
	s.relayMu.Lock()
	defer s.relayMu.Unlock()
	if r, ok := s.staticRelays.Find(mount); ok {
		return r, true
	}
	return s.masterRelays.Find(mount)
}

// Snapshot returns a point-in-time copy of both relay lists' records, for
// the admin API's read-only status views.
func (s *Supervisor) Snapshot() (static, master []*Record) {
	s.relayMu.Lock()
	defer s.relayMu.Unlock()
	return append([]*Record(nil), s.staticRelays.Records()...), append([]*Record(nil), s.masterRelays.Records()...)
}

func staticTemplates(cfg *config.RelayConfig) []*Record {
	if cfg == nil {
		return nil
	}
	records := make([]*Record, 0, len(cfg.Relays))
	for _, t := range cfg.Relays {
		records = append(records, &Record{
			Server:           t.Server,
			Port:             t.Port,
			Mount:            t.Mount,
			LocalMount:       t.LocalMount,
			Username:         t.Username,
			Password:         t.Password,
			MP3Metadata:      t.MP3Metadata,
			OnDemand:         t.OnDemand,
			Enable:           t.Enable,
			FallbackMount:    t.FallbackMount,
			FallbackOverride: t.FallbackOverride,
		})
	}
	return records
}
