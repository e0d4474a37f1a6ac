package admin

import (
	"github.com/arung-agamani/icerelay/internal/relay"
)

// Service wraps the relay Supervisor with the read models and control
// operations the admin API exposes.
type Service struct {
	supervisor *relay.Supervisor
}

func NewService(sup *relay.Supervisor) *Service {
	return &Service{supervisor: sup}
}

// RelayView is the JSON-facing projection of a relay.Record.
type RelayView struct {
	Server     string `json:"server"`
	Port       uint16 `json:"port"`
	Mount      string `json:"mount"`
	LocalMount string `json:"local_mount"`
	OnDemand   bool   `json:"on_demand"`
	Enable     bool   `json:"enable"`
	Running    bool   `json:"running"`
	Cleanup    bool   `json:"cleanup"`
	Listeners  int    `json:"listeners"`
	SourceIP   string `json:"source_ip,omitempty"`
}

func toView(r *relay.Record) RelayView {
	v := RelayView{
		Server:     r.Server,
		Port:       r.Port,
		Mount:      r.Mount,
		LocalMount: r.LocalMount,
		OnDemand:   r.OnDemand,
		Enable:     r.Enable,
		Running:    r.Running,
		Cleanup:    r.Cleanup,
	}
	if r.Source != nil {
		v.Listeners = r.Source.ListenerCount()
		v.SourceIP = r.Source.SourceIP()
	}
	return v
}

// RelaysSnapshot is the response body of GET /admin/relays.
type RelaysSnapshot struct {
	Static []RelayView `json:"static"`
	Master []RelayView `json:"master"`
}

func (s *Service) Relays() RelaysSnapshot {
	static, master := s.supervisor.Snapshot()

	snap := RelaysSnapshot{
		Static: make([]RelayView, 0, len(static)),
		Master: make([]RelayView, 0, len(master)),
	}
	for _, r := range static {
		snap.Static = append(snap.Static, toView(r))
	}
	for _, r := range master {
		snap.Master = append(snap.Master, toView(r))
	}
	return snap
}

// StatusSnapshot is the response body of GET /admin/status.
type StatusSnapshot struct {
	StaticRelayCount int `json:"static_relay_count"`
	MasterRelayCount int `json:"master_relay_count"`
	RunningCount     int `json:"running_count"`
	SlaveHostCount   int `json:"slave_host_count"`
}

func (s *Service) Status() StatusSnapshot {
	static, master := s.supervisor.Snapshot()
	running := 0
	for _, r := range static {
		if r.Running {
			running++
		}
	}
	for _, r := range master {
		if r.Running {
			running++
		}
	}

	return StatusSnapshot{
		StaticRelayCount: len(static),
		MasterRelayCount: len(master),
		RunningCount:     running,
		SlaveHostCount:   s.supervisor.SlaveHosts.SlaveCount(),
	}
}

// SlaveHostView is the JSON-facing projection of a relay.SlaveHost.
type SlaveHostView struct {
	Server string `json:"server"`
	Port   int    `json:"port"`
	Count  int    `json:"count"`
}

func (s *Service) Slaves() []SlaveHostView {
	// The table doesn't expose a full enumeration primitive, only
	// add/remove/pick_random; up to four times SlaveCount PickRandom samples
	// with dedup give a reasonable best-effort listing for the dashboard
	// without adding a new table operation.
	n := s.supervisor.SlaveHosts.SlaveCount()
	seen := make(map[string]bool, n)
	views := make([]SlaveHostView, 0, n)
	for i := 0; i < n*4 && len(views) < n; i++ {
		h, ok := s.supervisor.SlaveHosts.PickRandom()
		if !ok {
			break
		}
		key := h.Server
		if seen[key] {
			continue
		}
		seen[key] = true
		views = append(views, SlaveHostView{Server: h.Server, Port: h.Port, Count: h.Count})
	}
	return views
}

// Redirect picks a random known slave host and returns the absolute URL a
// listener requesting mount should be sent to instead of being served
// locally. ok is false iff no slave host is currently known.
func (s *Service) Redirect(mount string) (location string, ok bool) {
	return s.supervisor.SlaveHosts.SlaveRedirect(mount)
}

// Reload forces an immediate full refresh of the static relay list.
func (s *Service) Reload() { s.supervisor.RecheckMounts() }

// Rescan forces a light rescan of both relay lists.
func (s *Service) Rescan() { s.supervisor.Rescan() }

// Rebuild forces both a full refresh and a rescan.
func (s *Service) Rebuild() { s.supervisor.RebuildMounts() }
