// Package stats exposes relay-worker and supervisor metrics, backed by
// github.com/prometheus/client_golang.
package stats

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stats exposes the per-mount and global counters the relay worker and
// supervisor emit.
type Stats struct {
	registry *prometheus.Registry

	relayConnections prometheus.Counter
	sourceIP         *prometheus.GaugeVec
	listeners        *prometheus.GaugeVec

	mu         sync.Mutex
	sourceByMt map[string]string // mount -> currently-set source_ip label value
}

// New creates a Stats instance registered against its own registry (not the
// global default, so multiple instances can coexist in tests).
func New() *Stats {
	reg := prometheus.NewRegistry()

	s := &Stats{
		registry: reg,
		relayConnections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "source_relay_connections_total",
			Help: "Total number of relay worker connections established to upstream servers.",
		}),
		sourceIP: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "source_ip_info",
			Help: "Upstream source IP/host currently relayed for a mount (value is always 1; host is in the label).",
		}, []string{"mount", "source_ip"}),
		listeners: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "source_listeners",
			Help: "Current listener count for a mount.",
		}, []string{"mount"}),
	}

	s.sourceByMt = make(map[string]string)

	reg.MustRegister(s.relayConnections, s.sourceIP, s.listeners)
	return s
}

// IncRelayConnections increments the total relay connection counter.
func (s *Stats) IncRelayConnections() {
	s.relayConnections.Inc()
}

// SetSourceIP records the upstream source IP currently relayed for a mount.
// Only one (mount, source_ip) series is ever live per mount — setting a new
// ip for a mount first deletes its previous series, rather than resetting
// the whole vector (which would also wipe every other mount's series).
func (s *Stats) SetSourceIP(mount, ip string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.sourceByMt[mount]; ok && prev != ip {
		s.sourceIP.DeleteLabelValues(mount, prev)
	}
	s.sourceByMt[mount] = ip
	s.sourceIP.WithLabelValues(mount, ip).Set(1)
}

// SetListeners records the current listener count for a mount.
func (s *Stats) SetListeners(mount string, n int) {
	s.listeners.WithLabelValues(mount).Set(float64(n))
}

// ClearMount removes all stats series for a mount.
func (s *Stats) ClearMount(mount string) {
	s.listeners.DeleteLabelValues(mount)

	s.mu.Lock()
	defer s.mu.Unlock()
	if ip, ok := s.sourceByMt[mount]; ok {
		s.sourceIP.DeleteLabelValues(mount, ip)
		delete(s.sourceByMt, mount)
	}
}

// Handler returns the /metrics HTTP handler for this Stats instance.
func (s *Stats) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
