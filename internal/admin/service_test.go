package admin

import (
	"testing"

	"github.com/arung-agamani/icerelay/internal/relay"
	"github.com/arung-agamani/icerelay/internal/source"
	"github.com/arung-agamani/icerelay/internal/stats"
)

func newTestSupervisorForService(t *testing.T) *relay.Supervisor {
	t.Helper()
	sup := relay.NewSupervisor("/dev/null", make(chan struct{}, 1))
	sup.Registry = source.NewRegistry()
	sup.Stats = stats.New()
	return sup
}

func TestServiceStatusCountsRunningAcrossBothLists(t *testing.T) {
	t.Parallel()

	sup := newTestSupervisorForService(t)
	svc := NewService(sup)

	status := svc.Status()
	if status.StaticRelayCount != 0 || status.MasterRelayCount != 0 || status.RunningCount != 0 {
		t.Fatalf("Status() on an empty supervisor = %+v, want all zero", status)
	}
}

func TestServiceRelaysProjectsRecordsToViews(t *testing.T) {
	t.Parallel()

	sup := newTestSupervisorForService(t)
	svc := NewService(sup)

	snap := svc.Relays()
	if snap.Static == nil || snap.Master == nil {
		t.Fatal("Relays() should return non-nil (possibly empty) slices for JSON stability")
	}
	if len(snap.Static) != 0 || len(snap.Master) != 0 {
		t.Fatalf("Relays() on an empty supervisor = %+v, want both empty", snap)
	}
}

func TestServiceSlavesDedupesAcrossPickRandomSamples(t *testing.T) {
	t.Parallel()

	sup := newTestSupervisorForService(t)
	_ = sup.SlaveHosts.Add("a.example.org:8000")
	_ = sup.SlaveHosts.Add("b.example.org:8001")

	svc := NewService(sup)
	views := svc.Slaves()

	if len(views) != 2 {
		t.Fatalf("Slaves() len = %d, want 2", len(views))
	}
	seen := map[string]bool{}
	for _, v := range views {
		if seen[v.Server] {
			t.Fatalf("Slaves() returned a duplicate entry for %q", v.Server)
		}
		seen[v.Server] = true
	}
}

func TestServiceRedirectPicksAKnownSlaveHost(t *testing.T) {
	t.Parallel()

	sup := newTestSupervisorForService(t)
	_ = sup.SlaveHosts.Add("x:1")
	_ = sup.SlaveHosts.Add("y:2")

	svc := NewService(sup)
	location, ok := svc.Redirect("/m")
	if !ok {
		t.Fatal("Redirect() ok = false, want true with slave hosts present")
	}
	if location != "http://x:1/m" && location != "http://y:2/m" {
		t.Fatalf("Redirect() = %q, want http://x:1/m or http://y:2/m", location)
	}
}

func TestServiceRedirectWithNoSlaveHostsReportsNotOK(t *testing.T) {
	t.Parallel()

	sup := newTestSupervisorForService(t)
	svc := NewService(sup)

	if _, ok := svc.Redirect("/m"); ok {
		t.Fatal("Redirect() ok = true, want false with no slave hosts known")
	}
}

func TestServiceReloadRescanRebuildDelegate(t *testing.T) {
	t.Parallel()

	sup := newTestSupervisorForService(t)
	svc := NewService(sup)

	// These simply must not panic; the underlying signal transitions are
	// covered by the relay package's own supervisor tests.
	svc.Reload()
	svc.Rescan()
	svc.Rebuild()
}
