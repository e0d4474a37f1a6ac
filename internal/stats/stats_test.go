package stats

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestIncRelayConnections(t *testing.T) {
	t.Parallel()

	s := New()
	s.IncRelayConnections()
	s.IncRelayConnections()

	if got := testutil.ToFloat64(s.relayConnections); got != 2 {
		t.Fatalf("relayConnections = %v, want 2", got)
	}
}

func TestSetSourceIPDoesNotClobberOtherMounts(t *testing.T) {
	t.Parallel()

	s := New()
	s.SetSourceIP("/a", "10.0.0.1")
	s.SetSourceIP("/b", "10.0.0.2")

	if got := testutil.ToFloat64(s.sourceIP.WithLabelValues("/a", "10.0.0.1")); got != 1 {
		t.Fatalf("/a source_ip series = %v, want 1", got)
	}
	if got := testutil.ToFloat64(s.sourceIP.WithLabelValues("/b", "10.0.0.2")); got != 1 {
		t.Fatalf("/b source_ip series = %v, want 1", got)
	}
}

func TestSetSourceIPReplacesPreviousSeriesForSameMount(t *testing.T) {
	t.Parallel()

	s := New()
	s.SetSourceIP("/a", "10.0.0.1")
	s.SetSourceIP("/a", "10.0.0.2")

	if got := testutil.CollectAndCount(s.sourceIP); got != 1 {
		t.Fatalf("sourceIP series count = %d, want 1 (old series should be deleted)", got)
	}
	if got := testutil.ToFloat64(s.sourceIP.WithLabelValues("/a", "10.0.0.2")); got != 1 {
		t.Fatalf("/a source_ip series = %v, want 1", got)
	}
}

func TestClearMountRemovesListenersAndSourceIP(t *testing.T) {
	t.Parallel()

	s := New()
	s.SetListeners("/a", 5)
	s.SetSourceIP("/a", "10.0.0.1")

	s.ClearMount("/a")

	if got := testutil.CollectAndCount(s.listeners); got != 0 {
		t.Fatalf("listeners series count = %d, want 0", got)
	}
	if got := testutil.CollectAndCount(s.sourceIP); got != 0 {
		t.Fatalf("sourceIP series count = %d, want 0", got)
	}
}
