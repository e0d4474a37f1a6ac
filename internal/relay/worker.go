package relay

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/arung-agamani/icerelay/internal/httpparser"
	"github.com/arung-agamani/icerelay/internal/source"
	"github.com/arung-agamani/icerelay/internal/stats"
)

// ConnectTimeout is the upstream dial timeout.
const ConnectTimeout = 10 * time.Second

// YPDirectory is the external stream-directory collaborator a relay
// de-registers from once it stops actively relaying. Listing, submission,
// and the directory's own storage are out of scope for this repo; only the
// call site at the end of a relay's lifecycle is represented here.
type YPDirectory interface {
	Deregister(mount string)
}

// Worker runs one active relay's upstream connection and pump. A Worker
// instance is shared across all relays; it carries no per-relay state.
type Worker struct {
	Registry     *source.Registry
	Stats        *stats.Stats
	Hostname     string
	RedirectPort uint16
	UserAgent    string

	// YP is notified when a non-on-demand relay's stream ends. A nil YP is
	// a valid no-op configuration.
	YP YPDirectory
}

// Run establishes the upstream connection for r, hands it off to the source
// subsystem, and blocks pumping bytes until the stream ends, the connection
// fails, or r.Source.Running() is cleared by the supervisor. It always
// leaves r.Cleanup set to true on return, signalling the supervisor to
// sweep this record on its next pass.
func (w *Worker) Run(r *Record) error {
	defer func() { r.Cleanup = true }()

	addr := net.JoinHostPort(r.Server, fmt.Sprintf("%d", r.Port))
	conn, err := net.DialTimeout("tcp", addr, ConnectTimeout)
	if err != nil {
		slog.Warn("Relay connect failed", "mount", r.LocalMount, "upstream", addr, "error", err)
		w.fallback(r)
		return fmt.Errorf("connect upstream %s: %w", addr, err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(w.buildRequest(r))); err != nil {
		slog.Warn("Relay request write failed", "mount", r.LocalMount, "error", err)
		w.fallback(r)
		return fmt.Errorf("writing upstream request: %w", err)
	}

	resp, err := httpparser.ReadResponse(conn)
	if err != nil {
		slog.Warn("Relay header read failed", "mount", r.LocalMount, "error", err)
		w.fallback(r)
		return fmt.Errorf("reading upstream response: %w", err)
	}
	if resp.StatusCode != 200 {
		slog.Warn("Relay upstream non-200 status", "mount", r.LocalMount, "status", resp.StatusCode)
		w.fallback(r)
		return fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	r.Source.SetSourceIP(r.Server)
	w.Stats.IncRelayConnections()
	w.Stats.SetSourceIP(r.LocalMount, r.Server)
	slog.Info("Relay connected", "mount", r.LocalMount, "upstream", addr)

	pumpErr := r.Source.Pump(conn)
	slog.Debug("Relay stream ended", "mount", r.LocalMount, "on_demand", r.OnDemand)

	if !r.OnDemand {
		w.deregisterFromYP(r.LocalMount)
	}

	return pumpErr
}

// deregisterFromYP notifies the YP directory collaborator that mount is no
// longer relayed here.
func (w *Worker) deregisterFromYP(mount string) {
	if w.YP == nil {
		return
	}
	w.YP.Deregister(mount)
}

// fallback moves any attached listeners onto the configured fallback mount
// before this record is swept.
func (w *Worker) fallback(r *Record) {
	if r.FallbackMount == "" || r.Source == nil {
		return
	}

	fb, ok := w.Registry.Find(r.FallbackMount)
	if !ok {
		slog.Warn("Relay fallback mount not found", "mount", r.LocalMount, "fallback", r.FallbackMount)
		return
	}

	n := w.Registry.MoveClients(r.Source, fb)
	slog.Info("Relay failed over to fallback", "mount", r.LocalMount, "fallback", r.FallbackMount, "listeners_moved", n)
}

// buildRequest assembles the HTTP/1.0 GET request sent to the upstream.
func (w *Worker) buildRequest(r *Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "GET %s HTTP/1.0\r\n", r.Mount)
	fmt.Fprintf(&b, "User-Agent: %s\r\n", w.UserAgent)

	if r.MP3Metadata {
		b.WriteString("Icy-MetaData: 1\r\n")
	}
	if w.RedirectPort != 0 && w.Hostname != "" {
		fmt.Fprintf(&b, "ice-redirect: %s:%d\r\n", w.Hostname, w.RedirectPort)
	}
	if r.HasCredentials() {
		creds := base64.StdEncoding.EncodeToString([]byte(r.Username + ":" + r.Password))
		fmt.Fprintf(&b, "Authorization: Basic %s\r\n", creds)
	}
	b.WriteString("\r\n")
	return b.String()
}
