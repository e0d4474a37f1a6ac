package relay

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/arung-agamani/icerelay/config"
)

// FetchTimeout is the overall HTTP timeout for a master streamlist fetch.
const FetchTimeout = 15 * time.Second

// MasterFetcher periodically pulls the master server's stream list and
// parses it into a candidate relay set.
type MasterFetcher struct {
	client *http.Client
}

// NewMasterFetcher builds a MasterFetcher. insecureSkipVerify controls
// whether the master's TLS certificate is verified; it's exposed as a
// config toggle rather than hardcoded.
func NewMasterFetcher(insecureSkipVerify bool) *MasterFetcher {
	return &MasterFetcher{
		client: &http.Client{
			Timeout: FetchTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: insecureSkipVerify},
			},
		},
	}
}

// Fetch pulls /admin/streamlist.txt from the master described by cfg and
// parses each non-blank body line into a candidate *Record. The returned
// records carry no source handle.
func (f *MasterFetcher) Fetch(ctx context.Context, cfg config.MasterConfig, onDemandDefault bool) ([]*Record, error) {
	url := masterURL(cfg)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building master fetch request: %w", err)
	}
	if cfg.Username != "" {
		req.SetBasicAuth(cfg.Username, cfg.Password)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching master streamlist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("master streamlist returned status %d", resp.StatusCode)
	}

	var records []*Record
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		r := &Record{
			Server:      cfg.Server,
			Port:        cfg.Port,
			Mount:       line,
			LocalMount:  line,
			MP3Metadata: true,
			OnDemand:    onDemandDefault,
			Enable:      true,
		}
		if cfg.SendAuth {
			r.Username = cfg.Username
			r.Password = cfg.Password
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading master streamlist body: %w", err)
	}

	return records, nil
}

func masterURL(cfg config.MasterConfig) string {
	if cfg.SSLPort != 0 {
		return fmt.Sprintf("https://%s:%d/admin/streamlist.txt", cfg.Server, cfg.SSLPort)
	}
	return fmt.Sprintf("http://%s:%d/admin/streamlist.txt", cfg.Server, cfg.Port)
}
