package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RelayTemplate is one statically-configured relay, as it appears in the
// relay[] list of the YAML config tree.
type RelayTemplate struct {
	Server           string `yaml:"server"`
	Port             uint16 `yaml:"port"`
	Mount            string `yaml:"mount"`
	LocalMount       string `yaml:"local_mount"`
	Username         string `yaml:"username"`
	Password         string `yaml:"password"`
	MP3Metadata      bool   `yaml:"mp3_metadata"`
	OnDemand         bool   `yaml:"on_demand"`
	Enable           bool   `yaml:"enable"`
	FallbackMount    string `yaml:"fallback_mount"`
	FallbackOverride bool   `yaml:"fallback_override"`
}

// MasterConfig describes the upstream master server this instance fetches
// its dynamic relay list from, and the self-advertisement settings used to
// register this instance as a slave host of that master.
type MasterConfig struct {
	Server            string `yaml:"server"`
	Port              uint16 `yaml:"port"`
	SSLPort           uint16 `yaml:"ssl_port"`
	Username          string `yaml:"username"`
	Password          string `yaml:"password"`
	SendAuth          bool   `yaml:"send_auth"`
	UpdateIntervalSec int    `yaml:"update_interval_seconds"`
	RedirectPort      uint16 `yaml:"redirect_port"`

	// VerifySSL controls whether the master's TLS certificate is verified
	// when fetching over ssl_port. It defaults to false (verification
	// skipped) when omitted from the YAML tree, matching the legacy
	// relay's unconditionally-disabled peer verification; set it to true
	// to opt into verification.
	VerifySSL bool `yaml:"verify_ssl"`
}

func (m MasterConfig) UpdateInterval() time.Duration {
	if m.UpdateIntervalSec <= 0 {
		return 120 * time.Second
	}
	return time.Duration(m.UpdateIntervalSec) * time.Second
}

// RelayConfig is the structured relay tree: master server settings plus the
// static relay[] list. It is reloaded whenever the YAML file backing it
// changes.
type RelayConfig struct {
	Hostname        string          `yaml:"hostname"`
	Master          MasterConfig    `yaml:"master"`
	Relays          []RelayTemplate `yaml:"relay"`
	OnDemandDefault bool            `yaml:"on_demand_default"`
}

// LoadRelayConfig reads and parses the YAML relay tree at path. A missing
// file is not an error — it yields an empty tree, matching a freshly
// installed relay that only discovers mounts from the master.
func LoadRelayConfig(path string) (*RelayConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &RelayConfig{}, nil
		}
		return nil, fmt.Errorf("reading relay config %s: %w", path, err)
	}

	var rc RelayConfig
	if err := yaml.Unmarshal(data, &rc); err != nil {
		return nil, fmt.Errorf("parsing relay config %s: %w", path, err)
	}

	return &rc, nil
}
