// Package snapshot defines the point-in-time NAS context assembled for a
// single user interaction. A nil section means the source was unavailable
// and must be treated as unknown, never as zero.
package snapshot

import (
	"encoding/json"
	"math"
	"time"
)

// Snapshot is one immutable aggregation of every source.
type Snapshot struct {
	Timestamp  time.Time         `json:"timestamp" yaml:"timestamp"`
	System     *SystemMetrics    `json:"system,omitempty" yaml:"system,omitempty"`
	Disks      *DiskHealth       `json:"disks,omitempty" yaml:"disks,omitempty"`
	Containers *ContainerSummary `json:"containers,omitempty" yaml:"containers,omitempty"`
	VPN        *VPNTunnel        `json:"vpn_tunnel,omitempty" yaml:"vpn_tunnel,omitempty"`
	Storage    *StorageUsage     `json:"storage,omitempty" yaml:"storage,omitempty"`

	// Errors lists the sources that failed for this snapshot. Diagnostic only.
	Errors []SourceError `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Empty reports whether every section is absent.
func (s Snapshot) Empty() bool {
	return s.System == nil && s.Disks == nil && s.Containers == nil && s.VPN == nil && s.Storage == nil
}

// SourceError records why a source contributed nothing.
type SourceError struct {
	Source  string `json:"source" yaml:"source"`
	Kind    string `json:"kind" yaml:"kind"`
	Message string `json:"message" yaml:"message"`
}

// Temperature distinguishes "no sensor reading" from a reading of zero.
type Temperature struct {
	Celsius float64 `json:"celsius" yaml:"celsius"`
	Known   bool    `json:"known" yaml:"known"`
}

// SystemMetrics holds host utilisation. Percentages are within [0,100];
// a nil percentage means its chart was missing from the payload.
type SystemMetrics struct {
	CPUPercent *float64    `json:"cpu_percent,omitempty" yaml:"cpu_percent,omitempty"`
	RAMPercent *float64    `json:"ram_percent,omitempty" yaml:"ram_percent,omitempty"`
	CPUTemp    Temperature `json:"cpu_temp" yaml:"cpu_temp"`
	Present    bool        `json:"present" yaml:"present"`
}

// DiskHealth is the disk-health payload passed through as-is. Its shape
// belongs to the disk-health service.
type DiskHealth struct {
	Devices map[string]json.RawMessage `json:"devices" yaml:"devices"`
}

// MarshalYAML decodes the raw payloads so YAML output shows their structure
// instead of byte arrays.
func (d DiskHealth) MarshalYAML() (any, error) {
	devices := make(map[string]any, len(d.Devices))
	for k, raw := range d.Devices {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		devices[k] = v
	}
	return map[string]any{"devices": devices}, nil
}

// ContainerStatus is the normalised container state.
type ContainerStatus string

const (
	ContainerRunning ContainerStatus = "running"
	ContainerExited  ContainerStatus = "exited"
	ContainerOther   ContainerStatus = "other"
)

// NormalizeContainerStatus maps a runtime state string onto ContainerStatus.
func NormalizeContainerStatus(state string) ContainerStatus {
	switch state {
	case "running":
		return ContainerRunning
	case "exited":
		return ContainerExited
	default:
		return ContainerOther
	}
}

// ContainerEntry is one container keyed by name in ContainerSummary.
// RawStatus is the engine's state string before normalisation.
type ContainerEntry struct {
	Status     ContainerStatus `json:"status" yaml:"status"`
	RawStatus  string          `json:"raw_status,omitempty" yaml:"raw_status,omitempty"`
	IsCritical bool            `json:"is_critical" yaml:"is_critical"`
}

// ContainerSummary holds every container with aggregate counts.
// Running never exceeds Total.
type ContainerSummary struct {
	Entries map[string]ContainerEntry `json:"entries" yaml:"entries"`
	Running int                       `json:"running_count" yaml:"running_count"`
	Total   int                       `json:"total_count" yaml:"total_count"`
}

// TunnelState is tri-state: a stopped container leaves the tunnel unknown.
type TunnelState string

const (
	TunnelUnknown      TunnelState = "unknown"
	TunnelConnected    TunnelState = "connected"
	TunnelDisconnected TunnelState = "disconnected"
)

// VPNTunnel is the state of the VPN container and the tunnel detected in
// its recent logs.
type VPNTunnel struct {
	Container        string      `json:"container" yaml:"container"`
	ContainerRunning bool        `json:"container_running" yaml:"container_running"`
	Tunnel           TunnelState `json:"tunnel" yaml:"tunnel"`
}

// Connected reports a running container with a detected tunnel.
func (v VPNTunnel) Connected() bool {
	return v.ContainerRunning && v.Tunnel == TunnelConnected
}

// StorageUsage is the usage of the monitored mount. Sizes are kept as the
// human-readable strings reported by df.
type StorageUsage struct {
	Mount      string `json:"mount" yaml:"mount"`
	Total      string `json:"total" yaml:"total"`
	Used       string `json:"used" yaml:"used"`
	Available  string `json:"available" yaml:"available"`
	RawPercent string `json:"raw_percent" yaml:"raw_percent"`
	// UsagePercent is nil when RawPercent is not numeric.
	UsagePercent *int `json:"usage_percent,omitempty" yaml:"usage_percent,omitempty"`
}

// ClampPercent clamps v into [0,100]; NaN becomes 0.
func ClampPercent(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Percent rounds v to one decimal, clamps it into [0,100] and returns it
// as a present value.
func Percent(v float64) *float64 {
	p := ClampPercent(Round1(v))
	return &p
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
