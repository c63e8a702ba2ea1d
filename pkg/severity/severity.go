// Package severity turns a snapshot into traffic-light levels.
package severity

import (
	"sort"

	"github.com/jguan/nas-assistant/pkg/snapshot"
)

type Level string

const (
	OK       Level = "ok"
	Warn     Level = "warn"
	Critical Level = "critical"
	Unknown  Level = "unknown"
)

func (l Level) rank() int {
	switch l {
	case OK:
		return 1
	case Warn:
		return 2
	case Critical:
		return 3
	default:
		return 0
	}
}

// Thresholds are upper bounds, exclusive: a value equal to a bound falls
// into the more severe bucket.
const (
	CPUWarnAt         = 50.0
	CPUCriticalAt     = 80.0
	RAMWarnAt         = 70.0
	RAMCriticalAt     = 90.0
	StorageWarnAt     = 80
	StorageCriticalAt = 95
)

// Classification holds the level of every section plus derived flags.
type Classification struct {
	CPU        Level `json:"cpu" yaml:"cpu"`
	RAM        Level `json:"ram" yaml:"ram"`
	Containers Level `json:"containers" yaml:"containers"`
	VPN        Level `json:"vpn" yaml:"vpn"`
	Storage    Level `json:"storage" yaml:"storage"`

	// CriticalDown lists critical containers that are not running, sorted.
	CriticalDown []string `json:"critical_down,omitempty" yaml:"critical_down,omitempty"`

	VPNUp                bool `json:"vpn_up" yaml:"vpn_up"`
	StorageNearFull      bool `json:"storage_near_full" yaml:"storage_near_full"`
	CriticalServicesDown bool `json:"critical_services_down" yaml:"critical_services_down"`
}

// Overall returns the worst known level, or Unknown when every section is
// unknown.
func (c Classification) Overall() Level {
	worst := Unknown
	for _, l := range []Level{c.CPU, c.RAM, c.Containers, c.VPN, c.Storage} {
		if l.rank() > worst.rank() {
			worst = l
		}
	}
	return worst
}

// Classify is pure: the same snapshot always yields the same result.
func Classify(s snapshot.Snapshot) Classification {
	c := Classification{
		CPU:        Unknown,
		RAM:        Unknown,
		Containers: Unknown,
		VPN:        Unknown,
		Storage:    Unknown,
	}

	if s.System != nil {
		if cpu := s.System.CPUPercent; cpu != nil {
			c.CPU = bucket(*cpu, CPUWarnAt, CPUCriticalAt)
		}
		if ram := s.System.RAMPercent; ram != nil {
			c.RAM = bucket(*ram, RAMWarnAt, RAMCriticalAt)
		}
	}

	if s.Containers != nil {
		c.Containers = containerLevel(s.Containers.Running, s.Containers.Total)
		c.CriticalDown = criticalDown(s.Containers.Entries)
	}

	if s.VPN != nil {
		c.VPN = vpnLevel(*s.VPN)
		c.VPNUp = s.VPN.Connected()
	}

	if s.Storage != nil && s.Storage.UsagePercent != nil {
		c.Storage = bucket(float64(*s.Storage.UsagePercent), StorageWarnAt, StorageCriticalAt)
	}

	c.StorageNearFull = c.Storage == Warn || c.Storage == Critical
	c.CriticalServicesDown = len(c.CriticalDown) > 0
	return c
}

func bucket(v, warnAt, criticalAt float64) Level {
	switch {
	case v < warnAt:
		return OK
	case v < criticalAt:
		return Warn
	default:
		return Critical
	}
}

func containerLevel(running, total int) Level {
	switch {
	case running == total:
		return OK
	case running > 0:
		return Warn
	default:
		return Critical
	}
}

func vpnLevel(v snapshot.VPNTunnel) Level {
	switch {
	case v.Connected():
		return OK
	case v.ContainerRunning:
		return Warn
	default:
		return Critical
	}
}

func criticalDown(entries map[string]snapshot.ContainerEntry) []string {
	var down []string
	for name, e := range entries {
		if e.IsCritical && e.Status != snapshot.ContainerRunning {
			down = append(down, name)
		}
	}
	sort.Strings(down)
	return down
}
