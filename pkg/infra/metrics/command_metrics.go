// Package metrics keeps in-memory counters for the commands served over
// HTTP. Counters reset on restart.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type counter struct {
	requests  atomic.Int64
	errors    atomic.Int64
	latencyMs atomic.Int64
	maxMs     atomic.Int64
}

// CommandMetrics tracks request counts, latency and errors per command.
// Record is lock-free once a command has been seen.
type CommandMetrics struct {
	mu       sync.RWMutex
	counters map[string]*counter
	started  time.Time
}

func NewCommandMetrics() *CommandMetrics {
	return &CommandMetrics{
		counters: make(map[string]*counter),
		started:  time.Now(),
	}
}

// Record records one completed command.
func (m *CommandMetrics) Record(command string, latency time.Duration, isError bool) {
	c := m.counter(command)

	ms := latency.Milliseconds()
	c.requests.Add(1)
	c.latencyMs.Add(ms)
	if isError {
		c.errors.Add(1)
	}
	for {
		cur := c.maxMs.Load()
		if ms <= cur || c.maxMs.CompareAndSwap(cur, ms) {
			break
		}
	}
}

func (m *CommandMetrics) counter(command string) *counter {
	m.mu.RLock()
	c, ok := m.counters[command]
	m.mu.RUnlock()
	if ok {
		return c
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok = m.counters[command]; !ok {
		c = &counter{}
		m.counters[command] = c
	}
	return c
}

// CommandSnapshot is a point-in-time view of one command's counters.
type CommandSnapshot struct {
	Command      string  `json:"command"`
	Requests     int64   `json:"requests"`
	Errors       int64   `json:"errors"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	MaxLatencyMs int64   `json:"max_latency_ms"`
	ErrorRate    float64 `json:"error_rate"`
}

// Snapshot is a point-in-time view of every command, sorted by name.
type Snapshot struct {
	UptimeSeconds int64             `json:"uptime_seconds"`
	TotalRequests int64             `json:"total_requests"`
	TotalErrors   int64             `json:"total_errors"`
	Commands      []CommandSnapshot `json:"commands"`
}

func (m *CommandMetrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := Snapshot{
		UptimeSeconds: int64(time.Since(m.started).Seconds()),
		Commands:      make([]CommandSnapshot, 0, len(m.counters)),
	}

	for name, c := range m.counters {
		cs := CommandSnapshot{
			Command:      name,
			Requests:     c.requests.Load(),
			Errors:       c.errors.Load(),
			MaxLatencyMs: c.maxMs.Load(),
		}
		if cs.Requests > 0 {
			cs.AvgLatencyMs = float64(c.latencyMs.Load()) / float64(cs.Requests)
			cs.ErrorRate = float64(cs.Errors) / float64(cs.Requests)
		}
		snap.TotalRequests += cs.Requests
		snap.TotalErrors += cs.Errors
		snap.Commands = append(snap.Commands, cs)
	}

	sort.Slice(snap.Commands, func(i, j int) bool {
		return snap.Commands[i].Command < snap.Commands[j].Command
	})
	return snap
}
