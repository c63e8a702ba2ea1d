package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestCommandMetrics_InitialSnapshot(t *testing.T) {
	m := NewCommandMetrics()
	snap := m.Snapshot()

	if snap.TotalRequests != 0 || snap.TotalErrors != 0 {
		t.Errorf("expected zero totals, got %+v", snap)
	}
	if len(snap.Commands) != 0 {
		t.Errorf("expected no commands, got %d", len(snap.Commands))
	}
}

func TestCommandMetrics_Record(t *testing.T) {
	m := NewCommandMetrics()
	m.Record("status", 10*time.Millisecond, false)
	m.Record("status", 20*time.Millisecond, false)
	m.Record("chat", 3*time.Second, true)

	snap := m.Snapshot()

	if snap.TotalRequests != 3 {
		t.Errorf("expected TotalRequests=3, got %d", snap.TotalRequests)
	}
	if snap.TotalErrors != 1 {
		t.Errorf("expected TotalErrors=1, got %d", snap.TotalErrors)
	}
	if len(snap.Commands) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(snap.Commands))
	}

	// sorted by name
	chat, status := snap.Commands[0], snap.Commands[1]
	if chat.Command != "chat" || status.Command != "status" {
		t.Fatalf("unexpected order: %q, %q", chat.Command, status.Command)
	}
	if status.AvgLatencyMs != 15.0 {
		t.Errorf("expected status AvgLatencyMs=15.0, got %f", status.AvgLatencyMs)
	}
	if status.MaxLatencyMs != 20 {
		t.Errorf("expected status MaxLatencyMs=20, got %d", status.MaxLatencyMs)
	}
	if status.ErrorRate != 0 {
		t.Errorf("expected status ErrorRate=0, got %f", status.ErrorRate)
	}
	if chat.ErrorRate != 1.0 {
		t.Errorf("expected chat ErrorRate=1.0, got %f", chat.ErrorRate)
	}
}

func TestCommandMetrics_ConcurrentRecord(t *testing.T) {
	m := NewCommandMetrics()

	const goroutines = 50
	const perGoroutine = 100

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer wg.Done()
			cmd := "status"
			if i%2 == 0 {
				cmd = "vpn"
			}
			for j := 0; j < perGoroutine; j++ {
				m.Record(cmd, time.Millisecond, j%10 == 0)
			}
		}(i)
	}
	wg.Wait()

	snap := m.Snapshot()
	if snap.TotalRequests != goroutines*perGoroutine {
		t.Errorf("expected TotalRequests=%d, got %d", goroutines*perGoroutine, snap.TotalRequests)
	}
	if snap.TotalErrors != goroutines*perGoroutine/10 {
		t.Errorf("expected TotalErrors=%d, got %d", goroutines*perGoroutine/10, snap.TotalErrors)
	}
}
