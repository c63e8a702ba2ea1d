package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/jguan/nas-assistant/pkg/assistant"
	"github.com/jguan/nas-assistant/pkg/config"
	"github.com/jguan/nas-assistant/pkg/prompt"
	"github.com/jguan/nas-assistant/pkg/report"
	"github.com/jguan/nas-assistant/pkg/snapshot"
	"github.com/jguan/nas-assistant/pkg/source"
)

type fakeCollector struct {
	snap snapshot.Snapshot
}

func (f fakeCollector) Collect(ctx context.Context) snapshot.Snapshot { return f.snap }

type fakeGenerator struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(ctx context.Context, p string) (string, error) {
	f.prompts = append(f.prompts, p)
	return f.reply, f.err
}

type fakeVPN struct {
	tunnel snapshot.VPNTunnel
}

func (f fakeVPN) Fetch(ctx context.Context) source.Result[snapshot.VPNTunnel] {
	v := f.tunnel
	return source.Result[snapshot.VPNTunnel]{Value: &v}
}

func healthySnapshot() snapshot.Snapshot {
	pct := 35
	return snapshot.Snapshot{
		Timestamp: time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC),
		System: &snapshot.SystemMetrics{
			CPUPercent: snapshot.Percent(30),
			RAMPercent: snapshot.Percent(75),
			CPUTemp:    snapshot.Temperature{Celsius: 48.3, Known: true},
			Present:    true,
		},
		Containers: &snapshot.ContainerSummary{
			Entries: map[string]snapshot.ContainerEntry{
				"npm":     {Status: snapshot.ContainerRunning, IsCritical: true},
				"seafile": {Status: snapshot.ContainerExited, RawStatus: "exited", IsCritical: true},
			},
			Running: 1,
			Total:   2,
		},
		VPN: &snapshot.VPNTunnel{Container: "transmission-openvpn", ContainerRunning: true, Tunnel: snapshot.TunnelConnected},
		Storage: &snapshot.StorageUsage{
			Mount: "/mnt/nas", Total: "3.6T", Used: "1.2T", Available: "2.4T",
			RawPercent: "35%", UsagePercent: &pct,
		},
	}
}

// newTestRoot returns a root command wired to fakes, writing to the
// returned buffer.
func newTestRoot(t *testing.T, snap snapshot.Snapshot, gen *fakeGenerator) (*RootCommand, *bytes.Buffer) {
	t.Helper()

	cfg := config.Default()
	root := NewRootCommand()
	root.cfg = cfg
	root.assistant = assistant.New(
		fakeCollector{snap: snap},
		fakeVPN{tunnel: snapshot.VPNTunnel{Container: "transmission-openvpn", ContainerRunning: true, Tunnel: snapshot.TunnelConnected}},
		gen,
		prompt.NewComposer(cfg),
		report.NewRenderer(cfg.Services),
	)

	buf := &bytes.Buffer{}
	root.SetOutputWriter(buf)
	root.Command().SetOut(buf)
	root.Command().SetErr(&bytes.Buffer{})
	return root, buf
}
