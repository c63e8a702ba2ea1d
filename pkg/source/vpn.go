package source

import (
	"context"
	"time"

	"github.com/jguan/nas-assistant/pkg/infra/docker"
	"github.com/jguan/nas-assistant/pkg/snapshot"
)

// VPNInspector checks one VPN container and infers the tunnel state from
// its most recent log lines.
type VPNInspector struct {
	docker    docker.Client
	container string
	tail      int
	timeout   time.Duration
}

func NewVPNInspector(client docker.Client, container string, tail int, timeout time.Duration) *VPNInspector {
	return &VPNInspector{docker: client, container: container, tail: tail, timeout: timeout}
}

// Fetch reports the container state. Logs are only read when the container
// is running; otherwise the tunnel state stays unknown.
func (v *VPNInspector) Fetch(ctx context.Context) Result[snapshot.VPNTunnel] {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	ct, err := v.docker.InspectContainer(ctx, v.container)
	if err != nil {
		return unreachable[snapshot.VPNTunnel](NameVPN, err)
	}

	if !ct.Running() {
		return ok(snapshot.VPNTunnel{
			Container:        v.container,
			ContainerRunning: false,
			Tunnel:           snapshot.TunnelUnknown,
		})
	}

	logs, err := v.docker.ContainerLogs(ctx, v.container, v.tail)
	if err != nil {
		return unreachable[snapshot.VPNTunnel](NameVPN, err)
	}

	tunnel := snapshot.TunnelDisconnected
	if DetectTunnelUp(logs) {
		tunnel = snapshot.TunnelConnected
	}
	return ok(snapshot.VPNTunnel{
		Container:        v.container,
		ContainerRunning: true,
		Tunnel:           tunnel,
	})
}
