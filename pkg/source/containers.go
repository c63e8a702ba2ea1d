package source

import (
	"context"
	"time"

	"github.com/jguan/nas-assistant/pkg/infra/docker"
	"github.com/jguan/nas-assistant/pkg/snapshot"
)

// ContainerClient lists every container and flags the critical ones.
type ContainerClient struct {
	docker     docker.Client
	isCritical func(name string) bool
	timeout    time.Duration
}

// NewContainerClient flags a container as critical when isCritical reports
// its name. A nil isCritical flags nothing.
func NewContainerClient(client docker.Client, isCritical func(string) bool, timeout time.Duration) *ContainerClient {
	if isCritical == nil {
		isCritical = func(string) bool { return false }
	}
	return &ContainerClient{docker: client, isCritical: isCritical, timeout: timeout}
}

// Fetch returns the status of every container with running/total counts.
func (c *ContainerClient) Fetch(ctx context.Context) Result[snapshot.ContainerSummary] {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	list, err := c.docker.ListContainers(ctx)
	if err != nil {
		return unreachable[snapshot.ContainerSummary](NameContainers, err)
	}

	summary := snapshot.ContainerSummary{
		Entries: make(map[string]snapshot.ContainerEntry, len(list)),
	}
	for _, ct := range list {
		summary.Entries[ct.Name] = snapshot.ContainerEntry{
			Status:     snapshot.NormalizeContainerStatus(ct.State),
			RawStatus:  ct.State,
			IsCritical: c.isCritical(ct.Name),
		}
	}
	// Count from the map so duplicate names cannot push Running past Total.
	for _, e := range summary.Entries {
		if e.Status == snapshot.ContainerRunning {
			summary.Running++
		}
	}
	summary.Total = len(summary.Entries)
	return ok(summary)
}
