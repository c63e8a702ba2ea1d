package docker

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// SimpleClient is a lightweight Docker client using CLI commands. It is the
// fallback when the SDK cannot be configured.
type SimpleClient struct {
	binary string
}

// NewSimpleClient creates a new simple Docker client
func NewSimpleClient() *SimpleClient {
	return &SimpleClient{binary: "docker"}
}

// ListContainers lists all containers via `docker ps -a`.
func (c *SimpleClient) ListContainers(ctx context.Context) ([]Container, error) {
	cmd := exec.CommandContext(ctx, c.binary, "ps", "-a", "--no-trunc",
		"--format", "{{.ID}}\t{{.Names}}\t{{.State}}\t{{.Status}}")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("docker ps failed: %w\nOutput: %s", err, string(output))
	}
	return parsePSOutput(string(output)), nil
}

// parsePSOutput parses tab separated `docker ps --format` lines.
func parsePSOutput(output string) []Container {
	var containers []Container
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 4)
		if len(parts) < 3 {
			continue
		}
		ct := Container{ID: parts[0], Name: parts[1], State: parts[2]}
		if len(parts) == 4 {
			ct.Status = parts[3]
		}
		containers = append(containers, ct)
	}
	return containers
}

// InspectContainer gets container state via `docker inspect`.
func (c *SimpleClient) InspectContainer(ctx context.Context, name string) (Container, error) {
	cmd := exec.CommandContext(ctx, c.binary, "inspect", "-f", "{{.Id}}\t{{.State.Status}}", name)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if isNoSuchObject(string(output)) {
			return Container{}, fmt.Errorf("%w: %s", ErrContainerNotFound, name)
		}
		return Container{}, fmt.Errorf("docker inspect failed: %w", err)
	}

	parts := strings.SplitN(strings.TrimSpace(string(output)), "\t", 2)
	ct := Container{ID: parts[0], Name: name}
	if len(parts) == 2 {
		ct.State = parts[1]
		ct.Status = parts[1]
	}
	return ct, nil
}

// ContainerLogs gets the last tail lines of container logs.
func (c *SimpleClient) ContainerLogs(ctx context.Context, name string, tail int) (string, error) {
	cmd := exec.CommandContext(ctx, c.binary, "logs", "--tail", fmt.Sprintf("%d", tail), name)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if isNoSuchObject(string(output)) {
			return "", fmt.Errorf("%w: %s", ErrContainerNotFound, name)
		}
		return "", fmt.Errorf("docker logs failed: %w", err)
	}
	return string(output), nil
}

func isNoSuchObject(output string) bool {
	return strings.Contains(output, "No such object") || strings.Contains(output, "No such container")
}
