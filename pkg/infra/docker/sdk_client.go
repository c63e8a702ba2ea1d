package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	dockerclient "github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
)

// SDKClient implements Client using the official Docker Go SDK.
type SDKClient struct {
	cli *dockerclient.Client
}

// NewSDKClient creates an SDKClient configured from environment variables
// (DOCKER_HOST, DOCKER_TLS_VERIFY, DOCKER_CERT_PATH, DOCKER_API_VERSION).
// A non-empty host overrides DOCKER_HOST.
func NewSDKClient(host string) (*SDKClient, error) {
	opts := []dockerclient.Opt{
		dockerclient.FromEnv,
		dockerclient.WithAPIVersionNegotiation(),
	}
	if host != "" {
		opts = append(opts, dockerclient.WithHost(host))
	}
	cli, err := dockerclient.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("docker sdk client: %w", err)
	}
	return &SDKClient{cli: cli}, nil
}

// ListContainers returns all containers, including stopped ones.
func (c *SDKClient) ListContainers(ctx context.Context) ([]Container, error) {
	list, err := c.cli.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, fmt.Errorf("docker ContainerList: %w", err)
	}

	out := make([]Container, 0, len(list))
	for _, ct := range list {
		name := ct.ID
		if len(ct.Names) > 0 {
			name = strings.TrimPrefix(ct.Names[0], "/")
		}
		out = append(out, Container{
			ID:     ct.ID,
			Name:   name,
			State:  string(ct.State),
			Status: ct.Status,
		})
	}
	return out, nil
}

// InspectContainer returns the state of a single container.
func (c *SDKClient) InspectContainer(ctx context.Context, name string) (Container, error) {
	info, err := c.cli.ContainerInspect(ctx, name)
	if err != nil {
		if cerrdefs.IsNotFound(err) {
			return Container{}, fmt.Errorf("%w: %s", ErrContainerNotFound, name)
		}
		return Container{}, fmt.Errorf("docker ContainerInspect: %w", err)
	}

	ct := Container{
		ID:   info.ID,
		Name: strings.TrimPrefix(info.Name, "/"),
	}
	if info.State != nil {
		ct.State = string(info.State.Status)
		ct.Status = string(info.State.Status)
	}
	return ct, nil
}

// ContainerLogs returns the last tail lines of container logs (stdout+stderr combined).
func (c *SDKClient) ContainerLogs(ctx context.Context, name string, tail int) (string, error) {
	info, err := c.cli.ContainerInspect(ctx, name)
	if err != nil {
		if cerrdefs.IsNotFound(err) {
			return "", fmt.Errorf("%w: %s", ErrContainerNotFound, name)
		}
		return "", fmt.Errorf("docker ContainerInspect: %w", err)
	}

	rc, err := c.cli.ContainerLogs(ctx, name, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       strconv.Itoa(tail),
	})
	if err != nil {
		return "", fmt.Errorf("docker ContainerLogs: %w", err)
	}
	defer rc.Close()

	// TTY containers stream raw bytes; the rest use the multiplexed format.
	if info.Config != nil && info.Config.Tty {
		data, err := io.ReadAll(rc)
		if err != nil {
			return "", fmt.Errorf("reading container logs: %w", err)
		}
		return string(data), nil
	}

	var buf bytes.Buffer
	if _, err := stdcopy.StdCopy(&buf, &buf, rc); err != nil {
		return "", fmt.Errorf("demultiplexing container logs: %w", err)
	}
	return buf.String(), nil
}

// Close releases the underlying HTTP transport.
func (c *SDKClient) Close() error {
	return c.cli.Close()
}

// Compile-time assertion: SDKClient must implement Client.
var _ Client = (*SDKClient)(nil)
