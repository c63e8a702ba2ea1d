package docker

import (
	"context"
	"errors"
)

// ErrContainerNotFound is returned when a container name does not resolve.
var ErrContainerNotFound = errors.New("container not found")

// Container is the runtime view of one container.
type Container struct {
	// ID is the full container ID.
	ID string
	// Name is the container name without the leading slash.
	Name string
	// State is the machine state, e.g. "running", "exited", "restarting".
	State string
	// Status is the human readable status, e.g. "Up 3 hours".
	Status string
}

// Running reports whether the container is in the running state.
func (c Container) Running() bool { return c.State == "running" }

// Client is the read-only view of the container runtime used by the
// assistant. Implementations never start, stop or modify containers.
type Client interface {
	// ListContainers returns every container, running and stopped.
	ListContainers(ctx context.Context) ([]Container, error)

	// InspectContainer returns the container with the given name or ID.
	// It returns an error wrapping ErrContainerNotFound when it does not exist.
	InspectContainer(ctx context.Context, name string) (Container, error)

	// ContainerLogs returns the last `tail` lines of stdout+stderr.
	ContainerLogs(ctx context.Context, name string, tail int) (string, error)
}

// New returns an SDK-backed client, falling back to the docker CLI when the
// SDK cannot be configured from the environment.
func New(host string) Client {
	c, err := NewSDKClient(host)
	if err != nil {
		return NewSimpleClient()
	}
	return c
}

// Compile-time assertion: SimpleClient must implement Client.
var _ Client = (*SimpleClient)(nil)
