package docker

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MockClient is an in-memory Client for tests.
type MockClient struct {
	mu         sync.RWMutex
	Containers map[string]*MockContainer

	// ListErr, InspectErr and LogsErr, when set, are returned by the
	// corresponding call.
	ListErr    error
	InspectErr error
	LogsErr    error

	// LogCalls counts ContainerLogs invocations.
	LogCalls int
}

// MockContainer is one simulated container keyed by name.
type MockContainer struct {
	ID    string
	Name  string
	State string
	Logs  []string
}

// NewMockClient creates a new Mock Docker client.
func NewMockClient() *MockClient {
	return &MockClient{
		Containers: make(map[string]*MockContainer),
	}
}

// Add registers a container with the given state and log lines.
func (c *MockClient) Add(name, state string, logs ...string) *MockClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Containers[name] = &MockContainer{
		ID:    fmt.Sprintf("mock-container-%d", len(c.Containers)+1),
		Name:  name,
		State: state,
		Logs:  logs,
	}
	return c
}

// ListContainers implements Client. Results are sorted by name.
func (c *MockClient) ListContainers(ctx context.Context) ([]Container, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if c.ListErr != nil {
		return nil, c.ListErr
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Container, 0, len(c.Containers))
	for _, mc := range c.Containers {
		out = append(out, mc.toContainer())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// InspectContainer implements Client.
func (c *MockClient) InspectContainer(ctx context.Context, name string) (Container, error) {
	select {
	case <-ctx.Done():
		return Container{}, ctx.Err()
	default:
	}
	if c.InspectErr != nil {
		return Container{}, c.InspectErr
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	mc, ok := c.Containers[name]
	if !ok {
		return Container{}, fmt.Errorf("%w: %s", ErrContainerNotFound, name)
	}
	return mc.toContainer(), nil
}

// ContainerLogs implements Client, honouring tail.
func (c *MockClient) ContainerLogs(ctx context.Context, name string, tail int) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	c.mu.Lock()
	c.LogCalls++
	c.mu.Unlock()

	if c.LogsErr != nil {
		return "", c.LogsErr
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	mc, ok := c.Containers[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrContainerNotFound, name)
	}
	lines := mc.Logs
	if tail >= 0 && len(lines) > tail {
		lines = lines[len(lines)-tail:]
	}
	if len(lines) == 0 {
		return "", nil
	}
	return strings.Join(lines, "\n") + "\n", nil
}

func (mc *MockContainer) toContainer() Container {
	return Container{ID: mc.ID, Name: mc.Name, State: mc.State, Status: mc.State}
}

// Compile-time assertion: MockClient must implement docker.Client.
var _ Client = (*MockClient)(nil)
