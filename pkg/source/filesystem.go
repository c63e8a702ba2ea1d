package source

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/jguan/nas-assistant/pkg/snapshot"
)

// CommandRunner runs a command and returns its standard output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return out, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// DiskUsageProbe reports utilisation of one mount point using df.
type DiskUsageProbe struct {
	runner  CommandRunner
	mount   string
	timeout time.Duration
}

func NewDiskUsageProbe(runner CommandRunner, mount string, timeout time.Duration) *DiskUsageProbe {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &DiskUsageProbe{runner: runner, mount: mount, timeout: timeout}
}

// Fetch runs `df -hP <mount>` and parses the data line. -P keeps each
// filesystem on one line even when the device name is long.
func (p *DiskUsageProbe) Fetch(ctx context.Context) Result[snapshot.StorageUsage] {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	out, err := p.runner.Run(ctx, "df", "-hP", p.mount)
	if err != nil {
		return unreachable[snapshot.StorageUsage](NameStorage, err)
	}

	usage, err := ParseDF(string(out))
	if err != nil {
		return fail[snapshot.StorageUsage](NameStorage, KindMalformed, err)
	}
	usage.Mount = p.mount
	return ok(usage)
}

// ParseDF parses the second line of df output into a StorageUsage. A
// non-numeric percent column is kept raw with UsagePercent left nil.
func ParseDF(out string) (snapshot.StorageUsage, error) {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 {
		return snapshot.StorageUsage{}, fmt.Errorf("df output has %d lines, want at least 2", len(lines))
	}

	parts := strings.Fields(lines[1])
	if len(parts) < 5 {
		return snapshot.StorageUsage{}, fmt.Errorf("df data line has %d columns, want at least 5", len(parts))
	}

	usage := snapshot.StorageUsage{
		Total:      parts[1],
		Used:       parts[2],
		Available:  parts[3],
		RawPercent: parts[4],
	}
	if n, err := strconv.Atoi(strings.TrimSuffix(parts[4], "%")); err == nil {
		n = int(snapshot.ClampPercent(float64(n)))
		usage.UsagePercent = &n
	}
	return usage, nil
}
