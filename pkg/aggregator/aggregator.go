// Package aggregator assembles a snapshot from every configured source.
package aggregator

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jguan/nas-assistant/pkg/infra/logger"
	"github.com/jguan/nas-assistant/pkg/snapshot"
	"github.com/jguan/nas-assistant/pkg/source"
)

// Fetcher populates one snapshot section.
type Fetcher[T any] interface {
	Fetch(ctx context.Context) source.Result[T]
}

// Sources holds one collaborator per section. A nil collaborator disables
// the section, which then stays absent in every snapshot.
type Sources struct {
	System     Fetcher[snapshot.SystemMetrics]
	Disks      Fetcher[snapshot.DiskHealth]
	Containers Fetcher[snapshot.ContainerSummary]
	VPN        Fetcher[snapshot.VPNTunnel]
	Storage    Fetcher[snapshot.StorageUsage]
}

type Aggregator struct {
	sources Sources
	now     func() time.Time
}

type Option func(*Aggregator)

// WithClock replaces time.Now for the snapshot timestamp.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

func New(sources Sources, opts ...Option) *Aggregator {
	a := &Aggregator{sources: sources, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Collect queries every enabled source concurrently and waits for all of
// them. It never fails: a source that errors leaves its section nil and
// adds an entry to Snapshot.Errors.
func (a *Aggregator) Collect(ctx context.Context) snapshot.Snapshot {
	snap := snapshot.Snapshot{Timestamp: a.now()}

	var (
		sys        source.Result[snapshot.SystemMetrics]
		disks      source.Result[snapshot.DiskHealth]
		containers source.Result[snapshot.ContainerSummary]
		vpn        source.Result[snapshot.VPNTunnel]
		storage    source.Result[snapshot.StorageUsage]
	)

	g := &errgroup.Group{}
	spawn(ctx, g, source.NameSystem, a.sources.System, &sys)
	spawn(ctx, g, source.NameDisks, a.sources.Disks, &disks)
	spawn(ctx, g, source.NameContainers, a.sources.Containers, &containers)
	spawn(ctx, g, source.NameVPN, a.sources.VPN, &vpn)
	spawn(ctx, g, source.NameStorage, a.sources.Storage, &storage)
	_ = g.Wait()

	snap.System = merge(ctx, sys, &snap.Errors)
	snap.Disks = merge(ctx, disks, &snap.Errors)
	snap.Containers = merge(ctx, containers, &snap.Errors)
	snap.VPN = merge(ctx, vpn, &snap.Errors)
	snap.Storage = merge(ctx, storage, &snap.Errors)

	logger.WithContext(ctx).Debug("snapshot collected",
		"sections_missing", len(snap.Errors),
		"duration", time.Since(snap.Timestamp),
	)
	return snap
}

// spawn runs f in g, writing only to out. Goroutines always return nil so
// one failing source never cancels the others.
func spawn[T any](ctx context.Context, g *errgroup.Group, name string, f Fetcher[T], out *source.Result[T]) {
	if f == nil {
		return
	}
	g.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				*out = source.Result[T]{Err: &source.FetchError{
					Source: name,
					Kind:   source.KindUnreachable,
					Err:    fmt.Errorf("panic: %v", r),
				}}
			}
		}()
		*out = f.Fetch(ctx)
		return nil
	})
}

// merge keeps a section only when its result is OK. An error with a value
// attached still drops the section.
func merge[T any](ctx context.Context, r source.Result[T], errs *[]snapshot.SourceError) *T {
	if r.OK() {
		return r.Value
	}
	if r.Err != nil {
		logger.WithContext(ctx).Warn("source unavailable",
			"source", r.Err.Source,
			"kind", string(r.Err.Kind),
			"error", r.Err.Err,
		)
		*errs = append(*errs, r.Err.SnapshotError())
	}
	return nil
}
