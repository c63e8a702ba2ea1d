// Package source implements the clients that populate one section of a
// snapshot each. Clients never return bare errors: every failure is
// converted into a FetchError carried by a Result.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/jguan/nas-assistant/pkg/snapshot"
)

// Kind classifies why a source produced nothing.
type Kind string

const (
	// KindUnreachable covers connection failures, timeouts, non-2xx
	// statuses and failing commands.
	KindUnreachable Kind = "SourceUnreachable"
	// KindMalformed covers payloads that do not have the expected shape.
	KindMalformed Kind = "SourceMalformed"
)

// Source names used in logs and in Snapshot.Errors.
const (
	NameSystem     = "system"
	NameDisks      = "disks"
	NameContainers = "containers"
	NameVPN        = "vpn_tunnel"
	NameStorage    = "storage"
)

// FetchError is the tagged failure of a single source.
type FetchError struct {
	Source string
	Kind   Kind
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SnapshotError converts the failure into its snapshot record.
func (e *FetchError) SnapshotError() snapshot.SourceError {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return snapshot.SourceError{Source: e.Source, Kind: string(e.Kind), Message: msg}
}

// Result is either a value or a FetchError, never both.
type Result[T any] struct {
	Value *T
	Err   *FetchError
}

// OK reports whether the result carries a value.
func (r Result[T]) OK() bool { return r.Value != nil && r.Err == nil }

func ok[T any](v T) Result[T] {
	return Result[T]{Value: &v}
}

func fail[T any](src string, kind Kind, err error) Result[T] {
	return Result[T]{Err: &FetchError{Source: src, Kind: kind, Err: err}}
}

// unreachable wraps err, noting deadline expiry so timeouts are
// recognisable in logs.
func unreachable[T any](src string, err error) Result[T] {
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("timed out: %w", err)
	}
	return fail[T](src, KindUnreachable, err)
}
