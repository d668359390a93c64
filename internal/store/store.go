// Package store provides a small hierarchical document store addressed by
// path-like keys (e.g. /{debtor}/{creditor}/{transaction}). Two
// implementations exist: Postgres for production and Memory for tests and
// local runs.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned by Get when no node exists at the path.
	ErrNotFound = errors.New("store: node not found")
	// ErrConflict is returned by Swap when the stored value no longer
	// matches the expected value. Callers re-read and retry.
	ErrConflict = errors.New("store: compare-and-set conflict")
)

// Store is hierarchical key/value persistence. Values are JSON documents.
type Store interface {
	// Get returns the value at path, or ErrNotFound.
	Get(ctx context.Context, path string) (json.RawMessage, error)
	// Set creates or replaces the value at path.
	Set(ctx context.Context, path string, value json.RawMessage) error
	// Update shallow-merges a JSON object into the object at path. An
	// absent node behaves like Set.
	Update(ctx context.Context, path string, value json.RawMessage) error
	// Delete removes the node at path and everything beneath it.
	// Deleting an absent path is a no-op.
	Delete(ctx context.Context, path string) error
	// Swap atomically replaces the value at path only if the stored value
	// still equals expected. expected == nil asserts the node must not
	// exist; next == nil deletes the node. A mismatch returns ErrConflict.
	Swap(ctx context.Context, path string, expected, next json.RawMessage) error
	// List returns every node at or under prefix, keyed by full path.
	List(ctx context.Context, prefix string) (map[string]json.RawMessage, error)
}

// Join builds a /-separated path from segments.
func Join(segments ...string) string {
	return "/" + strings.Join(segments, "/")
}

// underPrefix reports whether path is prefix itself or a descendant of it.
func underPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
