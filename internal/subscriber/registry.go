// Package subscriber stores the identifiers that receive broadcast reports.
package subscriber

import (
	"context"
	"fmt"
	"strings"
)

// Registry is a deduplicated, append-only set of recipient identifiers.
type Registry interface {
	// Register adds id if absent. added is false when id was already present.
	Register(ctx context.Context, id string) (added bool, err error)
	// List returns a snapshot in insertion order.
	List(ctx context.Context) ([]string, error)
	Close() error
}

var (
	_ Registry = (*File)(nil)
	_ Registry = (*SQLite)(nil)
)

// Backends accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open returns the registry for a configured backend.
func Open(backend, path string) (Registry, error) {
	switch strings.ToLower(backend) {
	case BackendFile, "":
		return NewFile(path)
	case BackendSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown subscriber backend %q", backend)
	}
}

func normalize(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("empty subscriber id")
	}
	if strings.ContainsAny(id, "\r\n") {
		return "", fmt.Errorf("subscriber id %q contains a line break", id)
	}
	return id, nil
}
