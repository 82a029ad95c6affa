package subscriber

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// File keeps one identifier per line in a flat file. The file is re-read on
// every call so that other writers appending to it are observed.
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile prepares a file registry, creating parent directories as needed.
func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("subscriber file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create subscriber dir: %w", err)
	}
	return &File{path: path}, nil
}

// Register appends id unless the file already lists it.
func (f *File) Register(ctx context.Context, id string) (bool, error) {
	id, err := normalize(id)
	if err != nil {
		return false, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	ids, err := f.read()
	if err != nil {
		return false, err
	}
	for _, existing := range ids {
		if existing == id {
			return false, nil
		}
	}

	fh, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return false, fmt.Errorf("open subscriber file: %w", err)
	}
	if _, err := fh.WriteString(id + "\n"); err != nil {
		fh.Close()
		return false, fmt.Errorf("append subscriber: %w", err)
	}
	if err := fh.Close(); err != nil {
		return false, fmt.Errorf("close subscriber file: %w", err)
	}
	return true, nil
}

// List returns ids in the order they were first written.
func (f *File) List(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read()
}

// Close is a no-op; the file is opened per call.
func (f *File) Close() error { return nil }

// read returns unique, non-blank lines; a missing file is an empty set.
func (f *File) read() ([]string, error) {
	fh, err := os.Open(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open subscriber file: %w", err)
	}
	defer fh.Close()

	seen := make(map[string]struct{})
	ids := []string{}
	sc := bufio.NewScanner(fh)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		ids = append(ids, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read subscriber file: %w", err)
	}
	return ids, nil
}
