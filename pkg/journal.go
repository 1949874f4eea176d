// Package pkg provides utilities for cleanspring.
package pkg

import (
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Entry is the content a file had before cleanspring overwrote it.
type Entry struct {
	Path    string
	Content []byte
	Mode    os.FileMode
}

// Journal spills original file contents to disk so a batch of writes that
// fails halfway can be undone.
type Journal interface {
	Len() int
	Path() string
	// Record stores the original content of a file. Only the first record
	// of a path is kept.
	Record(entry Entry) error
	// Restore hands every recorded entry to write, most recent first.
	Restore(write func(Entry) error) error
	// Close releases the journal and deletes its file.
	Close() error
}

type gobJournal struct {
	path    string
	file    *os.File
	encoder *gob.Encoder
	mu      sync.Mutex
	seen    map[string]bool
	length  int
}

// NewJournal creates an empty journal file in dir, or in the system temp
// directory when dir is empty.
func NewJournal(dir string) (Journal, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "cleanspring-journal")
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		slog.Error("failed to create journal directory", "path", dir, "error", err)
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	file, err := os.CreateTemp(dir, "journal-*.gob")
	if err != nil {
		slog.Error("failed to create journal", "path", dir, "error", err)
		return nil, fmt.Errorf("create journal: %w", err)
	}

	slog.Debug("created journal", "path", file.Name())

	return &gobJournal{
		path:    file.Name(),
		file:    file,
		encoder: gob.NewEncoder(file),
		seen:    map[string]bool{},
	}, nil
}

// Len implements Journal.
func (j *gobJournal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.length
}

// Path implements Journal.
func (j *gobJournal) Path() string {
	return j.path
}

// Record implements Journal.
func (j *gobJournal) Record(entry Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.seen[entry.Path] {
		return nil
	}

	if err := j.encoder.Encode(entry); err != nil {
		slog.Error("failed to journal file", "journal", j.path, "file", entry.Path, "error", err)
		return fmt.Errorf("journal %s: %w", entry.Path, err)
	}

	if err := j.file.Sync(); err != nil {
		return fmt.Errorf("sync journal: %w", err)
	}

	j.seen[entry.Path] = true
	j.length++

	slog.Debug("journaled file", "journal", j.path, "file", entry.Path, "bytes", len(entry.Content))

	return nil
}

// Restore implements Journal.
func (j *gobJournal) Restore(write func(Entry) error) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	file, err := os.Open(j.path)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}

	defer func() {
		if err := file.Close(); err != nil {
			slog.Error("failed to close journal", "path", j.path, "error", err)
		}
	}()

	decoder := gob.NewDecoder(file)
	entries := make([]Entry, 0, j.length)

	for range j.length {
		var e Entry
		if err := decoder.Decode(&e); err != nil {
			return fmt.Errorf("decode journal entry %d: %w", len(entries), err)
		}

		entries = append(entries, e)
	}

	var errs []error

	for i := len(entries) - 1; i >= 0; i-- {
		if err := write(entries[i]); err != nil {
			slog.Error("failed to restore file", "file", entries[i].Path, "error", err)
			errs = append(errs, fmt.Errorf("restore %s: %w", entries[i].Path, err))

			continue
		}

		slog.Info("restored file", "file", entries[i].Path)
	}

	return errors.Join(errs...)
}

// Close implements Journal.
func (j *gobJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return nil
	}

	err := j.file.Close()
	j.file = nil

	if rmErr := os.Remove(j.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		err = errors.Join(err, rmErr)
	}

	if err != nil {
		slog.Error("failed to close journal", "path", j.path, "error", err)
		return fmt.Errorf("close journal: %w", err)
	}

	slog.Debug("closed journal", "path", j.path, "entries", j.length)

	return nil
}
