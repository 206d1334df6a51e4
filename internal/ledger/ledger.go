// Package ledger persists the ids of tracks that have already been handled.
//
// The file format is one id per line. The file is only ever appended to, and
// every Add is flushed to disk before it returns. Only one process may use a
// ledger file at a time; Open enforces this with a lock file next to it.
package ledger

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/gofrs/flock"
)

var (
	// ErrEmpty is returned by Open when the ledger file exists but holds no
	// bytes. An empty ledger is more likely lost state than a fresh start.
	ErrEmpty = errors.New("ledger file is empty")

	// ErrLocked is returned by Open when another process holds the ledger.
	ErrLocked = errors.New("ledger is in use by another process")
)

// File is a ledger backed by an append-only text file.
type File struct {
	path string
	file *os.File
	lock *flock.Flock
	ids  map[string]struct{}
	// needsNewline is set when the file does not end in '\n'.
	needsNewline bool
}

// Open locks the ledger at path, creates it empty if it does not exist and
// loads its ids into memory. A file that already existed but is empty is
// refused with ErrEmpty, as is a freshly created one.
func Open(path string) (*File, error) {
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock ledger: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrLocked)
	}

	l, err := open(path, lock)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	return l, nil
}

func open(path string, lock *flock.Flock) (*File, error) {
	_, statErr := os.Stat(path)
	created := errors.Is(statErr, os.ErrNotExist)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat ledger file: %w", err)
	}
	if info.Size() == 0 {
		f.Close()
		if created {
			slog.Info("Created empty ledger file", "path", path)
		}
		return nil, fmt.Errorf("%s: %w (add previously processed ids, or any placeholder line to start fresh)", path, ErrEmpty)
	}

	ids, err := readIDs(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read ledger tail: %w", err)
	}

	slog.Debug("Loaded ledger", "path", path, "ids", len(ids), "size_bytes", info.Size())

	return &File{
		path:         path,
		file:         f,
		lock:         lock,
		ids:          ids,
		needsNewline: last[0] != '\n',
	}, nil
}

func readIDs(r io.Reader) (map[string]struct{}, error) {
	ids := make(map[string]struct{})
	scanner := bufio.NewScanner(r)

	// Ids are short, but don't fail on an odd long line.
	const maxCapacity = 1024 * 1024
	scanner.Buffer(make([]byte, 0, 64*1024), maxCapacity)

	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}
		ids[id] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ledger: %w", err)
	}

	return ids, nil
}

// Path returns the location of the ledger file.
func (l *File) Path() string {
	return l.path
}

// Contains reports whether id has been handled.
func (l *File) Contains(id string) bool {
	_, ok := l.ids[id]
	return ok
}

// Len returns the number of distinct ids in the ledger.
func (l *File) Len() int {
	return len(l.ids)
}

// Add appends id to the ledger and syncs the file. Adding an id that is
// already present is a no-op.
func (l *File) Add(id string) error {
	if l.Contains(id) {
		return nil
	}

	line := id + "\n"
	if l.needsNewline {
		line = "\n" + line
	}
	if _, err := l.file.WriteString(line); err != nil {
		return fmt.Errorf("failed to append %s to ledger: %w", id, err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync ledger: %w", err)
	}

	l.needsNewline = false
	l.ids[id] = struct{}{}
	return nil
}

// Close closes the ledger file and releases the lock.
func (l *File) Close() error {
	err := l.file.Close()
	if unlockErr := l.lock.Unlock(); err == nil {
		err = unlockErr
	}
	return err
}
