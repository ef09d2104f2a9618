// Package ledger implements the persisted staleness cache: a flat text file of
// "path:mtime" lines recording when watched paths were last observed.
package ledger

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.trai.ch/zen/internal/core/domain"
	"go.trai.ch/zen/internal/core/ports"
	"go.trai.ch/zerr"
)

// Loader implements ports.StalenessCacheLoader for ledger files on disk.
type Loader struct{}

// NewLoader creates a new Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads the ledger at path. Relative ledger and cache paths resolve against root.
func (l *Loader) Load(root, path string) (ports.StalenessCache, error) {
	ledgerPath := resolve(root, path)

	c := &Cache{
		root:    root,
		path:    ledgerPath,
		entries: make(map[string]float64),
		staged:  make(map[string]float64),
		pinned:  make(map[string]bool),
	}

	//nolint:gosec // ledger path comes from project settings
	data, err := os.ReadFile(ledgerPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrLedgerReadFailed.Error()), "path", ledgerPath)
	}

	if err := parse(data, c.entries); err != nil {
		return nil, zerr.With(err, "ledger", ledgerPath)
	}
	return c, nil
}

func parse(data []byte, into map[string]float64) error {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		path, raw, ok := strings.Cut(line, ":")
		if !ok || path == "" {
			return zerr.With(zerr.With(domain.ErrLedgerParse, "line", lineNo), "content", line)
		}
		mtime, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return zerr.With(zerr.With(zerr.Wrap(err, domain.ErrLedgerParse.Error()), "line", lineNo), "content", line)
		}
		into[path] = mtime
	}
	if err := scanner.Err(); err != nil {
		return zerr.Wrap(err, domain.ErrLedgerReadFailed.Error())
	}
	return nil
}

// Cache is the in-memory view of a ledger. All methods are safe for concurrent use.
//
// entries holds what the ledger recorded plus first observations made during this run.
// Observe stages a newer value and Pin vetoes staging for a path; both only take
// effect on Flush, so answers stay stable for the whole run.
type Cache struct {
	root string
	path string

	mu      sync.Mutex
	entries map[string]float64
	staged  map[string]float64
	pinned  map[string]bool
}

// IsStale reports whether object is missing or strictly older than source.
// A missing source is never stale since nothing could be rebuilt from it.
func (c *Cache) IsStale(object, source string) bool {
	objTime, ok := c.mtime(object)
	if !ok {
		return true
	}
	srcTime, ok := c.mtime(source)
	if !ok {
		return false
	}
	return objTime < srcTime
}

// IsWatchedStale reports whether path changed since it was recorded. A path seen
// for the first time is recorded and reported unchanged. Missing paths are never stale.
func (c *Cache) IsWatchedStale(path string) bool {
	current, ok := c.mtime(path)
	if !ok {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	stored, seen := c.entries[path]
	if !seen {
		c.entries[path] = current
		return false
	}
	return current > stored
}

// Observe stages the current mtime of path for the next Flush.
func (c *Cache) Observe(path string) {
	current, ok := c.mtime(path)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.staged[path] = current
}

// Pin keeps the recorded mtime of path through the next Flush.
func (c *Cache) Pin(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pinned[path] = true
}

// Flush atomically rewrites the ledger with every entry, sorted by path.
func (c *Cache) Flush() error {
	c.mu.Lock()
	merged := maps.Clone(c.entries)
	for path, mtime := range c.staged {
		if !c.pinned[path] {
			merged[path] = mtime
		}
	}
	c.mu.Unlock()

	var buf bytes.Buffer
	for _, path := range slices.Sorted(maps.Keys(merged)) {
		fmt.Fprintf(&buf, "%s:%s\n", path, strconv.FormatFloat(merged[path], 'f', -1, 64))
	}

	if err := writeAtomic(c.path, buf.Bytes()); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrLedgerWriteFailed.Error()), "path", c.path)
	}

	c.mu.Lock()
	c.entries = merged
	clear(c.staged)
	clear(c.pinned)
	c.mu.Unlock()
	return nil
}

func (c *Cache) mtime(path string) (float64, bool) {
	info, err := os.Stat(resolve(c.root, path))
	if err != nil {
		return 0, false
	}
	return seconds(info.ModTime()), true
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), domain.FilePerm); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) || root == "" {
		return path
	}
	return filepath.Join(root, path)
}

// seconds converts t to fractional seconds since the epoch, the ledger's unit.
func seconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/float64(time.Second)
}
