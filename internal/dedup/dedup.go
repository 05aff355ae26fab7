package dedup

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// Set is the durable set of processed keys. Keys are loaded once from a
// line-delimited file and every new key is appended and synced before
// MarkProcessed returns. Removing keys rewrites the file.
type Set struct {
	mu   sync.RWMutex
	path string
	file *os.File
	keys map[string]struct{}
}

// Open loads path, creating it when absent.
func Open(path string) (*Set, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("dedup: path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("dedup: ensure directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("dedup: open %s: %w", path, err)
	}
	keys := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			keys[line] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		file.Close()
		return nil, fmt.Errorf("dedup: read %s: %w", path, err)
	}
	return &Set{path: path, file: file, keys: keys}, nil
}

// Path returns the backing file location.
func (s *Set) Path() string {
	return s.path
}

// IsProcessed reports whether key has been recorded.
func (s *Set) IsProcessed(key string) bool {
	key = strings.TrimSpace(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.keys[key]
	return ok
}

// MarkProcessed records key. Recording an existing key is a no-op.
func (s *Set) MarkProcessed(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("dedup: empty key")
	}
	if strings.ContainsAny(key, "\r\n") {
		return fmt.Errorf("dedup: key %q contains a line break", key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return errors.New("dedup: set is closed")
	}
	if _, ok := s.keys[key]; ok {
		return nil
	}
	if _, err := s.file.WriteString(key + "\n"); err != nil {
		return fmt.Errorf("dedup: append: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("dedup: sync: %w", err)
	}
	s.keys[key] = struct{}{}
	return nil
}

// Clear empties both the file and the in-memory set.
func (s *Set) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return errors.New("dedup: set is closed")
	}
	if err := s.file.Truncate(0); err != nil {
		return fmt.Errorf("dedup: truncate: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("dedup: sync: %w", err)
	}
	s.keys = make(map[string]struct{})
	return nil
}

// Remove drops key so the item is novel again. It reports whether the key
// was present.
func (s *Set) Remove(key string) (bool, error) {
	key = strings.TrimSpace(key)
	n, err := s.RemoveFunc(func(k string) bool { return k == key })
	return n > 0, err
}

// RemoveFunc drops every key match accepts and returns how many went.
func (s *Set) RemoveFunc(match func(key string) bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return 0, errors.New("dedup: set is closed")
	}
	kept := make(map[string]struct{}, len(s.keys))
	for k := range s.keys {
		if !match(k) {
			kept[k] = struct{}{}
		}
	}
	removed := len(s.keys) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := s.rewriteLocked(kept); err != nil {
		return 0, err
	}
	s.keys = kept
	return removed, nil
}

// rewriteLocked replaces the file contents with keys via a temp file and
// rename, then reopens the append handle.
func (s *Set) rewriteLocked(keys map[string]struct{}) error {
	lines := make([]string, 0, len(keys))
	for k := range keys {
		lines = append(lines, k)
	}
	slices.Sort(lines)

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("dedup: create temp: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("dedup: chmod temp: %w", err)
	}
	w := bufio.NewWriter(tmp)
	for _, line := range lines {
		if _, err := w.WriteString(line + "\n"); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return fmt.Errorf("dedup: write temp: %w", err)
		}
	}
	err = w.Flush()
	if err == nil {
		err = tmp.Sync()
	}
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("dedup: flush temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("dedup: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("dedup: replace %s: %w", s.path, err)
	}
	file, err := os.OpenFile(s.path, os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("dedup: reopen %s: %w", s.path, err)
	}
	_ = s.file.Close()
	s.file = file
	return nil
}

// Len returns the number of recorded keys.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// Close releases the backing file.
func (s *Set) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
