package history

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Namespace is the blob store key holding the serialized record list.
const Namespace = "history"

// DefaultLimit bounds the log when no limit is configured.
const DefaultLimit = 500

// Record is one successful subscription as shown to users.
type Record struct {
	Title       string  `json:"title"`
	Kind        string  `json:"type"`
	Year        string  `json:"year,omitempty"`
	PosterURL   string  `json:"poster,omitempty"`
	Overview    string  `json:"overview,omitempty"`
	CanonicalID string  `json:"tmdbid"`
	ExternalID  string  `json:"external_id"`
	Rating      float64 `json:"vote"`
	Category    string  `json:"category,omitempty"`
	Timestamp   string  `json:"time"`
	UniqueKey   string  `json:"unique"`
}

// BlobStore is the durable namespace/value store the log lives in.
type BlobStore interface {
	Get(ctx context.Context, namespace string) ([]byte, error)
	Set(ctx context.Context, namespace string, value []byte) error
}

// Log is the bounded history list. Records are kept oldest first and the
// oldest are evicted once the limit is exceeded.
type Log struct {
	mu    sync.Mutex
	blobs BlobStore
	limit int
	now   func() time.Time
}

// New returns a log over blobs holding at most limit records.
func New(blobs BlobStore, limit int) *Log {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Log{blobs: blobs, limit: limit, now: time.Now}
}

// Append adds rec, stamping Timestamp when empty, and trims the log.
func (l *Log) Append(ctx context.Context, rec Record) error {
	if strings.TrimSpace(rec.UniqueKey) == "" {
		return fmt.Errorf("history record %q has no unique key", rec.Title)
	}
	if rec.Timestamp == "" {
		rec.Timestamp = l.now().Format("2006-01-02 15:04:05")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	records, err := l.load(ctx)
	if err != nil {
		return err
	}
	records = append(records, rec)
	if len(records) > l.limit {
		records = records[len(records)-l.limit:]
	}
	return l.save(ctx, records)
}

// List returns the records newest first.
func (l *Log) List(ctx context.Context) ([]Record, error) {
	l.mu.Lock()
	records, err := l.load(ctx)
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([]Record, len(records))
	for i, rec := range records {
		out[len(records)-1-i] = rec
	}
	return out, nil
}

// Delete removes every record with the given unique key and reports whether
// anything was removed.
func (l *Log) Delete(ctx context.Context, uniqueKey string) (bool, error) {
	uniqueKey = strings.TrimSpace(uniqueKey)
	l.mu.Lock()
	defer l.mu.Unlock()
	records, err := l.load(ctx)
	if err != nil {
		return false, err
	}
	kept := records[:0]
	for _, rec := range records {
		if rec.UniqueKey != uniqueKey {
			kept = append(kept, rec)
		}
	}
	if len(kept) == len(records) {
		return false, nil
	}
	return true, l.save(ctx, kept)
}

// Clear drops every record.
func (l *Log) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.save(ctx, []Record{})
}

func (l *Log) load(ctx context.Context) ([]Record, error) {
	raw, err := l.blobs.Get(ctx, Namespace)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return records, nil
}

func (l *Log) save(ctx context.Context, records []Record) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := l.blobs.Set(ctx, Namespace, raw); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}
