package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Get returns the value stored under namespace, or nil when nothing is stored.
func (s *Store) Get(ctx context.Context, namespace string) ([]byte, error) {
	ctx = ensureContext(ctx)
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return nil, errors.New("namespace required")
	}
	var value []byte
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, "SELECT value FROM blobs WHERE namespace = ?", namespace).Scan(&value)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get blob %s: %w", namespace, err)
	}
	return value, nil
}

// Set replaces the value stored under namespace.
func (s *Store) Set(ctx context.Context, namespace string, value []byte) error {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return errors.New("namespace required")
	}
	if value == nil {
		value = []byte{}
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO blobs (namespace, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(namespace) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		namespace, value, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("set blob %s: %w", namespace, err)
	}
	return nil
}

// Delete removes namespace entirely.
func (s *Store) Delete(ctx context.Context, namespace string) error {
	if _, err := s.execWithRetry(ctx, "DELETE FROM blobs WHERE namespace = ?", strings.TrimSpace(namespace)); err != nil {
		return fmt.Errorf("delete blob %s: %w", namespace, err)
	}
	return nil
}
