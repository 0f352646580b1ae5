// Copyright (c) 2025 The umldraft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cache provides a SQLite-backed cache of diagram render results.
//
// Encoding a diagram is cheap but downloading its image is not. The cache
// remembers, per (fingerprint, format) pair, the token, the server URLs,
// and the local image path, so re-rendering an unchanged diagram skips
// the network entirely.
package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrMiss indicates the cache has no entry for the key.
var ErrMiss = errors.New("cache: miss")

// Entry is one cached render result.
type Entry struct {
	Fingerprint string
	Format      string
	Token       string
	ImageURL    string
	EditorURL   string
	LocalPath   string
	CreatedAt   time.Time
}

// =============================================================================
// RENDER CACHE
// =============================================================================

// RenderCache is a persistent render result cache. Safe for concurrent use.
type RenderCache struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*RenderCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("cache: create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open database: %w", err)
	}

	c := &RenderCache{db: db}
	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// OpenDefault opens the cache at ~/.umldraft/render_cache.db.
func OpenDefault() (*RenderCache, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return Open(filepath.Join(homeDir, ".umldraft", "render_cache.db"))
}

func (c *RenderCache) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS renders (
		fingerprint TEXT NOT NULL,
		format      TEXT NOT NULL,
		token       TEXT NOT NULL,
		image_url   TEXT NOT NULL,
		editor_url  TEXT NOT NULL,
		local_path  TEXT NOT NULL DEFAULT '',
		created_at  INTEGER NOT NULL,
		PRIMARY KEY (fingerprint, format)
	);
	`
	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("cache: init schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (c *RenderCache) Close() error {
	return c.db.Close()
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Get looks up a cached render. Returns ErrMiss when absent. An entry whose
// local file has since been deleted is returned with LocalPath cleared.
func (c *RenderCache) Get(fingerprint, format string) (*Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	row := c.db.QueryRow(`
		SELECT token, image_url, editor_url, local_path, created_at
		FROM renders WHERE fingerprint = ? AND format = ?`,
		fingerprint, format)

	var entry Entry
	var createdAt int64
	err := row.Scan(&entry.Token, &entry.ImageURL, &entry.EditorURL, &entry.LocalPath, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache: get: %w", err)
	}

	entry.Fingerprint = fingerprint
	entry.Format = format
	entry.CreatedAt = time.Unix(createdAt, 0)

	if entry.LocalPath != "" {
		if _, err := os.Stat(entry.LocalPath); err != nil {
			entry.LocalPath = ""
		}
	}
	return &entry, nil
}

// Put stores or replaces a render result.
func (c *RenderCache) Put(entry *Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := c.db.Exec(`
		INSERT INTO renders (fingerprint, format, token, image_url, editor_url, local_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (fingerprint, format) DO UPDATE SET
			token = excluded.token,
			image_url = excluded.image_url,
			editor_url = excluded.editor_url,
			local_path = excluded.local_path,
			created_at = excluded.created_at`,
		entry.Fingerprint, entry.Format, entry.Token,
		entry.ImageURL, entry.EditorURL, entry.LocalPath, createdAt.Unix())
	if err != nil {
		return fmt.Errorf("cache: put: %w", err)
	}
	return nil
}

// Count returns the number of cached renders.
func (c *RenderCache) Count() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var n int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM renders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("cache: count: %w", err)
	}
	return n, nil
}

// Clear removes every cached render.
func (c *RenderCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.db.Exec(`DELETE FROM renders`); err != nil {
		return fmt.Errorf("cache: clear: %w", err)
	}
	return nil
}
