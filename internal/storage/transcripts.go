// Copyright (c) 2025 The umldraft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides transcript persistence for umldraft.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/umldraft/umldraft/internal/model"
	"github.com/umldraft/umldraft/internal/util"
)

// ErrNotFound indicates the requested transcript does not exist.
var ErrNotFound = errors.New("storage: transcript not found")

// =============================================================================
// TRANSCRIPT METADATA
// =============================================================================

// TranscriptMeta is the listing view of a stored transcript.
type TranscriptMeta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Model        string    `json:"model"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

// =============================================================================
// TRANSCRIPT STORE
// =============================================================================

// TranscriptStore persists conversations as one JSON file per transcript.
type TranscriptStore struct {
	// BaseDir holds the transcript files. Default: ~/.umldraft/transcripts.
	BaseDir string
}

// NewTranscriptStore creates a store under the default directory.
func NewTranscriptStore() (*TranscriptStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewTranscriptStoreWithDir(filepath.Join(homeDir, ".umldraft", "transcripts"))
}

// NewTranscriptStoreWithDir creates a store rooted at a specific directory.
func NewTranscriptStoreWithDir(baseDir string) (*TranscriptStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("storage: create transcript dir: %w", err)
	}
	return &TranscriptStore{BaseDir: baseDir}, nil
}

// Save writes the conversation to disk and returns its ID.
func (s *TranscriptStore) Save(conv *model.Conversation) (string, error) {
	if conv == nil || conv.IsEmpty() {
		return "", errors.New("storage: nothing to save")
	}

	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return "", fmt.Errorf("storage: marshal transcript: %w", err)
	}
	if err := util.AtomicWriteFile(s.filePath(conv.ID), data, 0600); err != nil {
		return "", fmt.Errorf("storage: write transcript: %w", err)
	}
	return conv.ID, nil
}

// Load reads a transcript by ID. The ID may be a unique prefix.
func (s *TranscriptStore) Load(id string) (*model.Conversation, error) {
	data, err := os.ReadFile(s.filePath(id))
	if errors.Is(err, os.ErrNotExist) {
		resolved, rerr := s.resolvePrefix(id)
		if rerr != nil {
			return nil, rerr
		}
		data, err = os.ReadFile(s.filePath(resolved))
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read transcript: %w", err)
	}

	var conv model.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("storage: parse transcript: %w", err)
	}
	return &conv, nil
}

// List returns metadata for all stored transcripts, newest first.
func (s *TranscriptStore) List() ([]TranscriptMeta, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("storage: list transcripts: %w", err)
	}

	var metas []TranscriptMeta
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.BaseDir, entry.Name()))
		if err != nil {
			continue
		}
		var conv model.Conversation
		if err := json.Unmarshal(data, &conv); err != nil {
			// Skip corrupt files instead of failing the whole listing.
			continue
		}
		metas = append(metas, TranscriptMeta{
			ID:           conv.ID,
			Title:        conv.GetTitle(),
			Model:        conv.Model,
			CreatedAt:    conv.CreatedAt,
			UpdatedAt:    conv.UpdatedAt,
			MessageCount: conv.MessageCount(),
		})
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return metas, nil
}

// Delete removes a transcript by ID.
func (s *TranscriptStore) Delete(id string) error {
	err := os.Remove(s.filePath(id))
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

// filePath maps an ID to its JSON file.
func (s *TranscriptStore) filePath(id string) string {
	return filepath.Join(s.BaseDir, id+".json")
}

// resolvePrefix finds the single transcript whose ID starts with prefix.
func (s *TranscriptStore) resolvePrefix(prefix string) (string, error) {
	if prefix == "" {
		return "", ErrNotFound
	}
	metas, err := s.List()
	if err != nil {
		return "", err
	}

	var match string
	for _, meta := range metas {
		if strings.HasPrefix(meta.ID, prefix) {
			if match != "" {
				return "", fmt.Errorf("storage: ambiguous transcript prefix %q", prefix)
			}
			match = meta.ID
		}
	}
	if match == "" {
		return "", ErrNotFound
	}
	return match, nil
}

// =============================================================================
// MARKDOWN EXPORT
// =============================================================================

// ExportMarkdown renders a transcript as a markdown document.
func ExportMarkdown(conv *model.Conversation) string {
	var sb strings.Builder

	sb.WriteString("# " + conv.GetTitle() + "\n\n")
	sb.WriteString("- Model: " + conv.Model + "\n")
	sb.WriteString("- Created: " + conv.CreatedAt.Format(time.RFC3339) + "\n")
	sb.WriteString(fmt.Sprintf("- Messages: %d\n\n", conv.MessageCount()))

	for _, msg := range conv.History() {
		sb.WriteString("## " + msg.Role.DisplayName() + "\n\n")
		sb.WriteString(msg.Content + "\n\n")
	}
	return sb.String()
}

// SaveMarkdown exports a transcript to a markdown file.
func SaveMarkdown(conv *model.Conversation, path string) error {
	return util.AtomicWriteFile(path, []byte(ExportMarkdown(conv)), 0644)
}
