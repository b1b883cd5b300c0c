// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists conversation transcripts locally.
//
// Each transcript is one JSON file under the store directory, written
// atomically so an interrupted save never corrupts an existing file.
// The store keeps a bounded number of transcripts, dropping the oldest
// beyond the limit.
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

	"github.com/jeranaias/botdeck-tui/internal/model"
	"github.com/jeranaias/botdeck-tui/internal/util"
)

// MaxStoredTranscripts bounds the store; the oldest files beyond this are
// removed on save.
const MaxStoredTranscripts = 100

// ErrTranscriptNotFound is returned when loading a transcript that does
// not exist.
var ErrTranscriptNotFound = errors.New("transcript not found")

// TranscriptMeta is the listing view of one stored transcript.
type TranscriptMeta struct {
	ID          string    `json:"id"`
	ChatbotName string    `json:"chatbotname"`
	Username    string    `json:"username"`
	Started     time.Time `json:"started"`
	Saved       time.Time `json:"saved"`
	TurnCount   int       `json:"turncount"`
	Preview     string    `json:"preview"`
}

// storedTranscript is the on-disk document.
type storedTranscript struct {
	Meta         TranscriptMeta     `json:"meta"`
	Conversation model.Conversation `json:"conversation"`
}

// =============================================================================
// STORE
// =============================================================================

// Store reads and writes transcripts under one directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. The directory is created on
// first save, not here, so constructing a store is side-effect free.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes the conversation atomically, keyed by its session id.
func (s *Store) Save(conv *model.Conversation) error {
	if conv.SessionID == "" {
		return errors.New("conversation has no session id")
	}

	preview := ""
	if len(conv.Turns) > 0 {
		preview = util.TruncateRunes(util.FirstLine(conv.Turns[0].Text), 60)
	}

	doc := storedTranscript{
		Meta: TranscriptMeta{
			ID:          conv.SessionID,
			ChatbotName: conv.ChatbotName,
			Username:    conv.Username,
			Started:     conv.Started,
			Saved:       time.Now(),
			TurnCount:   len(conv.Turns),
			Preview:     preview,
		},
		Conversation: *conv,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}

	if err := util.AtomicWriteFilePrivate(s.path(conv.SessionID), data, 0600); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}

	return s.enforceLimit()
}

// Load reads one transcript by session id.
func (s *Store) Load(id string) (*model.Conversation, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrTranscriptNotFound, id)
		}
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}

	var doc storedTranscript
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse transcript %s: %w", id, err)
	}
	return &doc.Conversation, nil
}

// List returns metadata for all stored transcripts, newest first.
func (s *Store) List() ([]TranscriptMeta, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read store directory: %w", err)
	}

	metas := make([]TranscriptMeta, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		var doc storedTranscript
		if err := json.Unmarshal(data, &doc); err != nil {
			// Skip corrupt files rather than fail the whole listing
			continue
		}
		metas = append(metas, doc.Meta)
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].Saved.After(metas[j].Saved)
	})
	return metas, nil
}

// Delete removes one transcript.
func (s *Store) Delete(id string) error {
	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrTranscriptNotFound, id)
		}
		return fmt.Errorf("failed to delete transcript: %w", err)
	}
	return nil
}

// path builds the on-disk location, sanitizing the id so a crafted
// session id cannot escape the store directory.
func (s *Store) path(id string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
	return filepath.Join(s.dir, safe+".json")
}

// enforceLimit drops the oldest transcripts beyond MaxStoredTranscripts.
func (s *Store) enforceLimit() error {
	metas, err := s.List()
	if err != nil {
		return err
	}
	for i := MaxStoredTranscripts; i < len(metas); i++ {
		_ = s.Delete(metas[i].ID)
	}
	return nil
}
