// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export serializes conversation transcripts to flat files.
// The wire between turn list and text is a pure function, so the same
// serialization backs both the .txt and .md exports.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jeranaias/botdeck-tui/internal/model"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter converts a transcript into one output format.
type Exporter interface {
	// Export renders the conversation and returns the file content.
	Export(conv *model.Conversation) ([]byte, error)

	// FileExtension returns the extension including the dot (".txt", ".md").
	FileExtension() string
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is where files are written. Default: current directory.
	OutputDir string

	// IncludeMetadata prepends a header with chatbot name, user, and
	// start time (markdown export only).
	IncludeMetadata bool
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:       ".",
		IncludeMetadata: true,
	}
}

// =============================================================================
// TRANSCRIPT SERIALIZATION
// =============================================================================

// Transcript renders the ordered turn list as flat text: one
// "**speaker:**" header and a quoted body per turn, blank-line separated.
// Pure function of the turn list; no network, no clock.
func Transcript(conv *model.Conversation) string {
	out := ""
	for i, turn := range conv.Turns {
		if i > 0 {
			out += "\n\n"
		}
		out += fmt.Sprintf("**%s:**\n> %s", speakerLabel(conv, turn), turn.Text)
	}
	return out
}

// speakerLabel names the turn's speaker: the user renders as "You", the
// chatbot under its persona name when known.
func speakerLabel(conv *model.Conversation, turn model.Turn) string {
	if turn.Speaker == model.SpeakerChatbot && conv.ChatbotName != "" {
		return conv.ChatbotName
	}
	return turn.Speaker.DisplayName()
}

// =============================================================================
// FILE EXPORT
// =============================================================================

// ExportToFile writes the rendered transcript to a timestamped file in
// the options' output directory and returns the path.
func ExportToFile(conv *model.Conversation, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(conv)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	name := conv.ChatbotName
	if name == "" {
		name = "conversation"
	}
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s%s", sanitizeFilename(name), timestamp, exporter.FileExtension())

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	outputPath := filepath.Join(opts.OutputDir, filename)
	if err := os.WriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return outputPath, nil
}

// sanitizeFilename removes or replaces characters that are invalid in
// filenames on either Windows or Unix.
func sanitizeFilename(s string) string {
	maxLen := 50
	runes := []rune(s)
	if len(runes) > maxLen {
		s = string(runes[:maxLen])
	}

	replacer := map[rune]rune{
		'/':  '-',
		'\\': '-',
		':':  '-',
		'*':  '-',
		'?':  '-',
		'"':  '-',
		'<':  '-',
		'>':  '-',
		'|':  '-',
		' ':  '_',
		'\t': '_',
		'\n': '_',
		'\r': '_',
	}

	result := []rune{}
	for _, r := range s {
		if replacement, found := replacer[r]; found {
			result = append(result, replacement)
		} else if r < 32 || r == 127 {
			result = append(result, '-')
		} else {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "conversation"
	}
	return string(result)
}
