// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import "github.com/jeranaias/botdeck-tui/internal/model"

// TextExporter writes the transcript serialization as-is to a .txt file.
type TextExporter struct{}

// NewTextExporter creates a plain-text exporter.
func NewTextExporter() *TextExporter {
	return &TextExporter{}
}

// Export implements Exporter.
func (e *TextExporter) Export(conv *model.Conversation) ([]byte, error) {
	return []byte(Transcript(conv) + "\n"), nil
}

// FileExtension implements Exporter.
func (e *TextExporter) FileExtension() string {
	return ".txt"
}
