// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/jeranaias/botdeck-tui/internal/model"
)

// MarkdownExporter writes the transcript as a .md document, optionally
// with a metadata header. The turn serialization is already markdown
// (bold speaker, blockquote body), so the body is shared with the text
// export.
type MarkdownExporter struct {
	opts *Options
}

// NewMarkdownExporter creates a markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{opts: opts}
}

// Export implements Exporter.
func (e *MarkdownExporter) Export(conv *model.Conversation) ([]byte, error) {
	var sb strings.Builder

	if e.opts.IncludeMetadata {
		sb.WriteString("---\n")
		fmt.Fprintf(&sb, "chatbot: %s\n", escapeYAML(conv.ChatbotName))
		fmt.Fprintf(&sb, "user: %s\n", escapeYAML(conv.Username))
		if !conv.Started.IsZero() {
			fmt.Fprintf(&sb, "started: %s\n", conv.Started.Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintf(&sb, "turns: %d\n", len(conv.Turns))
		sb.WriteString("---\n\n")
	}

	sb.WriteString(Transcript(conv))
	sb.WriteString("\n")
	return []byte(sb.String()), nil
}

// FileExtension implements Exporter.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// escapeYAML quotes values that would break the metadata header.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#\"'\n") {
		return fmt.Sprintf("%q", s)
	}
	return s
}
