// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/jeranaias/botdeck-tui/internal/ui/styles"
	"github.com/jeranaias/botdeck-tui/internal/util"
)

// Header renders the top banner with the active chatbot.
type Header struct {
	theme *styles.Theme
	width int

	Title    string
	Subtitle string
}

// NewHeader creates a header.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{theme: theme, width: 80, Title: "botdeck"}
}

// SetWidth sets the rendering width.
func (h *Header) SetWidth(width int) {
	h.width = width
}

// View renders the header.
func (h *Header) View() string {
	line := h.theme.HeaderTitle.Render(h.Title)
	if h.Subtitle != "" {
		sub := util.TruncateWidth(util.FirstLine(h.Subtitle), h.width-len(h.Title)-8)
		line += "  " + h.theme.HeaderSubtitle.Render(sub)
	}
	return h.theme.Header.Width(h.width - 2).Render(line)
}
