// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "testing"

func TestNewThemeModes(t *testing.T) {
	if !NewTheme("dark").IsDark {
		t.Error("dark mode should force IsDark")
	}
	if NewTheme("light").IsDark {
		t.Error("light mode should clear IsDark")
	}
	// auto falls back to detection; just make sure it constructs
	if NewTheme("auto") == nil {
		t.Fatal("auto theme is nil")
	}
}

func TestSetSize(t *testing.T) {
	theme := NewTheme("dark")
	theme.SetSize(120, 40)
	if theme.Width != 120 || theme.Height != 40 {
		t.Errorf("size = %dx%d, want 120x40", theme.Width, theme.Height)
	}
}
