// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/botdeck-tui/internal/model"
)

func twoTurnConversation() *model.Conversation {
	conv := model.NewConversation("c1", "alice", "helper", "")
	conv.AddUserTurn("Hello")
	conv.AddChatbotTurn("Hi there")
	return conv
}

func TestTranscriptFormat(t *testing.T) {
	got := Transcript(twoTurnConversation())
	want := "**You:**\n> Hello\n\n**helper:**\n> Hi there"
	assert.Equal(t, want, got)
}

func TestTranscriptBlankLineSeparation(t *testing.T) {
	got := Transcript(twoTurnConversation())

	parts := strings.Split(got, "\n\n")
	require.Len(t, parts, 2, "two turns separated by one blank line")
	assert.Contains(t, parts[0], "Hello")
	assert.Contains(t, parts[1], "Hi there")
}

func TestTranscriptEmptyConversation(t *testing.T) {
	conv := model.NewConversation("c1", "alice", "helper", "")
	assert.Equal(t, "", Transcript(conv))
}

func TestTranscriptFallbackSpeakerLabel(t *testing.T) {
	conv := model.NewConversation("c1", "alice", "", "")
	conv.AddChatbotTurn("reply")
	assert.True(t, strings.HasPrefix(Transcript(conv), "**Chatbot:**"))
}

func TestTextAndMarkdownShareSerialization(t *testing.T) {
	conv := twoTurnConversation()

	txt, err := NewTextExporter().Export(conv)
	require.NoError(t, err)

	md, err := NewMarkdownExporter(&Options{IncludeMetadata: false}).Export(conv)
	require.NoError(t, err)

	assert.Equal(t, string(txt), string(md), "text and markdown bodies are the same serialization")
}

func TestMarkdownMetadataHeader(t *testing.T) {
	conv := twoTurnConversation()

	out, err := NewMarkdownExporter(&Options{IncludeMetadata: true}).Export(conv)
	require.NoError(t, err)

	s := string(out)
	assert.True(t, strings.HasPrefix(s, "---\n"))
	assert.Contains(t, s, "chatbot: helper")
	assert.Contains(t, s, "user: alice")
	assert.Contains(t, s, "turns: 2")
	assert.Contains(t, s, "**You:**\n> Hello")
}

func TestExportToFile(t *testing.T) {
	dir := t.TempDir()
	conv := twoTurnConversation()

	path, err := ExportToFile(conv, NewTextExporter(), &Options{OutputDir: dir})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".txt"))
	assert.True(t, strings.Contains(path, "helper"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "**helper:**\n> Hi there")
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"helper":         "helper",
		"my bot":         "my_bot",
		"a/b\\c:d":       "a-b-c-d",
		"":               "conversation",
		"what?<really>!": "what--really-!",
	}
	for input, want := range tests {
		assert.Equal(t, want, sanitizeFilename(input), "input %q", input)
	}
}
