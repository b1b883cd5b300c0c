// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommands(t *testing.T) {
	tests := []struct {
		argv []string
		want Command
	}{
		{nil, CmdTUI},
		{[]string{"login"}, CmdLogin},
		{[]string{"register"}, CmdRegister},
		{[]string{"signup"}, CmdRegister},
		{[]string{"logout"}, CmdLogout},
		{[]string{"whoami"}, CmdWhoami},
		{[]string{"bots", "list"}, CmdBots},
		{[]string{"chatbots"}, CmdBots},
		{[]string{"chat", "helper"}, CmdChat},
		{[]string{"export", "c1"}, CmdExport},
		{[]string{"history"}, CmdHistory},
		{[]string{"config", "set", "theme", "dark"}, CmdConfig},
		{[]string{"version"}, CmdVersion},
		{[]string{"help"}, CmdHelp},
		{[]string{"frobnicate"}, CmdHelp},
	}
	for _, tt := range tests {
		cmd, _ := Parse(tt.argv)
		assert.Equal(t, tt.want, cmd, "argv %v", tt.argv)
	}
}

func TestArgParserFlags(t *testing.T) {
	p := NewArgParser([]string{"create", "helper", "--description", "Helps out", "--behaviour=Be concise", "--shared", "--file", "notes.pdf"})

	assert.Equal(t, "create", p.Subcommand())
	assert.Equal(t, "helper", p.Arg(1))
	assert.Equal(t, "Helps out", p.Flag("description"))
	assert.Equal(t, "Be concise", p.Flag("behaviour"))
	assert.True(t, p.BoolFlag("shared"))
	assert.Equal(t, "notes.pdf", p.Flag("file"))
}

func TestArgParserBoolFlagDoesNotSwallowPositional(t *testing.T) {
	// --shared never takes a value, so the name after it stays positional
	p := NewArgParser([]string{"update", "--shared", "helper"})
	assert.True(t, p.BoolFlag("shared"))
	assert.Equal(t, "update", p.Subcommand())
	assert.Equal(t, "helper", p.Arg(1))
}

func TestArgParserExplicitBool(t *testing.T) {
	p := NewArgParser([]string{"--json=false", "--metadata=true"})
	assert.False(t, p.BoolFlag("json"))
	assert.True(t, p.BoolFlag("metadata"))
}

func TestArgParserMissingValues(t *testing.T) {
	p := NewArgParser([]string{"show"})
	assert.Equal(t, "", p.Flag("absent"))
	assert.False(t, p.BoolFlag("absent"))
	assert.Equal(t, "", p.Arg(5))
}

func TestChatCommandParsesFlags(t *testing.T) {
	cmd, p := Parse([]string{"chat", "helper", "--sync", "--no-markdown"})
	assert.Equal(t, CmdChat, cmd)
	assert.Equal(t, "helper", p.Arg(0))
	assert.True(t, p.BoolFlag("sync"))
	assert.True(t, p.BoolFlag("no-markdown"))
}
