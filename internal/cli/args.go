// args.go - Argument parsing for all botdeck CLI commands.
//
// Each command shares one parser so flags behave identically
// everywhere: --flag value, --flag=value, -f value, and bare boolean
// flags.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdLogin
	CmdRegister
	CmdLogout
	CmdWhoami
	CmdBots
	CmdChat
	CmdExport
	CmdHistory
	CmdConfig
	CmdVersion
	CmdHelp
)

const usageText = `botdeck - terminal client for chatbot management

Botdeck talks to a chatbot backend: manage your bot personas,
chat with them (streamed or sync), and export transcripts.

Usage:
  botdeck                          Start TUI (default)
  botdeck login                    Log in and persist the session
  botdeck register                 Create an account
  botdeck logout                   Log out and clear the local session
  botdeck whoami                   Show the authenticated user
  botdeck bots [list]              List available chatbots
  botdeck bots create NAME         Create a chatbot
  botdeck bots update NAME         Update a chatbot
  botdeck bots delete NAME         Delete a chatbot
  botdeck chat [NAME]              Interactive chat with a chatbot
  botdeck export ID                Export a saved transcript
  botdeck history [totals|clear]   Show local usage history
  botdeck config [show|get|set]    Configuration
  botdeck version                  Show version
  botdeck help                     Show this help

Chat flags:
  --sync                 Disable streaming for this session
  --no-markdown          Print replies without markdown rendering

Bots create/update flags:
  --description TEXT     Short description
  --behaviour TEXT       System behaviour prompt
  --context TEXT         Extra user context
  --file PATH            Attach a knowledge file (pdf, txt, jpeg, mp3, mp4)
  --remove-file          Drop the existing attachment (update only)
  --shared               Make the chatbot visible to other users

Export flags:
  --format txt|md        Output format (default md)
  --out DIR              Output directory
  --metadata             Include a metadata header (md only)

Environment:
  BOTDECK_SERVER_URL     Backend base URL
  BOTDECK_CHATBOT        Default chatbot for chat
  BOTDECK_STREAMING      true/false
`

// Usage returns the top-level help text.
func Usage() string {
	return usageText
}

// =============================================================================
// ARG PARSER
// =============================================================================

// ArgParser provides unified argument parsing for CLI commands.
// It handles long flags (--flag value, --flag=value), short flags
// (-f value), boolean flags, and positional arguments. The first
// positional argument is the subcommand.
type ArgParser struct {
	subcommand string
	flags      map[string]string
	boolFlags  map[string]bool
	positional []string
	raw        []string
}

// NewArgParser creates a parser from raw arguments.
func NewArgParser(raw []string) *ArgParser {
	parser := &ArgParser{
		flags:      make(map[string]string),
		boolFlags:  make(map[string]bool),
		positional: make([]string, 0),
		raw:        raw,
	}

	i := 0
	for i < len(raw) {
		arg := raw[i]

		if strings.HasPrefix(arg, "-") {
			// --flag=value form
			if strings.Contains(arg, "=") {
				parts := strings.SplitN(arg, "=", 2)
				name := strings.TrimLeft(parts[0], "-")
				value := parts[1]
				if value == "true" || value == "false" {
					parser.boolFlags[name] = value == "true"
				} else {
					parser.flags[name] = value
				}
				i++
				continue
			}

			name := strings.TrimLeft(arg, "-")
			if i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-") && !isBoolFlag(name) {
				parser.flags[name] = raw[i+1]
				i += 2
			} else {
				parser.boolFlags[name] = true
				i++
			}
		} else {
			parser.positional = append(parser.positional, arg)
			i++
		}
	}

	if len(parser.positional) > 0 {
		parser.subcommand = parser.positional[0]
	}
	return parser
}

// isBoolFlag names flags that never take a value, so a positional
// argument after them is not swallowed (e.g. `--shared mybot`).
func isBoolFlag(name string) bool {
	switch name {
	case "shared", "remove-file", "sync", "no-markdown", "metadata", "json", "quiet", "q", "verbose", "v":
		return true
	}
	return false
}

// Subcommand returns the first positional argument, or "".
func (p *ArgParser) Subcommand() string {
	return p.subcommand
}

// Flag returns the value of a string flag, or "".
func (p *ArgParser) Flag(name string) string {
	return p.flags[strings.TrimLeft(name, "-")]
}

// HasFlag reports whether a string flag was given.
func (p *ArgParser) HasFlag(name string) bool {
	_, ok := p.flags[strings.TrimLeft(name, "-")]
	return ok
}

// BoolFlag reports whether a boolean flag was given.
func (p *ArgParser) BoolFlag(name string) bool {
	return p.boolFlags[strings.TrimLeft(name, "-")]
}

// Positional returns all positional arguments, subcommand included.
func (p *ArgParser) Positional() []string {
	return p.positional
}

// Arg returns the i-th positional argument, or "".
func (p *ArgParser) Arg(i int) string {
	if i < 0 || i >= len(p.positional) {
		return ""
	}
	return p.positional[i]
}

// =============================================================================
// COMMAND DISPATCH
// =============================================================================

// Parse maps os.Args-style input (program name excluded) to a command
// and a parser over the remaining arguments.
func Parse(argv []string) (Command, *ArgParser) {
	if len(argv) == 0 {
		return CmdTUI, NewArgParser(nil)
	}

	cmd := strings.ToLower(argv[0])
	rest := argv[1:]

	switch cmd {
	case "login":
		return CmdLogin, NewArgParser(rest)
	case "register", "signup":
		return CmdRegister, NewArgParser(rest)
	case "logout":
		return CmdLogout, NewArgParser(rest)
	case "whoami":
		return CmdWhoami, NewArgParser(rest)
	case "bots", "bot", "chatbots":
		return CmdBots, NewArgParser(rest)
	case "chat":
		return CmdChat, NewArgParser(rest)
	case "export":
		return CmdExport, NewArgParser(rest)
	case "history":
		return CmdHistory, NewArgParser(rest)
	case "config":
		return CmdConfig, NewArgParser(rest)
	case "version", "--version", "-V":
		return CmdVersion, NewArgParser(rest)
	case "help", "--help", "-h":
		return CmdHelp, NewArgParser(rest)
	default:
		// Unknown word falls through to help rather than the TUI, so a
		// typo does not silently start a full-screen session
		return CmdHelp, NewArgParser(argv)
	}
}
