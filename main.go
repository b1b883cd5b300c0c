// botdeck - a terminal client for chatbot management.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/botdeck-tui/internal/cli"
	"github.com/jeranaias/botdeck-tui/internal/config"
	"github.com/jeranaias/botdeck-tui/internal/history"
	"github.com/jeranaias/botdeck-tui/internal/storage"
	uichat "github.com/jeranaias/botdeck-tui/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse(os.Args[1:])

	switch cmd {
	case cli.CmdVersion:
		fmt.Printf("botdeck %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	case cli.CmdHelp:
		fmt.Print(cli.Usage())
		return
	}

	app, err := cli.NewApp()
	if err != nil {
		cli.PrintError("%v", err)
		os.Exit(1)
	}

	switch cmd {
	case cli.CmdTUI:
		err = runTUI(app)
	case cli.CmdLogin:
		err = cli.HandleLogin(app, args)
	case cli.CmdRegister:
		err = cli.HandleRegister(app, args)
	case cli.CmdLogout:
		err = cli.HandleLogout(app, args)
	case cli.CmdWhoami:
		err = cli.HandleWhoami(app, args)
	case cli.CmdBots:
		err = cli.HandleBots(app, args)
	case cli.CmdChat:
		err = cli.HandleChat(app, args)
	case cli.CmdExport:
		err = cli.HandleExport(app, args)
	case cli.CmdHistory:
		err = cli.HandleHistory(app, args)
	case cli.CmdConfig:
		err = cli.HandleConfig(app, args)
	}

	if err != nil {
		cli.PrintError("%v", err)
		os.Exit(1)
	}
}

// runTUI wires the full dependency set and hands control to Bubble Tea.
func runTUI(app *cli.App) error {
	deps := uichat.Deps{
		Config:   app.Config,
		Client:   app.Client,
		Auth:     app.Auth,
		Registry: app.NewRegistry(),
	}

	if dir, err := config.TranscriptsDir(); err == nil {
		deps.Store = storage.NewStore(dir)
	}
	if app.Config.HistoryEnabled {
		if path, err := config.HistoryPath(); err == nil {
			if log, err := history.Open(path); err == nil {
				deps.Usage = log
				defer log.Close()
			}
		}
	}

	program := tea.NewProgram(uichat.New(deps), tea.WithAltScreen())

	// Live config reload: edits to config.toml reach the running UI
	if path, err := config.ConfigPath(); err == nil {
		watcher, werr := config.NewWatcher(path, func(cfg *config.Config) {
			program.Send(uichat.ConfigReloadedMsg{Config: cfg})
		})
		if werr == nil {
			if werr := watcher.Watch(); werr == nil {
				defer watcher.Close()
			}
		}
	}

	_, err := program.Run()
	return err
}
