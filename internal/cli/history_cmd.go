// history_cmd.go - Local usage history handler.
//
// Command: history
// Short:   Show recent chat activity from the local usage log
//
// Examples:
//   botdeck history              Show recent exchanges
//   botdeck history --limit 50   Show more of them
//   botdeck history totals       Per-chatbot totals
//   botdeck history clear        Wipe the local log
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strconv"

	"github.com/jeranaias/botdeck-tui/internal/config"
	"github.com/jeranaias/botdeck-tui/internal/history"
)

// HandleHistory dispatches the history subcommands.
func HandleHistory(_ *App, args *ArgParser) error {
	path, err := config.HistoryPath()
	if err != nil {
		return err
	}
	log, err := history.Open(path)
	if err != nil {
		return err
	}
	defer log.Close()

	switch args.Subcommand() {
	case "", "show", "recent":
		limit := 20
		if v := args.Flag("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				limit = n
			}
		}
		return historyRecent(log, limit)
	case "totals", "stats":
		return historyTotals(log)
	case "clear":
		if err := log.Clear(); err != nil {
			return err
		}
		PrintSuccess("history cleared")
		return nil
	default:
		return fmt.Errorf("unknown history subcommand %q (want show, totals or clear)", args.Subcommand())
	}
}

func historyRecent(log *history.Log, limit int) error {
	entries, err := log.Recent(limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no recorded activity yet")
		return nil
	}

	fmt.Println(TitleStyle.Render("Recent activity"))
	for _, e := range entries {
		mode := "sync"
		if e.Streamed {
			mode = "stream"
		}
		fmt.Printf("  %s  %-12s %-6s %6dms  %s\n",
			MutedStyle.Render(e.RecordedAt.Local().Format("2006-01-02 15:04")),
			ValueStyle.Render(e.ChatbotName),
			MutedStyle.Render(mode),
			e.Duration.Milliseconds(),
			e.PromptPreview)
	}
	return nil
}

func historyTotals(log *history.Log) error {
	totals, err := log.Totals()
	if err != nil {
		return err
	}
	if len(totals) == 0 {
		fmt.Println("no recorded activity yet")
		return nil
	}

	fmt.Println(TitleStyle.Render("Usage by chatbot"))
	for _, t := range totals {
		fmt.Printf("  %-16s %4d exchanges   last used %s\n",
			ValueStyle.Render(t.ChatbotName),
			t.Exchanges,
			MutedStyle.Render(t.LastUsed.Local().Format("2006-01-02 15:04")))
	}
	return nil
}
