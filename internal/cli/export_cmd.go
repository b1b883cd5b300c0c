// export_cmd.go - Transcript export handler.
//
// Command: export
// Short:   Export a saved transcript to txt or markdown
//
// Examples:
//   botdeck export                        List saved transcripts
//   botdeck export CONVERSATION_ID        Export as markdown
//   botdeck export ID --format txt        Export as plain text
//   botdeck export ID --out ~/notes       Choose the output directory
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/jeranaias/botdeck-tui/internal/config"
	"github.com/jeranaias/botdeck-tui/internal/export"
	"github.com/jeranaias/botdeck-tui/internal/storage"
)

// HandleExport exports a saved transcript, or lists them when no id is
// given.
func HandleExport(app *App, args *ArgParser) error {
	dir, err := config.TranscriptsDir()
	if err != nil {
		return err
	}
	store := storage.NewStore(dir)

	id := args.Arg(0)
	if id == "" {
		return exportList(store)
	}

	conv, err := store.Load(id)
	if err != nil {
		return err
	}

	var exporter export.Exporter
	switch format := args.Flag("format"); format {
	case "", "md", "markdown":
		exporter = export.NewMarkdownExporter(&export.Options{IncludeMetadata: args.BoolFlag("metadata")})
	case "txt", "text":
		exporter = export.NewTextExporter()
	default:
		return fmt.Errorf("unknown format %q (want txt or md)", format)
	}

	opts := export.DefaultOptions()
	if out := args.Flag("out"); out != "" {
		opts.OutputDir = out
	} else if app.Config.ExportDir != "" {
		opts.OutputDir = app.Config.ExportDir
	}
	opts.IncludeMetadata = args.BoolFlag("metadata")

	path, err := export.ExportToFile(conv, exporter, opts)
	if err != nil {
		return err
	}
	PrintSuccess("exported to %s", path)
	return nil
}

func exportList(store *storage.Store) error {
	metas, err := store.List()
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		fmt.Println("no saved transcripts; finish a chat session first")
		return nil
	}

	fmt.Println(TitleStyle.Render("Saved transcripts"))
	for _, meta := range metas {
		fmt.Printf("  %s  %s  %2d turns  %s\n",
			ValueStyle.Bold(true).Render(meta.ID),
			MutedStyle.Render(meta.Saved.Format("2006-01-02 15:04")),
			meta.TurnCount,
			MutedStyle.Render(meta.ChatbotName))
		if meta.Preview != "" {
			fmt.Printf("      %s\n", MutedStyle.Render(meta.Preview))
		}
	}
	return nil
}
