// bots_cmd.go - Chatbot registry management.
//
// Command: bots
// Short:   List, create, update and delete chatbots
//
// Examples:
//   botdeck bots                          List your chatbots
//   botdeck bots create helper --description "Helps out" --file notes.pdf
//   botdeck bots update helper --behaviour "Be concise" --shared
//   botdeck bots update helper --remove-file
//   botdeck bots delete helper
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/botdeck-tui/internal/model"
	"github.com/jeranaias/botdeck-tui/internal/registry"
	"github.com/jeranaias/botdeck-tui/internal/util"
)

// HandleBots dispatches the bots subcommands.
func HandleBots(app *App, args *ArgParser) error {
	ctx := context.Background()
	if err := app.RequireAuth(ctx); err != nil {
		return err
	}
	reg := app.NewRegistry()

	switch args.Subcommand() {
	case "", "list", "ls":
		return botsList(ctx, reg)
	case "create", "add":
		return botsCreate(ctx, app, reg, args)
	case "update", "edit":
		return botsUpdate(ctx, reg, args)
	case "delete", "rm":
		return botsDelete(ctx, reg, args)
	default:
		return fmt.Errorf("unknown bots subcommand %q (want list, create, update or delete)", args.Subcommand())
	}
}

func botsList(ctx context.Context, reg *registry.Registry) error {
	if err := reg.Load(ctx, false); err != nil {
		return err
	}

	bots := reg.List()
	if len(bots) == 0 {
		fmt.Println("no chatbots yet; create one with `botdeck bots create NAME`")
		return nil
	}

	fmt.Println(TitleStyle.Render("Chatbots"))
	for _, bot := range bots {
		shared := " "
		if bot.Shared {
			shared = MutedStyle.Render("(shared)")
		}
		desc := util.TruncateRunes(util.FirstLine(bot.Description), 60)
		fmt.Printf("  %s %s\n", ValueStyle.Bold(true).Render(bot.Name), shared)
		if desc != "" {
			fmt.Printf("    %s\n", MutedStyle.Render(desc))
		}
	}
	return nil
}

func botsCreate(ctx context.Context, app *App, reg *registry.Registry, args *ArgParser) error {
	name := args.Arg(1)
	if name == "" {
		return fmt.Errorf("usage: botdeck bots create NAME [flags]")
	}

	owner := ""
	if u := app.Auth.User(); u != nil {
		owner = u.ID
	}
	bot := model.NewChatbot(owner)
	bot.Name = name
	applyBotFlags(bot, args)

	if path := args.Flag("file"); path != "" {
		att, err := attachmentFromPath(path)
		if err != nil {
			return err
		}
		bot.Pending = att
	}

	saved, err := reg.Save(ctx, bot)
	if err != nil {
		return err
	}
	PrintSuccess("created chatbot %s", saved.Name)
	return nil
}

func botsUpdate(ctx context.Context, reg *registry.Registry, args *ArgParser) error {
	name := args.Arg(1)
	if name == "" {
		return fmt.Errorf("usage: botdeck bots update NAME [flags]")
	}
	if err := reg.Load(ctx, false); err != nil {
		return err
	}

	existing, ok := reg.GetByName(name)
	if !ok {
		return fmt.Errorf("unknown chatbot %q", name)
	}

	bot := existing.Clone()
	applyBotFlags(bot, args)
	if args.BoolFlag("remove-file") {
		bot.RemoveFile = true
	}
	if path := args.Flag("file"); path != "" {
		att, err := attachmentFromPath(path)
		if err != nil {
			return err
		}
		bot.Pending = att
	}

	saved, err := reg.Save(ctx, bot)
	if err != nil {
		return err
	}
	PrintSuccess("updated chatbot %s", saved.Name)
	return nil
}

func botsDelete(ctx context.Context, reg *registry.Registry, args *ArgParser) error {
	name := args.Arg(1)
	if name == "" {
		return fmt.Errorf("usage: botdeck bots delete NAME")
	}
	if err := reg.Load(ctx, false); err != nil {
		return err
	}

	bot, ok := reg.GetByName(name)
	if !ok {
		return fmt.Errorf("unknown chatbot %q", name)
	}
	if err := reg.Delete(ctx, bot.ID); err != nil {
		return err
	}
	PrintSuccess("deleted chatbot %s", name)
	return nil
}

// applyBotFlags copies the editor flags onto the chatbot. Absent flags
// leave the existing values alone, so update changes only what was
// given.
func applyBotFlags(bot *model.Chatbot, args *ArgParser) {
	if args.HasFlag("description") {
		bot.Description = args.Flag("description")
	}
	if args.HasFlag("behaviour") {
		bot.Behaviour = args.Flag("behaviour")
	}
	if args.HasFlag("context") {
		bot.Context = args.Flag("context")
	}
	if args.BoolFlag("shared") {
		bot.Shared = true
	}
}

// extensionMIME maps accepted file extensions to their upload types.
var extensionMIME = map[string]string{
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".mp3":  "audio/mpeg",
	".mp4":  "video/mp4",
}

// attachmentFromPath builds a validated attachment from a local file.
func attachmentFromPath(path string) (*model.Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read attachment: %w", err)
	}

	mime, ok := extensionMIME[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, model.ErrAttachmentType
	}

	att := &model.Attachment{
		Path: path,
		Name: filepath.Base(path),
		Size: info.Size(),
		MIME: mime,
	}
	if err := att.Validate(); err != nil {
		return nil, err
	}
	return att, nil
}
