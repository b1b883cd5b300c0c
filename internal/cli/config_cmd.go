// config_cmd.go - Configuration command handler.
//
// Command: config
// Short:   Show and edit the botdeck configuration
//
// Examples:
//   botdeck config                       Show current configuration
//   botdeck config get server_url        Read one value
//   botdeck config set theme dark        Write one value
//   botdeck config path                  Print the config file location
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/jeranaias/botdeck-tui/internal/config"
)

// HandleConfig dispatches the config subcommands.
func HandleConfig(app *App, args *ArgParser) error {
	switch args.Subcommand() {
	case "", "show":
		return configShow(app.Config)
	case "get":
		key := args.Arg(1)
		if key == "" {
			return fmt.Errorf("usage: botdeck config get KEY")
		}
		value, err := app.Config.Get(key)
		if err != nil {
			return err
		}
		fmt.Println(value)
		return nil
	case "set":
		key, value := args.Arg(1), args.Arg(2)
		if key == "" {
			return fmt.Errorf("usage: botdeck config set KEY VALUE")
		}
		if err := app.Config.Set(key, value); err != nil {
			return err
		}
		if err := config.Save(app.Config); err != nil {
			return err
		}
		PrintSuccess("%s = %s", key, value)
		return nil
	case "path":
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	default:
		return fmt.Errorf("unknown config subcommand %q (want show, get, set or path)", args.Subcommand())
	}
}

func configShow(cfg *config.Config) error {
	fmt.Println(TitleStyle.Render("Configuration"))
	for _, key := range config.Keys() {
		value, err := cfg.Get(key)
		if err != nil {
			continue
		}
		if value == "" {
			value = MutedStyle.Render("(unset)")
		}
		fmt.Printf("%s %s\n", LabelStyle.Render(key), ValueStyle.Render(value))
	}
	return nil
}
