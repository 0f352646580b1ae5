// Copyright (c) 2025 The umldraft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the umldraft command line interface.
//
// Subcommands:
//
//	chat     Interactive diagram assistant (default)
//	render   Render PlantUML from a file or stdin
//	models   List available chat models
//	version  Print the version
package cli

import (
	"fmt"

	"github.com/umldraft/umldraft/internal/config"
)

// Version is the umldraft release version.
const Version = "0.1.0"

// Run dispatches a subcommand. An empty or unknown-first argument starts
// the chat REPL, so plain "umldraft" just works.
func Run(rawArgs []string) error {
	config.LoadEnv()

	args := NewArgParser(rawArgs)

	switch args.Subcommand() {
	case "", "chat":
		return HandleChatCommand(args)
	case "render":
		return HandleRenderCommand(args)
	case "models":
		return HandleModelsCommand(args)
	case "version":
		fmt.Println("umldraft " + Version)
		return nil
	case "help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", args.Subcommand())
	}
}

func printUsage() {
	fmt.Println(`umldraft - chat assistant that turns descriptions into UML diagrams

Usage:
  umldraft [chat] [flags]     Start an interactive session
  umldraft render [FILE]      Render PlantUML from FILE or stdin
  umldraft models [--remote]  List chat models
  umldraft version            Print the version

Chat flags:
  -m, --model NAME     Chat model (overrides config)
  -f, --format FMT     Image format: png or svg
      --server URL     PlantUML server base URL
      --no-fetch       Print URLs only, skip image downloads
      --color=BOOL     Force color on or off (default from config)
      --markdown=BOOL  Render replies as markdown (default from config)
  -v, --verbose        Log API requests to stderr`)
}
