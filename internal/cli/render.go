// Copyright (c) 2025 The umldraft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// render.go - One-shot diagram rendering from a file or stdin.
//
// Examples:
//   umldraft render diagram.puml              Render a PlantUML file
//   umldraft render --format svg diagram.puml Render as SVG
//   cat notes.md | umldraft render            Extract and render from stdin
//   umldraft render --out ./img diagram.puml  Save the image under ./img

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/umldraft/umldraft/internal/config"
	"github.com/umldraft/umldraft/internal/plantuml"
)

// HandleRenderCommand renders diagrams from a file argument or stdin
// without starting a chat session.
func HandleRenderCommand(args *ArgParser) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyUIConfig(cfg.UI)

	formatName := cfg.PlantUML.Format
	if f := args.Flag("format", "f"); f != "" {
		formatName = f
	}
	format, err := plantuml.ParseFormat(formatName)
	if err != nil {
		return err
	}

	text, err := readRenderInput(args)
	if err != nil {
		return err
	}

	// A file that is pure PlantUML needs no markers; mixed text does.
	sources := diagramSources(text)
	if len(sources) == 0 {
		return errors.New("no diagram found in input")
	}

	renderer := plantuml.NewRenderer().WithBaseURL(cfg.PlantUML.ServerURL)
	if s := args.Flag("server"); s != "" {
		renderer = renderer.WithBaseURL(s)
	}

	outputDir := args.Flag("out", "o")
	if outputDir == "" && cfg.PlantUML.FetchImages && !args.BoolFlag("no-fetch") {
		outputDir, err = cfg.DiagramDir()
		if err != nil {
			return err
		}
	}
	if args.BoolFlag("no-fetch") {
		outputDir = ""
	}

	ctx := context.Background()
	for i, source := range sources {
		result, err := renderer.Render(ctx, plantuml.Request{
			Source:    source,
			Format:    format,
			OutputDir: outputDir,
		})
		if err != nil {
			return fmt.Errorf("diagram %d: %w", i+1, err)
		}
		displayRenderResult(i+1, result)
	}
	return nil
}

// readRenderInput reads the diagram text from the positional file
// argument, or from stdin when none is given.
func readRenderInput(args *ArgParser) (string, error) {
	positional := args.Positional()
	// Positional[0] is the "render" subcommand itself.
	if len(positional) > 1 {
		data, err := os.ReadFile(positional[1])
		if err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return string(data), nil
	}

	if IsTTY() {
		return "", errors.New("no input: pass a file or pipe text on stdin")
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

// diagramSources extracts marked diagrams from text, falling back to the
// whole text as a single diagram when it carries no markers.
func diagramSources(text string) []string {
	if diagrams := plantuml.Extract(text); len(diagrams) > 0 {
		sources := make([]string, len(diagrams))
		for i, d := range diagrams {
			sources[i] = d.Source
		}
		return sources
	}

	if len(text) > 0 && len(plantuml.Extract(plantuml.StartMarker+"\n"+text+"\n"+plantuml.EndMarker)) > 0 {
		return []string{text}
	}
	return nil
}
