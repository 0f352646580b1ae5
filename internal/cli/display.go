// Copyright (c) 2025 The umldraft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// display.go - Markdown rendering and diagram result output.

package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"

	"github.com/umldraft/umldraft/internal/plantuml"
)

// markdownRenderer is the shared glamour renderer for assistant replies.
var markdownRenderer *glamour.TermRenderer

func init() {
	configureMarkdown(DefaultTerminalWidth)
}

// configureMarkdown rebuilds the markdown renderer at the given wrap
// width, clamped to the actual terminal so a wide config setting never
// wraps past the screen. Zero or negative falls back to the default.
func configureMarkdown(wordWrap int) {
	if wordWrap <= 0 {
		wordWrap = DefaultTerminalWidth
	}
	if w := GetTerminalWidth(); w < wordWrap {
		wordWrap = w
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		// Plain text fallback when the renderer cannot initialize.
		markdownRenderer = nil
		return
	}
	markdownRenderer = renderer
}

// renderMarkdown renders markdown for terminal display. Returns the input
// unchanged when rendering is unavailable or fails.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// displayResponse prints an assistant reply, as markdown on a TTY and
// verbatim otherwise so piped output stays clean.
func displayResponse(response string, markdown bool) {
	if markdown && IsStdoutTTY() {
		fmt.Print(renderMarkdown(response))
		return
	}
	fmt.Println(response)
}

// displayRenderResult prints the URLs (and saved path) for one rendered
// diagram. n is the 1-based index within the reply.
func displayRenderResult(n int, result *plantuml.Result) {
	fmt.Println(diagramStyle.Render(fmt.Sprintf("Diagram %d", n)))
	fmt.Printf("  %s %s\n", labelStyle.Render("Image:"), result.ImageURL)
	fmt.Printf("  %s %s\n", labelStyle.Render("Editor:"), result.EditorURL)
	if result.Saved() {
		fmt.Printf("  %s %s\n", labelStyle.Render("Saved:"), result.LocalPath)
	}
	if result.Degraded() {
		fmt.Fprintf(os.Stderr, "  %s image fetch failed: %v\n",
			warningStyle.Render("[Warning]"), result.FetchErr)
	}
}
