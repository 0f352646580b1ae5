// Copyright (c) 2025 The umldraft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Centralized styling for umldraft CLI output.

package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/umldraft/umldraft/internal/config"
)

func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// applyUIConfig applies the ui section of the loaded config: ui.color =
// false forces plain output even on a capable terminal, and ui.word_wrap
// sets the markdown rendering width. Called once per command after the
// config is loaded.
func applyUIConfig(ui config.UIConfig) {
	if !ui.Color {
		lipgloss.SetColorProfile(termenv.Ascii)
	} else {
		lipgloss.SetColorProfile(GetColorProfile())
	}
	configureMarkdown(ui.WordWrap)
}

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// promptStyle renders the REPL prompt.
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")). // Cyan
			Bold(true)

	// welcomeStyle renders the startup banner.
	welcomeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")). // Purple
			Bold(true)

	// infoStyle renders secondary information lines.
	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")) // Light gray

	// commandStyle renders slash command names in help text.
	commandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")) // Green

	// errorStyle renders error prefixes.
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")). // Red
			Bold(true)

	// warningStyle renders degraded-result warnings.
	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // Amber

	// diagramStyle renders diagram URL labels.
	diagramStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")). // Cyan
			Bold(true)

	// labelStyle renders field labels in status output.
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(14)
)
