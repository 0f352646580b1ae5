// Copyright (c) 2025 The umldraft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package plantuml extracts PlantUML diagram definitions from free-form
// model output and renders them through a PlantUML server.
package plantuml

import (
	"strings"
)

// Diagram markers. Matching is case-sensitive.
const (
	StartMarker = "@startuml"
	EndMarker   = "@enduml"
)

// =============================================================================
// EXTRACTED DIAGRAM
// =============================================================================

// Diagram is a single diagram definition extracted from surrounding text.
type Diagram struct {
	// Source is the diagram definition with the markers stripped and
	// leading/trailing blank lines removed. Never whitespace-only.
	Source string

	// Start and End are byte offsets of the full matched region
	// (markers included) in the input text.
	Start int
	End   int
}

// Wrapped returns the source re-wrapped with the start/end markers,
// ready for rendering.
func (d Diagram) Wrapped() string {
	return StartMarker + "\n" + d.Source + "\n" + EndMarker
}

// =============================================================================
// EXTRACTION
// =============================================================================

// Extract scans text for non-overlapping @startuml...@enduml regions and
// returns them in the order they appear.
//
// Markers only count on a word boundary: start of text, start of line, or
// surrounded by whitespace. Prose that merely mentions "@startuml" inside a
// longer token never matches. A start marker with no following end marker
// is dropped silently - diagrams are optional content in assistant replies,
// not a required contract. Regions whose content is whitespace-only are
// filtered out. Re-scanning identical text yields identical results.
func Extract(text string) []Diagram {
	var diagrams []Diagram

	pos := 0
	for {
		start := indexMarker(text, StartMarker, pos)
		if start < 0 {
			break
		}

		innerStart := start + len(StartMarker)
		endMarker := indexMarker(text, EndMarker, innerStart)
		if endMarker < 0 {
			// Unterminated region: drop and stop scanning. Anything after
			// an unmatched start marker belongs to that region.
			break
		}
		end := endMarker + len(EndMarker)

		source := trimBlankLines(text[innerStart:endMarker])
		if strings.TrimSpace(source) != "" {
			diagrams = append(diagrams, Diagram{
				Source: source,
				Start:  start,
				End:    end,
			})
		}

		pos = end
	}

	return diagrams
}

// indexMarker returns the offset of the first boundary-respecting
// occurrence of marker at or after from, or -1.
func indexMarker(text, marker string, from int) int {
	for from <= len(text)-len(marker) {
		i := strings.Index(text[from:], marker)
		if i < 0 {
			return -1
		}
		i += from
		if onBoundary(text, i, len(marker)) {
			return i
		}
		from = i + 1
	}
	return -1
}

// onBoundary reports whether the token at [i, i+n) is delimited by
// whitespace (or text edges) on both sides.
func onBoundary(text string, i, n int) bool {
	if i > 0 && !isSpace(text[i-1]) {
		return false
	}
	if end := i + n; end < len(text) && !isSpace(text[end]) {
		return false
	}
	return true
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// trimBlankLines removes leading and trailing whitespace-only lines while
// preserving interior indentation.
func trimBlankLines(s string) string {
	lines := strings.Split(s, "\n")

	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	end := len(lines)
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}

	return strings.Join(lines[start:end], "\n")
}
