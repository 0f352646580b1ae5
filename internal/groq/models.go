// Copyright (c) 2025 The umldraft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package groq

// DefaultModel is the model used when the user has not picked one.
const DefaultModel = "gemma2-9b-it"

// TextModels is the set of Groq-hosted chat models the assistant accepts.
// Kept as an explicit allow list so typos fail fast instead of burning a
// round trip to the API.
var TextModels = map[string]bool{
	"gemma2-9b-it":                  true,
	"llama-3.1-8b-instant":          true,
	"llama-3.3-70b-versatile":       true,
	"deepseek-r1-distill-llama-70b": true,
	"qwen/qwen3-32b":                true,
	"mixtral-8x7b-32768":            true,
}

// KnownModels returns the accepted model identifiers in no particular order.
func KnownModels() []string {
	models := make([]string, 0, len(TextModels))
	for m := range TextModels {
		models = append(models, m)
	}
	return models
}
