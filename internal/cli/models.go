// Copyright (c) 2025 The umldraft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// models.go - List available chat models.

package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/umldraft/umldraft/internal/config"
	"github.com/umldraft/umldraft/internal/groq"
)

// HandleModelsCommand lists models. With --remote it queries the Groq API;
// otherwise it prints the locally accepted list without a network call.
func HandleModelsCommand(args *ArgParser) error {
	if !args.BoolFlag("remote") {
		models := groq.KnownModels()
		sort.Strings(models)
		for _, m := range models {
			if m == groq.DefaultModel {
				fmt.Printf("%s %s\n", m, infoStyle.Render("(default)"))
			} else {
				fmt.Println(m)
			}
		}
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyUIConfig(cfg.UI)
	apiKey := cfg.Groq.APIKey
	if apiKey == "" {
		apiKey = config.APIKey()
	}

	client := groq.NewClient(apiKey)
	models, err := client.ListModels(context.Background())
	if err != nil {
		return err
	}

	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	for _, m := range models {
		fmt.Printf("%-45s %s\n", m.ID, infoStyle.Render(m.OwnedBy))
	}
	return nil
}
