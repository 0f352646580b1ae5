// Copyright (c) 2025 The umldraft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Groq.Model != "gemma2-9b-it" {
		t.Errorf("Groq.Model = %q", cfg.Groq.Model)
	}
	if cfg.PlantUML.ServerURL != "https://www.plantuml.com/plantuml" {
		t.Errorf("PlantUML.ServerURL = %q", cfg.PlantUML.ServerURL)
	}
	if cfg.Memory.MaxMessages != 20 {
		t.Errorf("Memory.MaxMessages = %d", cfg.Memory.MaxMessages)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Groq.Model != Default().Groq.Model {
		t.Errorf("Groq.Model = %q", cfg.Groq.Model)
	}
}

func TestLoadFromPath_PartialFileBackfilled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[plantuml]
format = "svg"

[memory]
max_messages = 5
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.PlantUML.Format != "svg" {
		t.Errorf("Format = %q, want svg", cfg.PlantUML.Format)
	}
	if cfg.Memory.MaxMessages != 5 {
		t.Errorf("MaxMessages = %d, want 5", cfg.Memory.MaxMessages)
	}
	// Untouched sections fall back to defaults.
	if cfg.Groq.TimeoutSecs != 60 {
		t.Errorf("TimeoutSecs = %d, want 60", cfg.Groq.TimeoutSecs)
	}
}

func TestLoadFromPath_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[groq\nbroken"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromPath(path); err == nil {
		t.Error("malformed config accepted")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_from_env")
	t.Setenv("UMLDRAFT_MODEL", "llama-3.1-8b-instant")
	t.Setenv("PLANTUML_SERVER_URL", "http://localhost:8080/plantuml")
	t.Setenv("UMLDRAFT_MAX_MESSAGES", "7")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Groq.APIKey != "gsk_from_env" {
		t.Errorf("APIKey = %q", cfg.Groq.APIKey)
	}
	if cfg.Groq.Model != "llama-3.1-8b-instant" {
		t.Errorf("Model = %q", cfg.Groq.Model)
	}
	if cfg.PlantUML.ServerURL != "http://localhost:8080/plantuml" {
		t.Errorf("ServerURL = %q", cfg.PlantUML.ServerURL)
	}
	if cfg.Memory.MaxMessages != 7 {
		t.Errorf("MaxMessages = %d", cfg.Memory.MaxMessages)
	}
}

func TestGroqTemperature_ZeroHonored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[groq]
temperature = 0.0
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if got := cfg.GroqTemperature(); got != 0 {
		t.Errorf("GroqTemperature = %v, want explicit 0 preserved", got)
	}
}

func TestGroqTemperature_DefaultWhenAbsent(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if got := cfg.GroqTemperature(); got != 0.2 {
		t.Errorf("GroqTemperature = %v, want default 0.2", got)
	}

	var zero Config
	if got := zero.GroqTemperature(); got != 0.2 {
		t.Errorf("zero-value GroqTemperature = %v, want default 0.2", got)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.PlantUML.Format = "jpeg"
	if err := cfg.Validate(); err == nil {
		t.Error("jpeg format accepted")
	}

	cfg = Default()
	cfg.Memory.MaxMessages = -1
	if err := cfg.Validate(); err == nil {
		t.Error("negative window accepted")
	}

	cfg = Default()
	bad := -0.5
	cfg.Groq.Temperature = &bad
	if err := cfg.Validate(); err == nil {
		t.Error("negative temperature accepted")
	}
}

func TestSaveToPath_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Groq.Model = "llama-3.3-70b-versatile"
	cfg.PlantUML.Format = "svg"

	if err := SaveToPath(cfg, path); err != nil {
		t.Fatalf("SaveToPath failed: %v", err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if loaded.Groq.Model != "llama-3.3-70b-versatile" {
		t.Errorf("Model = %q", loaded.Groq.Model)
	}
	if loaded.PlantUML.Format != "svg" {
		t.Errorf("Format = %q", loaded.PlantUML.Format)
	}
}

// =============================================================================
// DOTENV TESTS
// =============================================================================

func TestSaveKey_PreservesOtherLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	initial := "OTHER_VAR=keep\nGROQ_API_KEY=gsk_old\nANOTHER=also\n"
	if err := os.WriteFile(path, []byte(initial), 0600); err != nil {
		t.Fatal(err)
	}

	if err := SaveKey("gsk_new_key", path); err != nil {
		t.Fatalf("SaveKey failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.Contains(content, "OTHER_VAR=keep") || !strings.Contains(content, "ANOTHER=also") {
		t.Errorf("other lines lost: %q", content)
	}
	if strings.Contains(content, "gsk_old") {
		t.Errorf("old key retained: %q", content)
	}
	if !strings.Contains(content, "GROQ_API_KEY=gsk_new_key") {
		t.Errorf("new key missing: %q", content)
	}
}

func TestSaveKey_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := SaveKey("gsk_fresh", path); err != nil {
		t.Fatalf("SaveKey failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "GROQ_API_KEY=gsk_fresh\n" {
		t.Errorf("content = %q", string(data))
	}
}

func TestSaveKey_EmptyRejected(t *testing.T) {
	if err := SaveKey("  ", filepath.Join(t.TempDir(), ".env")); err == nil {
		t.Error("empty key accepted")
	}
}

func TestEnsureAPIKey_FromEnvironment(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_already_set")
	key, err := EnsureAPIKey(strings.NewReader(""), &strings.Builder{})
	if err != nil {
		t.Fatalf("EnsureAPIKey failed: %v", err)
	}
	if key != "gsk_already_set" {
		t.Errorf("key = %q", key)
	}
}

func TestEnsureAPIKey_PromptsAndSaves(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	t.Chdir(t.TempDir())

	var out strings.Builder
	key, err := EnsureAPIKey(strings.NewReader("gsk_typed_in\n"), &out)
	if err != nil {
		t.Fatalf("EnsureAPIKey failed: %v", err)
	}
	if key != "gsk_typed_in" {
		t.Errorf("key = %q", key)
	}
	if !strings.Contains(out.String(), "console.groq.com") {
		t.Error("prompt missing")
	}

	data, err := os.ReadFile(".env")
	if err != nil {
		t.Fatalf("key not persisted: %v", err)
	}
	if !strings.Contains(string(data), "GROQ_API_KEY=gsk_typed_in") {
		t.Errorf(".env content = %q", string(data))
	}
}

func TestEnsureAPIKey_NoInput(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	t.Chdir(t.TempDir())

	if _, err := EnsureAPIKey(strings.NewReader("\n"), &strings.Builder{}); err == nil {
		t.Error("blank prompt input accepted")
	}
}
