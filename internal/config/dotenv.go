// Copyright (c) 2025 The umldraft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/umldraft/umldraft/internal/util"
)

// envKey is the environment variable holding the Groq API key.
const envKey = "GROQ_API_KEY"

// dotenvFiles are checked in order; the first that exists is loaded.
var dotenvFiles = []string{".env", ".env.local"}

// ErrNoAPIKey is returned when no key could be obtained.
var ErrNoAPIKey = errors.New("config: GROQ_API_KEY is required")

// =============================================================================
// DOTENV LOADING
// =============================================================================

// LoadEnv loads environment variables from the first dotenv file found in
// the working directory. Existing variables are never overridden, so an
// exported key always wins over the file.
func LoadEnv() {
	for _, name := range dotenvFiles {
		if _, err := os.Stat(name); err == nil {
			godotenv.Load(name)
			return
		}
	}
}

// APIKey returns the Groq API key from the environment, loading dotenv
// files first. Empty string when unset.
func APIKey() string {
	LoadEnv()
	return strings.TrimSpace(os.Getenv(envKey))
}

// =============================================================================
// KEY BOOTSTRAP
// =============================================================================

// EnsureAPIKey returns the API key, prompting on the given reader/writer
// when none is configured. A key entered at the prompt is persisted to
// .env so the next run starts without the question.
func EnsureAPIKey(in io.Reader, out io.Writer) (string, error) {
	if key := APIKey(); key != "" {
		return key, nil
	}

	fmt.Fprint(out, "Enter GROQ API key (create one for free at https://console.groq.com/keys): ")
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return "", ErrNoAPIKey
	}
	key := strings.TrimSpace(scanner.Text())
	if key == "" {
		return "", ErrNoAPIKey
	}

	if err := SaveKey(key, ".env"); err != nil {
		return "", err
	}
	os.Setenv(envKey, key)
	return key, nil
}

// SaveKey writes the API key into a dotenv file, replacing any previous
// GROQ_API_KEY line and preserving everything else.
func SaveKey(key, path string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("config: API key is empty")
	}

	var kept []string
	if data, err := os.ReadFile(path); err == nil {
		for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
			if strings.HasPrefix(line, envKey+"=") {
				continue
			}
			kept = append(kept, line)
		}
	}
	kept = append(kept, envKey+"="+key)

	content := strings.Join(kept, "\n") + "\n"
	if err := util.AtomicWriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("config: save API key: %w", err)
	}
	return nil
}
