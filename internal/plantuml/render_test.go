// Copyright (c) 2025 The umldraft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package plantuml

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// =============================================================================
// RENDER TESTS
// =============================================================================

func TestRender_URLOnly(t *testing.T) {
	r := NewRenderer()

	result, err := r.Render(context.Background(), Request{Source: "A -> B: hello"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if !strings.HasPrefix(result.ImageURL, DefaultServerURL+"/png/") {
		t.Errorf("ImageURL = %q", result.ImageURL)
	}
	if !strings.HasPrefix(result.EditorURL, DefaultServerURL+"/uml/") {
		t.Errorf("EditorURL = %q", result.EditorURL)
	}
	if result.LocalPath != "" {
		t.Errorf("LocalPath = %q, want empty without OutputDir", result.LocalPath)
	}
	if result.Degraded() {
		t.Errorf("unexpected FetchErr: %v", result.FetchErr)
	}
	if len(result.Fingerprint) != 12 {
		t.Errorf("Fingerprint = %q, want 12 chars", result.Fingerprint)
	}
}

func TestRender_Deterministic(t *testing.T) {
	r := NewRenderer()

	first, err := r.Render(context.Background(), Request{Source: "A -> B"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	second, err := r.Render(context.Background(), Request{Source: "A -> B"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if first.Token != second.Token {
		t.Errorf("tokens differ: %q vs %q", first.Token, second.Token)
	}
	if first.ImageURL != second.ImageURL {
		t.Errorf("image URLs differ")
	}
	if first.Fingerprint != second.Fingerprint {
		t.Errorf("fingerprints differ")
	}
}

func TestRender_FormatsShareEverythingButImageURL(t *testing.T) {
	r := NewRenderer()

	png, err := r.Render(context.Background(), Request{Source: "A -> B", Format: FormatPNG})
	if err != nil {
		t.Fatalf("Render png failed: %v", err)
	}
	svg, err := r.Render(context.Background(), Request{Source: "A -> B", Format: FormatSVG})
	if err != nil {
		t.Fatalf("Render svg failed: %v", err)
	}

	if png.Token != svg.Token {
		t.Errorf("tokens differ across formats")
	}
	if png.EditorURL != svg.EditorURL {
		t.Errorf("editor URLs differ across formats")
	}
	// Image URLs differ only in the format path segment.
	if !strings.Contains(png.ImageURL, "/png/") || !strings.Contains(svg.ImageURL, "/svg/") {
		t.Errorf("ImageURLs = %q, %q", png.ImageURL, svg.ImageURL)
	}
	if strings.Replace(png.ImageURL, "/png/", "/svg/", 1) != svg.ImageURL {
		t.Errorf("URLs differ beyond the format segment: %q vs %q", png.ImageURL, svg.ImageURL)
	}
}

func TestRender_MarkersOptional(t *testing.T) {
	r := NewRenderer()

	bare, err := r.Render(context.Background(), Request{Source: "A -> B"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	wrapped, err := r.Render(context.Background(), Request{Source: "@startuml\nA -> B\n@enduml"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if bare.Token != wrapped.Token {
		t.Errorf("markered and bare sources produce different tokens")
	}
}

func TestRender_EmptySource(t *testing.T) {
	r := NewRenderer()

	_, err := r.Render(context.Background(), Request{Source: "   \n\t"})
	if !errors.Is(err, ErrEmptySource) {
		t.Errorf("err = %v, want ErrEmptySource", err)
	}

	_, err = r.Render(context.Background(), Request{Source: "@startuml\n\n@enduml"})
	if !errors.Is(err, ErrEmptySource) {
		t.Errorf("markers only: err = %v, want ErrEmptySource", err)
	}
}

func TestRender_SourceTooLarge(t *testing.T) {
	r := NewRenderer()

	_, err := r.Render(context.Background(), Request{
		Source: strings.Repeat("x", MaxSourceBytes+1),
	})
	if !errors.Is(err, ErrSourceTooLarge) {
		t.Errorf("err = %v, want ErrSourceTooLarge", err)
	}
}

func TestRender_SavesImage(t *testing.T) {
	imageBytes := []byte("\x89PNG fake image data")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if !strings.HasPrefix(req.URL.Path, "/png/") {
			t.Errorf("unexpected path %q", req.URL.Path)
		}
		w.Write(imageBytes)
	}))
	defer server.Close()

	outDir := t.TempDir()
	r := NewRenderer().WithBaseURL(server.URL)

	result, err := r.Render(context.Background(), Request{
		Source:    "A -> B",
		OutputDir: outDir,
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if result.Degraded() {
		t.Fatalf("unexpected FetchErr: %v", result.FetchErr)
	}
	if !result.Saved() {
		t.Fatal("LocalPath empty after requested save")
	}

	wantPath := filepath.Join(outDir, result.Fingerprint+".png")
	if result.LocalPath != wantPath {
		t.Errorf("LocalPath = %q, want %q", result.LocalPath, wantPath)
	}
	data, err := os.ReadFile(result.LocalPath)
	if err != nil {
		t.Fatalf("read saved image: %v", err)
	}
	if string(data) != string(imageBytes) {
		t.Error("saved image content mismatch")
	}
}

func TestRender_FetchFailureIsDegradedSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	r := NewRenderer().WithBaseURL(server.URL)

	result, err := r.Render(context.Background(), Request{
		Source:    "A -> B",
		OutputDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Render failed outright: %v", err)
	}
	if !result.Degraded() {
		t.Fatal("expected FetchErr after server error")
	}
	if result.LocalPath != "" {
		t.Errorf("LocalPath = %q, want empty", result.LocalPath)
	}
	// URLs survive the failed download.
	if result.ImageURL == "" || result.EditorURL == "" {
		t.Error("URLs missing on degraded result")
	}
}

func TestRender_UnreachableServerIsDegradedSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {}))
	server.Close() // nothing listening anymore

	r := NewRenderer().WithBaseURL(server.URL)

	result, err := r.Render(context.Background(), Request{
		Source:    "A -> B",
		OutputDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Render failed outright: %v", err)
	}
	if !result.Degraded() {
		t.Fatal("expected FetchErr against a dead server")
	}
}

func TestParseFormat(t *testing.T) {
	testCases := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"png", FormatPNG, false},
		{"PNG", FormatPNG, false},
		{" svg ", FormatSVG, false},
		{"jpeg", "", true},
		{"", "", true},
	}

	for _, tc := range testCases {
		got, err := ParseFormat(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseFormat(%q) succeeded, want error", tc.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFormat(%q) failed: %v", tc.input, err)
		}
		if got != tc.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
