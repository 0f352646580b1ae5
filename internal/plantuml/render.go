// Copyright (c) 2025 The umldraft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package plantuml

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/umldraft/umldraft/internal/util"
)

// DefaultServerURL is the public PlantUML server.
const DefaultServerURL = "https://www.plantuml.com/plantuml"

// DefaultFetchTimeout bounds a single image download.
const DefaultFetchTimeout = 15 * time.Second

// maxImageBytes caps how much of an image response is read into memory.
const maxImageBytes = 16 * 1024 * 1024

// ErrEmptySource is returned when a render request carries no diagram text.
var ErrEmptySource = errors.New("plantuml: empty diagram source")

// =============================================================================
// FORMATS
// =============================================================================

// Format is a supported image output format.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// Valid reports whether the format is one the server supports.
func (f Format) Valid() bool {
	return f == FormatPNG || f == FormatSVG
}

// Extension returns the file extension for the format, without the dot.
func (f Format) Extension() string {
	return string(f)
}

// ParseFormat normalizes a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("plantuml: unsupported format %q (png, svg)", s)
	}
	return f, nil
}

// =============================================================================
// REQUEST / RESULT
// =============================================================================

// Request describes one diagram render.
type Request struct {
	// Source is the diagram text, with or without @startuml/@enduml markers.
	Source string

	// Format selects the image format. Zero value means PNG.
	Format Format

	// OutputDir, when non-empty, asks the renderer to download the image
	// and save it under this directory.
	OutputDir string
}

// Result is the outcome of a successful render. URLs are always populated;
// LocalPath only when a download was requested and succeeded.
type Result struct {
	Source      string
	Token       string
	Fingerprint string
	Format      Format

	ImageURL  string
	EditorURL string

	// LocalPath is the saved image file, empty if no download happened.
	LocalPath string

	// FetchErr records a failed download. The render itself still
	// succeeded: the URLs remain valid and shareable.
	FetchErr error
}

// Degraded reports whether a requested download failed.
func (r *Result) Degraded() bool {
	return r.FetchErr != nil
}

// Saved reports whether the image was written to disk.
func (r *Result) Saved() bool {
	return r.LocalPath != ""
}

// =============================================================================
// RENDERER
// =============================================================================

// Renderer turns diagram sources into server URLs and, optionally,
// downloaded image files. Safe for concurrent use.
type Renderer struct {
	baseURL    string
	httpClient *http.Client
}

// NewRenderer creates a renderer against the public PlantUML server.
func NewRenderer() *Renderer {
	return &Renderer{
		baseURL:    DefaultServerURL,
		httpClient: &http.Client{Timeout: DefaultFetchTimeout},
	}
}

// WithBaseURL points the renderer at a different PlantUML server.
func (r *Renderer) WithBaseURL(baseURL string) *Renderer {
	if baseURL != "" {
		r.baseURL = strings.TrimRight(baseURL, "/")
	}
	return r
}

// WithTimeout sets the image download timeout.
func (r *Renderer) WithTimeout(timeout time.Duration) *Renderer {
	if timeout > 0 {
		r.httpClient.Timeout = timeout
	}
	return r
}

// WithHTTPClient replaces the underlying HTTP client.
func (r *Renderer) WithHTTPClient(client *http.Client) *Renderer {
	if client != nil {
		r.httpClient = client
	}
	return r
}

// BaseURL returns the configured server URL.
func (r *Renderer) BaseURL() string {
	return r.baseURL
}

// Render encodes the diagram and builds its image and editor URLs. When the
// request names an output directory it also downloads the image; a download
// failure is recorded in Result.FetchErr rather than failing the render,
// since the URLs alone are already a useful answer.
func (r *Renderer) Render(ctx context.Context, req Request) (*Result, error) {
	format := req.Format
	if format == "" {
		format = FormatPNG
	}
	if !format.Valid() {
		return nil, fmt.Errorf("plantuml: unsupported format %q", req.Format)
	}

	source := normalizeSource(req.Source)
	if source == "" {
		return nil, ErrEmptySource
	}

	wrapped := StartMarker + "\n" + source + "\n" + EndMarker
	token, err := Encode(wrapped)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Source:      source,
		Token:       token,
		Fingerprint: Fingerprint(wrapped),
		Format:      format,
		ImageURL:    fmt.Sprintf("%s/%s/%s", r.baseURL, format, token),
		EditorURL:   fmt.Sprintf("%s/uml/%s", r.baseURL, token),
	}

	if req.OutputDir != "" {
		path, err := r.fetchAndSave(ctx, result.ImageURL, req.OutputDir, result.Fingerprint, format)
		if err != nil {
			result.FetchErr = err
		} else {
			result.LocalPath = path
		}
	}

	return result, nil
}

// fetchAndSave downloads the rendered image and writes it atomically to
// {outputDir}/{fingerprint}.{ext}. Identical sources reuse the same file.
func (r *Renderer) fetchAndSave(ctx context.Context, imageURL, outputDir, fingerprint string, format Format) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("plantuml: build request: %w", err)
	}

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("plantuml: fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("plantuml: server returned %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return "", fmt.Errorf("plantuml: read image: %w", err)
	}

	path := filepath.Join(outputDir, fingerprint+"."+format.Extension())
	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("plantuml: save image: %w", err)
	}
	return path, nil
}

// normalizeSource strips markers if present, trims trailing whitespace per
// line, and drops surrounding blank lines. Rendering the same diagram with
// or without markers yields the same token.
func normalizeSource(source string) string {
	lines := strings.Split(source, "\n")

	kept := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == StartMarker || trimmed == EndMarker {
			continue
		}
		kept = append(kept, strings.TrimRight(line, " \t\r"))
	}

	return trimBlankLines(strings.Join(kept, "\n"))
}
