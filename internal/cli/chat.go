// Copyright (c) 2025 The umldraft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command handler for umldraft CLI.
//
// Handles the "umldraft chat" command, an interactive REPL that talks to a
// Groq-hosted model, extracts PlantUML from every reply, and renders each
// diagram to shareable server URLs plus an optional local image file.
//
// Examples:
//   umldraft chat                     Start interactive chat (default model)
//   umldraft chat --model NAME        Use a specific model
//   umldraft chat --format svg        Render diagrams as SVG
//   umldraft chat --no-fetch          URLs only, no image downloads
//
// Interactive commands (during chat):
//   /help               Show available commands
//   /reset              Clear conversation history
//   /note TEXT          Inject a standing instruction
//   /format [png|svg]   Show or switch the image format
//   /model [name]       Show or switch the model
//   /history            Show conversation history
//   /status             Show session status
//   /save [file.md]     Save the transcript
//   /sessions           List saved transcripts
//   /load ID            Load a saved transcript
//   /quit               Exit chat (also Ctrl+D)

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/umldraft/umldraft/internal/agent"
	"github.com/umldraft/umldraft/internal/cache"
	"github.com/umldraft/umldraft/internal/config"
	"github.com/umldraft/umldraft/internal/groq"
	"github.com/umldraft/umldraft/internal/plantuml"
	"github.com/umldraft/umldraft/internal/storage"
	"github.com/umldraft/umldraft/internal/util"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatInput provides line editing and input history for the REPL.
type ChatInput struct {
	line        *liner.State
	historyFile string
}

// NewChatInput creates a liner-backed input reader with persisted history.
func NewChatInput() *ChatInput {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	in := &ChatInput{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	in.LoadHistory()
	return in
}

// LoadHistory loads input history from file.
func (c *ChatInput) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads one line with history navigation.
func (c *ChatInput) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists input history with owner-only permissions.
func (c *ChatInput) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and releases the terminal.
func (c *ChatInput) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// SESSION STATE
// =============================================================================

// ChatSession holds the state for one interactive session.
type ChatSession struct {
	Config   *config.Config
	Client   *groq.Client
	Agent    *agent.Agent
	Renderer *plantuml.Renderer
	Cache    *cache.RenderCache // nil when unavailable
	Store    *storage.TranscriptStore

	Input  *ChatInput
	Format plantuml.Format

	// Session counters for the exit summary.
	turns    int
	diagrams int
}

// NewChatSession assembles a session from config, flags, and environment.
func NewChatSession(args *ArgParser) (*ChatSession, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if m := args.Flag("model", "m"); m != "" {
		cfg.Groq.Model = m
	}
	if f := args.Flag("format", "f"); f != "" {
		cfg.PlantUML.Format = f
	}
	if s := args.Flag("server"); s != "" {
		cfg.PlantUML.ServerURL = s
	}
	cfg.PlantUML.FetchImages = args.BoolFlagDefault(cfg.PlantUML.FetchImages, "fetch")
	if args.BoolFlag("no-fetch") {
		cfg.PlantUML.FetchImages = false
	}
	cfg.UI.Color = args.BoolFlagDefault(cfg.UI.Color, "color")
	cfg.UI.Markdown = args.BoolFlagDefault(cfg.UI.Markdown, "markdown")
	applyUIConfig(cfg.UI)

	format, err := plantuml.ParseFormat(cfg.PlantUML.Format)
	if err != nil {
		return nil, err
	}

	apiKey := cfg.Groq.APIKey
	if apiKey == "" {
		apiKey, err = config.EnsureAPIKey(os.Stdin, os.Stdout)
		if err != nil {
			return nil, err
		}
	}

	client := groq.NewClient(apiKey).
		WithTimeout(cfg.GroqTimeout()).
		WithMaxRetries(cfg.Groq.MaxRetries).
		WithTemperature(cfg.GroqTemperature()).
		WithMaxTokens(cfg.Groq.MaxTokens).
		WithVerboseLogging(args.BoolFlag("verbose", "v"))
	if err := client.SetModel(cfg.Groq.Model); err != nil {
		return nil, err
	}

	store, err := storage.NewTranscriptStore()
	if err != nil {
		return nil, err
	}

	// A broken cache is an inconvenience, not a fatal error.
	renderCache, err := cache.OpenDefault()
	if err != nil {
		renderCache = nil
	}

	session := &ChatSession{
		Config:   cfg,
		Client:   client,
		Agent:    agent.New(client).WithWindow(cfg.Memory.MaxMessages),
		Renderer: plantuml.NewRenderer().
			WithBaseURL(cfg.PlantUML.ServerURL).
			WithTimeout(cfg.FetchTimeout()),
		Cache:    renderCache,
		Store:    store,
		Input:    NewChatInput(),
		Format:   format,
	}
	session.Agent.Conversation().Model = cfg.Groq.Model
	return session, nil
}

// Close releases session resources.
func (s *ChatSession) Close() {
	s.Input.Close()
	if s.Cache != nil {
		s.Cache.Close()
	}
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

// HandleChatCommand runs the interactive REPL.
func HandleChatCommand(args *ArgParser) error {
	session, err := NewChatSession(args)
	if err != nil {
		return err
	}
	defer session.Close()

	printWelcome(session)

	for {
		input, err := session.Input.ReadInput(promptStyle.Render("you> "))
		if err != nil {
			// Ctrl+C (ErrPromptAborted) and Ctrl+D both end the session.
			fmt.Println()
			printExitSummary(session)
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			keepGoing, err := handleSlashCommand(session, input)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
			}
			if !keepGoing {
				printExitSummary(session)
				return nil
			}
			continue
		}

		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			printExitSummary(session)
			return nil
		}

		if err := processMessage(session, input); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		}
	}
}

// =============================================================================
// MESSAGE PROCESSING
// =============================================================================

// processMessage sends one user turn to the model, prints the reply, and
// renders every diagram found in it.
func processMessage(session *ChatSession, input string) error {
	ctx := context.Background()

	reply, err := session.Agent.Respond(ctx, input)
	if err != nil {
		return err
	}
	session.turns++

	fmt.Println()
	displayResponse(reply, session.Config.UI.Markdown)

	diagrams := plantuml.Extract(reply)
	for i, d := range diagrams {
		result, err := session.renderDiagram(ctx, d.Source)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s diagram %d: %v\n",
				errorStyle.Render("[Error]"), i+1, err)
			continue
		}
		session.diagrams++
		displayRenderResult(i+1, result)
	}
	return nil
}

// renderDiagram renders one diagram source, consulting the render cache to
// skip image downloads for diagrams seen before.
func (s *ChatSession) renderDiagram(ctx context.Context, source string) (*plantuml.Result, error) {
	result, err := s.Renderer.Render(ctx, plantuml.Request{
		Source: source,
		Format: s.Format,
	})
	if err != nil {
		return nil, err
	}

	if !s.Config.PlantUML.FetchImages {
		return result, nil
	}

	if s.Cache != nil {
		if hit, err := s.Cache.Get(result.Fingerprint, string(s.Format)); err == nil && hit.LocalPath != "" {
			result.LocalPath = hit.LocalPath
			return result, nil
		}
	}

	outputDir, err := s.Config.DiagramDir()
	if err != nil {
		return result, nil
	}
	fetched, err := s.Renderer.Render(ctx, plantuml.Request{
		Source:    source,
		Format:    s.Format,
		OutputDir: outputDir,
	})
	if err != nil {
		return result, nil
	}

	if s.Cache != nil && fetched.Saved() {
		// The render already succeeded; a failed cache write only costs
		// a repeat download next time.
		if err := s.Cache.Put(&cache.Entry{
			Fingerprint: fetched.Fingerprint,
			Format:      string(fetched.Format),
			Token:       fetched.Token,
			ImageURL:    fetched.ImageURL,
			EditorURL:   fetched.EditorURL,
			LocalPath:   fetched.LocalPath,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "%s cache update failed: %v\n",
				warningStyle.Render("[Warning]"), err)
		}
	}
	return fetched, nil
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand dispatches a /command. Returns false to end the session.
func handleSlashCommand(session *ChatSession, input string) (bool, error) {
	fields := strings.Fields(input)
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "/help", "/h", "/?":
		printHelp()
		return true, nil

	case "/reset", "/clear":
		session.Agent.Reset()
		fmt.Println(infoStyle.Render("Conversation cleared."))
		return true, nil

	case "/note":
		note := strings.TrimSpace(strings.TrimPrefix(input, fields[0]))
		if note == "" {
			return true, errors.New("usage: /note TEXT")
		}
		session.Agent.Note(note)
		fmt.Println(infoStyle.Render("Note added to the conversation."))
		return true, nil

	case "/format":
		if len(args) == 0 {
			fmt.Printf("Current format: %s\n", session.Format)
			return true, nil
		}
		format, err := plantuml.ParseFormat(args[0])
		if err != nil {
			return true, err
		}
		session.Format = format
		fmt.Printf("Image format set to %s.\n", format)
		return true, nil

	case "/model":
		return true, handleModelCommand(session, args)

	case "/history":
		printHistory(session)
		return true, nil

	case "/status", "/s":
		printStatus(session)
		return true, nil

	case "/save":
		return true, handleSaveCommand(session, args)

	case "/sessions":
		return true, printSessions(session)

	case "/load":
		if len(args) == 0 {
			return true, errors.New("usage: /load ID")
		}
		return true, handleLoadCommand(session, args[0])

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, fmt.Errorf("unknown command %s (try /help)", cmd)
	}
}

// handleModelCommand shows or switches the active model.
func handleModelCommand(session *ChatSession, args []string) error {
	if len(args) == 0 {
		fmt.Printf("Current model: %s\n", session.Client.GetModel())
		fmt.Println(infoStyle.Render("Available: " + strings.Join(groq.KnownModels(), ", ")))
		return nil
	}
	if err := session.Client.SetModel(args[0]); err != nil {
		return err
	}
	session.Agent.Conversation().Model = args[0]
	fmt.Printf("Model set to %s.\n", args[0])
	return nil
}

// handleSaveCommand persists the transcript, as markdown when a .md path
// is given and as JSON in the transcript store otherwise.
func handleSaveCommand(session *ChatSession, args []string) error {
	conv := session.Agent.Conversation()
	if conv.IsEmpty() {
		return errors.New("nothing to save yet")
	}

	if len(args) > 0 {
		path := args[0]
		if err := storage.SaveMarkdown(conv, path); err != nil {
			return err
		}
		fmt.Printf("Transcript written to %s.\n", path)
		return nil
	}

	id, err := session.Store.Save(conv)
	if err != nil {
		return err
	}
	fmt.Printf("Transcript saved as %s.\n", id)
	return nil
}

// printSessions lists saved transcripts, newest first.
func printSessions(session *ChatSession) error {
	metas, err := session.Store.List()
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		fmt.Println(infoStyle.Render("No saved transcripts."))
		return nil
	}
	for _, meta := range metas {
		// Pad by display width so CJK titles keep the columns aligned.
		title := util.TruncateWidth(meta.Title, 40)
		pad := 40 + len(title) - util.StringWidth(title)
		fmt.Printf("%s  %s  %-*s %s\n",
			meta.ID,
			meta.UpdatedAt.Format("2006-01-02 15:04"),
			pad, title,
			infoStyle.Render(fmt.Sprintf("(%d messages)", meta.MessageCount)))
	}
	return nil
}

// handleLoadCommand replaces the live conversation with a saved transcript.
func handleLoadCommand(session *ChatSession, id string) error {
	conv, err := session.Store.Load(id)
	if err != nil {
		return err
	}

	session.Agent.Reset()
	live := session.Agent.Conversation()
	for _, msg := range conv.History() {
		live.AddMessage(msg)
	}
	live.Title = conv.Title
	fmt.Printf("Loaded %q (%d messages).\n", conv.GetTitle(), conv.MessageCount())
	return nil
}

// =============================================================================
// DISPLAY
// =============================================================================

func printWelcome(session *ChatSession) {
	fmt.Println(welcomeStyle.Render("umldraft - UML diagram assistant"))
	fmt.Println(infoStyle.Render(fmt.Sprintf("Model: %s | Format: %s | Server: %s",
		session.Client.GetModel(), session.Format, session.Renderer.BaseURL())))
	fmt.Println(infoStyle.Render("Describe a system and I will draw it. Type /help for commands."))
	fmt.Println()
}

func printHelp() {
	rows := [][2]string{
		{"/help", "Show this help"},
		{"/reset", "Clear conversation history"},
		{"/note TEXT", "Inject a standing instruction"},
		{"/format [png|svg]", "Show or switch the image format"},
		{"/model [name]", "Show or switch the model"},
		{"/history", "Show conversation history"},
		{"/status", "Show session status"},
		{"/save [file.md]", "Save the transcript"},
		{"/sessions", "List saved transcripts"},
		{"/load ID", "Load a saved transcript"},
		{"/quit", "Exit chat (also Ctrl+D)"},
	}
	fmt.Println("Commands:")
	for _, row := range rows {
		fmt.Printf("  %-22s %s\n", commandStyle.Render(row[0]), row[1])
	}
}

func printStatus(session *ChatSession) {
	conv := session.Agent.Conversation()
	fmt.Printf("%s %s\n", labelStyle.Render("Model:"), session.Client.GetModel())
	fmt.Printf("%s %s\n", labelStyle.Render("API key:"), session.Client.APIKeyMasked())
	fmt.Printf("%s %s\n", labelStyle.Render("Format:"), session.Format)
	fmt.Printf("%s %s\n", labelStyle.Render("Server:"), session.Renderer.BaseURL())
	fmt.Printf("%s %d (window %d)\n", labelStyle.Render("Messages:"), conv.MessageCount(), conv.MaxMessages)
	fmt.Printf("%s ~%d\n", labelStyle.Render("Tokens:"), conv.EstimateTokens())
	if last := conv.GetLastAssistantMessage(); last != nil {
		fmt.Printf("%s %s\n", labelStyle.Render("Last reply:"), last.Preview(60))
	}
	if session.Cache != nil {
		if n, err := session.Cache.Count(); err == nil {
			fmt.Printf("%s %d renders\n", labelStyle.Render("Cache:"), n)
		}
	}
}

func printHistory(session *ChatSession) {
	history := session.Agent.History()
	if len(history) == 0 {
		fmt.Println(infoStyle.Render("No messages yet."))
		return
	}
	width := GetTerminalWidth() - 10
	for _, msg := range history {
		fmt.Printf("%s %s\n",
			promptStyle.Render(msg.Role.DisplayName()+":"),
			util.TruncateWidth(msg.Preview(200), width))
	}
}

func printExitSummary(session *ChatSession) {
	fmt.Println(infoStyle.Render(fmt.Sprintf(
		"Session over: %d turns, %d diagrams rendered.", session.turns, session.diagrams)))
}
