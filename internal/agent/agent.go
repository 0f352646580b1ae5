// Copyright (c) 2025 The umldraft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package agent wires a conversation window to the Groq chat API.
//
// The agent owns the rolling history: each Respond call appends the user
// turn, sends the system prompt plus retained history, and records the
// reply. A failed model call rolls the user turn back so history never
// contains a question the model did not see answered.
package agent

import (
	"context"
	"errors"
	"strings"

	"github.com/umldraft/umldraft/internal/groq"
	"github.com/umldraft/umldraft/internal/model"
)

// ErrEmptyInput is returned when Respond is called with no content.
var ErrEmptyInput = errors.New("agent: empty user input")

// ChatClient is the slice of the Groq client the agent needs. Tests
// substitute a stub here.
type ChatClient interface {
	Chat(ctx context.Context, messages []groq.ChatMessage) (*groq.ChatResponse, error)
	GetModel() string
}

// Agent is a conversational UML design assistant.
type Agent struct {
	client       ChatClient
	conversation *model.Conversation

	systemPrompt       string
	outputInstructions string
}

// New creates an agent with the default prompts and context window.
func New(client ChatClient) *Agent {
	return &Agent{
		client:             client,
		conversation:       model.NewConversation(),
		systemPrompt:       DefaultSystemPrompt,
		outputInstructions: DefaultOutputInstructions,
	}
}

// WithWindow sets the rolling window size (0 = unlimited).
func (a *Agent) WithWindow(maxMessages int) *Agent {
	a.conversation = model.NewConversationWithWindow(maxMessages)
	return a
}

// WithSystemPrompt replaces the default system prompt.
func (a *Agent) WithSystemPrompt(prompt string) *Agent {
	if p := strings.TrimSpace(prompt); p != "" {
		a.systemPrompt = p
	}
	return a
}

// SetOutputInstructions replaces the output formatting instructions.
// Empty instructions drop them from the prompt entirely.
func (a *Agent) SetOutputInstructions(instructions string) {
	a.outputInstructions = strings.TrimSpace(instructions)
}

// SetSystemPrompt replaces the system prompt at runtime.
func (a *Agent) SetSystemPrompt(prompt string) {
	if p := strings.TrimSpace(prompt); p != "" {
		a.systemPrompt = p
	}
}

// Conversation exposes the underlying history for display and persistence.
func (a *Agent) Conversation() *model.Conversation {
	return a.conversation
}

// Model reports which model the agent is talking to.
func (a *Agent) Model() string {
	return a.client.GetModel()
}

// =============================================================================
// TURN HANDLING
// =============================================================================

// Respond appends the user message, invokes the model, and stores the reply.
// On failure the user turn is rolled back and the error returned.
func (a *Agent) Respond(ctx context.Context, userInput string) (string, error) {
	userInput = strings.TrimSpace(userInput)
	if userInput == "" {
		return "", ErrEmptyInput
	}

	a.conversation.AddUserMessage(userInput)

	resp, err := a.client.Chat(ctx, a.buildPrompt())
	if err != nil {
		// Roll back only the turn just appended; standing notes and
		// earlier history stay put.
		if last := a.conversation.GetLastMessage(); last != nil && last.Role == model.RoleUser {
			a.conversation.DropLast()
		}
		return "", err
	}

	content := resp.GetContent()
	a.conversation.AddAssistantMessage(content)
	return content, nil
}

// Note injects a standing system-level instruction into the rolling
// context. Notes survive window trimming.
func (a *Agent) Note(note string) {
	a.conversation.AddSystemMessage(note)
}

// Reset clears the conversation history. Prompts are untouched.
func (a *Agent) Reset() {
	a.conversation.Clear()
}

// History returns the retained messages in chronological order.
func (a *Agent) History() []*model.Message {
	return a.conversation.History()
}

// buildPrompt assembles the wire messages: one system message with the
// prompt (and output instructions, when set) followed by the retained
// history in order.
func (a *Agent) buildPrompt() []groq.ChatMessage {
	systemText := a.systemPrompt
	if a.outputInstructions != "" {
		systemText += "\n\nOutput requirements:\n" + a.outputInstructions
	}

	history := a.conversation.History()
	messages := make([]groq.ChatMessage, 0, len(history)+1)
	messages = append(messages, groq.NewSystemMessage(systemText))

	for _, msg := range history {
		switch msg.Role {
		case model.RoleUser:
			messages = append(messages, groq.NewUserMessage(msg.Content))
		case model.RoleAssistant:
			messages = append(messages, groq.NewAssistantMessage(msg.Content))
		case model.RoleSystem:
			messages = append(messages, groq.NewSystemMessage(msg.Content))
		}
	}
	return messages
}
