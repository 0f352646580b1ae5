// Copyright (c) 2025 The umldraft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultMaxMessages is the default size of the rolling context window.
// Old turns beyond this are dropped so the prompt stays bounded.
const DefaultMaxMessages = 20

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds a chat conversation with a bounded rolling window.
//
// MaxMessages limits how many messages are retained (0 = unlimited). When
// the window overflows, the oldest non-system messages are dropped first;
// system notes injected via /note survive trimming so standing instructions
// are not silently forgotten.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Messages []*Message `json:"messages"`

	// MaxMessages bounds the rolling window (0 = unlimited).
	MaxMessages int `json:"max_messages"`
}

// NewConversation creates a new conversation with the default window size.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		ID:          "conv_" + uuid.NewString(),
		CreatedAt:   now,
		UpdatedAt:   now,
		Messages:    make([]*Message, 0),
		MaxMessages: DefaultMaxMessages,
	}
}

// NewConversationWithWindow creates a conversation with a specific window size.
// Size 0 disables trimming.
func NewConversationWithWindow(maxMessages int) *Conversation {
	conv := NewConversation()
	if maxMessages < 0 {
		maxMessages = 0
	}
	conv.MaxMessages = maxMessages
	return conv
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage appends a message, updates metadata, and enforces the window.
// Empty messages are dropped.
func (c *Conversation) AddMessage(msg *Message) {
	if msg == nil || msg.IsEmpty() {
		return
	}
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
	c.updateTitle()
	c.trim()
}

// AddUserMessage creates and adds a user message.
func (c *Conversation) AddUserMessage(content string) *Message {
	msg := NewUserMessage(content)
	c.AddMessage(msg)
	return msg
}

// AddAssistantMessage creates and adds an assistant message.
func (c *Conversation) AddAssistantMessage(content string) *Message {
	msg := NewAssistantMessage(content)
	c.AddMessage(msg)
	return msg
}

// AddSystemMessage creates and adds a system message.
func (c *Conversation) AddSystemMessage(content string) *Message {
	msg := NewSystemMessage(content)
	c.AddMessage(msg)
	return msg
}

// GetLastMessage returns the most recent message, or nil if empty.
func (c *Conversation) GetLastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// GetLastAssistantMessage returns the most recent assistant message.
func (c *Conversation) GetLastAssistantMessage() *Message {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleAssistant {
			return c.Messages[i]
		}
	}
	return nil
}

// DropLast removes the most recent message. Used to roll back a user turn
// when the model call fails, so a failed request leaves history untouched.
func (c *Conversation) DropLast() {
	if len(c.Messages) == 0 {
		return
	}
	c.Messages = c.Messages[:len(c.Messages)-1]
	c.UpdatedAt = time.Now()
}

// Clear removes all messages from the conversation.
func (c *Conversation) Clear() {
	c.Messages = make([]*Message, 0)
	c.UpdatedAt = time.Now()
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// History returns the retained messages in chronological order.
func (c *Conversation) History() []*Message {
	return c.Messages
}

// EstimateTokens estimates the total token count of the retained window.
func (c *Conversation) EstimateTokens() int {
	total := 0
	for _, msg := range c.Messages {
		total += msg.EstimateTokens()
		// Overhead for message structure (~4 tokens per message).
		total += 4
	}
	return total
}

// =============================================================================
// WINDOW TRIMMING
// =============================================================================

// trim enforces MaxMessages, preserving system notes.
func (c *Conversation) trim() {
	if c.MaxMessages <= 0 || len(c.Messages) <= c.MaxMessages {
		return
	}

	var systemMessages []*Message
	var otherMessages []*Message
	for _, msg := range c.Messages {
		if msg.Role == RoleSystem {
			systemMessages = append(systemMessages, msg)
		} else {
			otherMessages = append(otherMessages, msg)
		}
	}

	// Keep only the most recent window of conversational turns.
	if len(otherMessages) > c.MaxMessages {
		otherMessages = otherMessages[len(otherMessages)-c.MaxMessages:]
	}

	c.Messages = make([]*Message, 0, len(systemMessages)+len(otherMessages))
	c.Messages = append(c.Messages, systemMessages...)
	c.Messages = append(c.Messages, otherMessages...)
}

// =============================================================================
// TITLE MANAGEMENT
// =============================================================================

// updateTitle auto-generates a title from the first user message if not set.
func (c *Conversation) updateTitle() {
	if c.Title != "" {
		return
	}
	for _, msg := range c.Messages {
		if msg.Role == RoleUser {
			c.Title = msg.Preview(50)
			return
		}
	}
}

// SetTitle manually sets the conversation title.
func (c *Conversation) SetTitle(title string) {
	c.Title = title
	c.UpdatedAt = time.Now()
}

// GetTitle returns the conversation title or a default.
func (c *Conversation) GetTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return "New Conversation"
}
