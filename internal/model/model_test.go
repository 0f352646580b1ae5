// Copyright (c) 2025 The umldraft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"strings"
	"testing"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewMessage_TrimsContent(t *testing.T) {
	msg := NewUserMessage("  draw a class diagram  \n")
	if msg.Content != "draw a class diagram" {
		t.Errorf("Content = %q, want trimmed", msg.Content)
	}
	if msg.Role != RoleUser {
		t.Errorf("Role = %q, want %q", msg.Role, RoleUser)
	}
	if msg.ID == "" || !strings.HasPrefix(msg.ID, "msg_") {
		t.Errorf("ID = %q, want msg_ prefix", msg.ID)
	}
}

func TestMessage_Preview(t *testing.T) {
	msg := NewAssistantMessage("line one\nline two\nline three")
	preview := msg.Preview(100)
	if strings.Contains(preview, "\n") {
		t.Errorf("Preview contains newline: %q", preview)
	}

	long := NewUserMessage(strings.Repeat("a", 200))
	if got := len([]rune(long.Preview(50))); got > 50 {
		t.Errorf("Preview length = %d, want <= 50", got)
	}
}

func TestRole_DisplayName(t *testing.T) {
	testCases := []struct {
		role     Role
		expected string
	}{
		{RoleUser, "You"},
		{RoleAssistant, "Agent"},
		{RoleSystem, "System"},
		{Role("other"), "other"},
	}

	for _, tc := range testCases {
		if got := tc.role.DisplayName(); got != tc.expected {
			t.Errorf("DisplayName(%q) = %q, want %q", tc.role, got, tc.expected)
		}
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestConversation_AddAndCount(t *testing.T) {
	conv := NewConversation()
	if !conv.IsEmpty() {
		t.Error("new conversation should be empty")
	}

	conv.AddUserMessage("hello")
	conv.AddAssistantMessage("hi there")

	if conv.MessageCount() != 2 {
		t.Errorf("MessageCount = %d, want 2", conv.MessageCount())
	}
	last := conv.GetLastMessage()
	if last == nil || last.Role != RoleAssistant {
		t.Error("last message should be the assistant reply")
	}
}

func TestConversation_GetLastAssistantMessage(t *testing.T) {
	conv := NewConversation()
	if conv.GetLastAssistantMessage() != nil {
		t.Error("empty conversation returned an assistant message")
	}

	conv.AddUserMessage("q1")
	conv.AddAssistantMessage("a1")
	conv.AddUserMessage("q2")

	last := conv.GetLastAssistantMessage()
	if last == nil || last.Content != "a1" {
		t.Errorf("GetLastAssistantMessage = %+v, want a1", last)
	}
}

func TestConversation_EmptyMessagesDropped(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("   \n\t ")
	if conv.MessageCount() != 0 {
		t.Errorf("whitespace-only message retained, count = %d", conv.MessageCount())
	}
}

func TestConversation_WindowTrimsOldest(t *testing.T) {
	conv := NewConversationWithWindow(4)

	for i := 0; i < 10; i++ {
		conv.AddUserMessage(fmt.Sprintf("question %d", i))
	}

	if conv.MessageCount() != 4 {
		t.Fatalf("MessageCount = %d, want 4", conv.MessageCount())
	}
	// Chronological order of the survivors is preserved.
	if conv.Messages[0].Content != "question 6" {
		t.Errorf("oldest retained = %q, want question 6", conv.Messages[0].Content)
	}
	if conv.Messages[3].Content != "question 9" {
		t.Errorf("newest retained = %q, want question 9", conv.Messages[3].Content)
	}
}

func TestConversation_TrimPreservesSystemNotes(t *testing.T) {
	conv := NewConversationWithWindow(3)
	conv.AddSystemMessage("always answer in French")

	for i := 0; i < 8; i++ {
		conv.AddUserMessage(fmt.Sprintf("q%d", i))
		conv.AddAssistantMessage(fmt.Sprintf("a%d", i))
	}

	foundNote := false
	nonSystem := 0
	for _, msg := range conv.Messages {
		if msg.Role == RoleSystem {
			foundNote = true
		} else {
			nonSystem++
		}
	}
	if !foundNote {
		t.Error("system note was trimmed away")
	}
	if nonSystem != 3 {
		t.Errorf("non-system retained = %d, want 3", nonSystem)
	}
}

func TestConversation_UnlimitedWindow(t *testing.T) {
	conv := NewConversationWithWindow(0)
	for i := 0; i < 50; i++ {
		conv.AddUserMessage(fmt.Sprintf("q%d", i))
	}
	if conv.MessageCount() != 50 {
		t.Errorf("MessageCount = %d, want 50 (unlimited)", conv.MessageCount())
	}
}

func TestConversation_DropLast(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("keep")
	conv.AddUserMessage("roll back")

	conv.DropLast()

	if conv.MessageCount() != 1 {
		t.Fatalf("MessageCount = %d, want 1", conv.MessageCount())
	}
	if conv.Messages[0].Content != "keep" {
		t.Errorf("remaining = %q, want keep", conv.Messages[0].Content)
	}

	// DropLast on empty history is a no-op.
	conv.DropLast()
	conv.DropLast()
	if conv.MessageCount() != 0 {
		t.Errorf("MessageCount = %d, want 0", conv.MessageCount())
	}
}

func TestConversation_Clear(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("hello")
	conv.Clear()
	if !conv.IsEmpty() {
		t.Error("Clear did not empty the conversation")
	}
}

func TestConversation_TitleFromFirstUserMessage(t *testing.T) {
	conv := NewConversation()
	conv.AddSystemMessage("be terse")
	conv.AddUserMessage("design a login sequence diagram")

	if got := conv.GetTitle(); got != "design a login sequence diagram" {
		t.Errorf("GetTitle = %q", got)
	}

	// Explicit titles win and stick.
	conv.SetTitle("login flow")
	conv.AddUserMessage("something else")
	if got := conv.GetTitle(); got != "login flow" {
		t.Errorf("GetTitle = %q, want login flow", got)
	}
}

func TestConversation_EstimateTokens(t *testing.T) {
	conv := NewConversation()
	if conv.EstimateTokens() != 0 {
		t.Error("empty conversation should estimate 0 tokens")
	}
	conv.AddUserMessage(strings.Repeat("x", 40))
	if got := conv.EstimateTokens(); got != 14 { // 40/4 + 4 overhead
		t.Errorf("EstimateTokens = %d, want 14", got)
	}
}
