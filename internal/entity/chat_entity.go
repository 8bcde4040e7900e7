package entity

import "time"

// PlaceholderChatID is used for the optimistic user message shown before the
// backend has assigned a real chat id to a brand-new conversation.
const PlaceholderChatID = "new-chat"

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// MessageStatus tags the delivery state of a locally created message. A failed
// dispatch marks the optimistic user message instead of leaving it untagged.
type MessageStatus string

const (
	StatusPending MessageStatus = "pending"
	StatusSent    MessageStatus = "sent"
	StatusFailed  MessageStatus = "failed"
)

// Chat is owned by the backend; the portal only holds a read-only cached copy
// for the sidebar list.
type Chat struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Title      string    `json:"title"`
	Visibility string    `json:"visibility"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Message is one turn in a chat. User messages are built locally with a
// client-generated id before the network round trip; assistant messages come
// from the backend. Status is local-only state and never sent upstream.
type Message struct {
	ID        string        `json:"id"`
	ChatID    string        `json:"chatId"`
	Role      MessageRole   `json:"role"`
	Content   string        `json:"content"`
	Status    MessageStatus `json:"status,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}
