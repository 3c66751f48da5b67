// Package chat provides a unified interface for chat frontends.
package chat

import (
	"context"
)

// Message represents a normalized chat message from any frontend
type Message struct {
	ID         string
	ChatID     string
	SenderID   string
	SenderName string
	Text       string
	IsGroup    bool
	Raw        any // underlying library message struct
}

// Frontend defines the unified interface for all chat integrations
type Frontend interface {
	// Start initializes the chat frontend and begins listening for updates
	Start(ctx context.Context) error

	// Listen starts listening for messages and calls the handler for each message
	Listen(ctx context.Context, handler func(*Message)) error

	// SendText sends a text message to the specified chat, optionally as a reply
	SendText(ctx context.Context, chatID string, replyToID string, text string) (string, error)
}
