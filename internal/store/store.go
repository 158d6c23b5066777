// Package store defines the chat persistence contract the streaming core
// consumes, plus an in-memory reference implementation. Persistence itself is
// an external collaborator: the core only ever loads a history, appends a
// completed turn, or creates a chat for a first message.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/leofalp/chatstream/providers/ai"
)

// ErrChatNotFound is returned when a chat identifier does not resolve.
var ErrChatNotFound = errors.New("chat not found")

// Chat is the durable record of one conversation.
type Chat struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the persistence interface consumed by the request handlers.
// Implementations must be safe for concurrent use.
type Store interface {
	// CreateChat creates a chat owned by userID, titled from the first
	// message, and returns its identifier.
	CreateChat(ctx context.Context, userID, firstMessage string) (string, error)

	// AppendMessage appends one turn to the chat's ordered history.
	AppendMessage(ctx context.Context, chatID string, role ai.MessageRole, content string) error

	// LoadHistory returns the chat's messages in append order.
	LoadHistory(ctx context.Context, chatID string) ([]ai.Message, error)

	// ListChats returns the chats owned by userID, newest first.
	ListChats(ctx context.Context, userID string) ([]Chat, error)
}
