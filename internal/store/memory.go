package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leofalp/chatstream/providers/ai"
)

// titleLimit caps the chat title derived from the first message.
const titleLimit = 80

// MemoryStore is an in-memory Store for development and tests. Data does not
// survive a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	chats    map[string]*Chat
	messages map[string][]ai.Message
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		chats:    make(map[string]*Chat),
		messages: make(map[string][]ai.Message),
	}
}

var _ Store = (*MemoryStore)(nil)

// CreateChat implements Store. Identifiers are UUIDs, which conveniently
// satisfy the downstream recovery heuristic (hyphenated, 36 characters).
func (s *MemoryStore) CreateChat(_ context.Context, userID, firstMessage string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	title := firstMessage
	if len(title) > titleLimit {
		title = title[:titleLimit]
	}

	chat := &Chat{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: time.Now(),
	}
	s.chats[chat.ID] = chat
	s.messages[chat.ID] = nil

	return chat.ID, nil
}

// AppendMessage implements Store.
func (s *MemoryStore) AppendMessage(_ context.Context, chatID string, role ai.MessageRole, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chats[chatID]; !ok {
		return ErrChatNotFound
	}
	s.messages[chatID] = append(s.messages[chatID], ai.Message{Role: role, Content: content})
	return nil
}

// LoadHistory implements Store. The returned slice is a copy; callers may
// append to it freely.
func (s *MemoryStore) LoadHistory(_ context.Context, chatID string) ([]ai.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.chats[chatID]; !ok {
		return nil, ErrChatNotFound
	}

	history := make([]ai.Message, len(s.messages[chatID]))
	copy(history, s.messages[chatID])
	return history, nil
}

// ListChats implements Store.
func (s *MemoryStore) ListChats(_ context.Context, userID string) ([]Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var chats []Chat
	for _, chat := range s.chats {
		if chat.UserID == userID {
			chats = append(chats, *chat)
		}
	}

	sort.Slice(chats, func(i, j int) bool {
		return chats[i].CreatedAt.After(chats[j].CreatedAt)
	})
	return chats, nil
}
