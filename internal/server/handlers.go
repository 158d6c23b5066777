package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/leofalp/chatstream/core/wire"
	"github.com/leofalp/chatstream/internal/store"
	"github.com/leofalp/chatstream/providers/ai"
)

// chatRequest is the body of POST /api/chat.
type chatRequest struct {
	ChatID      string  `json:"chat_id,omitempty"`
	Message     string  `json:"message"`
	Provider    string  `json:"provider,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Stream      *bool   `json:"stream,omitempty"`
}

// chatResponse is the body of a non-streaming POST /api/chat.
type chatResponse struct {
	ChatID   string          `json:"chat_id"`
	Provider ai.ProviderName `json:"provider"`
	Content  string          `json:"content"`
}

type providersResponse struct {
	Default   ai.ProviderName   `json:"default"`
	Available []ai.ProviderName `json:"available"`
}

type chatsResponse struct {
	Chats []store.Chat `json:"chats"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProviders(c echo.Context) error {
	if _, err := s.userID(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, providersResponse{
		Default:   s.dialer.Resolve(""),
		Available: s.dialer.Available(),
	})
}

func (s *Server) handleListChats(c echo.Context) error {
	userID, err := s.userID(c)
	if err != nil {
		return err
	}

	chats, err := s.store.ListChats(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	if chats == nil {
		chats = []store.Chat{}
	}
	return c.JSON(http.StatusOK, chatsResponse{Chats: chats})
}

// handleChat runs one generation turn. The default mode streams wire frames
// as text/event-stream; stream:false collects the turn and answers with a
// single JSON body instead.
func (s *Server) handleChat(c echo.Context) error {
	userID, err := s.userID(c)
	if err != nil {
		return err
	}

	if s.quota != nil && !s.quota.WithinQuota(userID) {
		return requestError{
			Status:  http.StatusTooManyRequests,
			Message: "generation quota exceeded, retry later",
			Type:    "rate_limit_error",
		}
	}

	var req chatRequest
	decoder := json.NewDecoder(http.MaxBytesReader(c.Response(), c.Request().Body, maxBodyBytes))
	if err := decoder.Decode(&req); err != nil {
		return requestError{
			Status:  http.StatusBadRequest,
			Message: "malformed request body",
			Type:    "invalid_request_error",
		}
	}
	if strings.TrimSpace(req.Message) == "" {
		return requestError{
			Status:  http.StatusBadRequest,
			Message: "message must not be empty",
			Type:    "invalid_request_error",
		}
	}
	if req.Provider != "" {
		if _, ok := ai.ParseProviderName(req.Provider); !ok {
			return requestError{
				Status:  http.StatusBadRequest,
				Message: "unknown provider " + req.Provider,
				Type:    "invalid_request_error",
			}
		}
	}

	providerName := s.dialer.Resolve(req.Provider)
	if !slices.Contains(s.dialer.Available(), providerName) {
		return requestError{
			Status:  http.StatusBadRequest,
			Message: "provider " + string(providerName) + " has no credential configured",
			Type:    "configuration_error",
		}
	}

	provider, err := s.dialer.Dial(providerName)
	if err != nil {
		if errors.Is(err, ai.ErrMissingAPIKey) {
			return requestError{
				Status:  http.StatusBadRequest,
				Message: err.Error(),
				Type:    "configuration_error",
			}
		}
		return err
	}

	ctx := c.Request().Context()

	chatID := req.ChatID
	if chatID == "" {
		chatID, err = s.store.CreateChat(ctx, userID, req.Message)
		if err != nil {
			return err
		}
	}

	history, err := s.store.LoadHistory(ctx, chatID)
	if err != nil {
		if errors.Is(err, store.ErrChatNotFound) {
			return requestError{
				Status:  http.StatusNotFound,
				Message: "chat " + chatID + " not found",
				Type:    "invalid_request_error",
			}
		}
		return err
	}

	if err := s.store.AppendMessage(ctx, chatID, ai.RoleUser, req.Message); err != nil {
		return err
	}

	generation := ai.ChatRequest{
		Messages: append(history, ai.Message{Role: ai.RoleUser, Content: req.Message}),
	}
	if req.Temperature > 0 || req.MaxTokens > 0 {
		generation.GenerationConfig = &ai.GenerationConfig{
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
		}
	}

	if req.Stream != nil && !*req.Stream {
		return s.respondCollected(c, provider, providerName, chatID, generation)
	}
	return s.respondStreaming(c, provider, chatID, generation)
}

// respondStreaming frames the provider stream onto the response body. Errors
// after the first frame cannot change the status line anymore; the connection
// is aborted without a done frame and the client treats the turn as failed.
func (s *Server) respondStreaming(c echo.Context, provider ai.StreamProvider, chatID string, generation ai.ChatRequest) error {
	ctx := c.Request().Context()

	stream, err := provider.StreamMessage(ctx, generation)
	if err != nil {
		return requestError{
			Status:  http.StatusBadGateway,
			Message: err.Error(),
			Type:    "upstream_error",
		}
	}

	header := c.Response().Header()
	header.Set(echo.HeaderContentType, "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	encoder := wire.NewEncoder(c.Response())
	err = encoder.Pump(ctx, chatID, stream, func(content string) error {
		return s.store.AppendMessage(ctx, chatID, ai.RoleAssistant, content)
	})
	if err != nil {
		slog.Error("streaming turn aborted", "chat_id", chatID, "error", err)
		return err
	}
	return nil
}

// respondCollected runs the turn to completion and answers with one JSON
// body. The assistant turn is persisted the same way as in streaming mode.
func (s *Server) respondCollected(c echo.Context, provider ai.StreamProvider, providerName ai.ProviderName, chatID string, generation ai.ChatRequest) error {
	ctx := c.Request().Context()

	response, err := provider.SendMessage(ctx, generation)
	if err != nil {
		return requestError{
			Status:  http.StatusBadGateway,
			Message: err.Error(),
			Type:    "upstream_error",
		}
	}

	if err := s.store.AppendMessage(ctx, chatID, ai.RoleAssistant, response.Content); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, chatResponse{
		ChatID:   chatID,
		Provider: providerName,
		Content:  response.Content,
	})
}

func (s *Server) userID(c echo.Context) (string, error) {
	if s.sessions == nil {
		return "anonymous", nil
	}
	userID, err := s.sessions.UserID(c.Request())
	if err != nil {
		return "", requestError{
			Status:  http.StatusUnauthorized,
			Message: "authentication required",
			Type:    "authentication_error",
		}
	}
	return userID, nil
}
