// Package client is a small Go client for the chat streaming API. It drives
// the wire decoder over the response body and hands running totals to the
// caller as they arrive.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/leofalp/chatstream/core/chatid"
	"github.com/leofalp/chatstream/core/wire"
	"github.com/leofalp/chatstream/internal/utils"
)

const defaultRequestTimeout = 5 * time.Minute

// Client talks to one chatstream server.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a Client for the given base URL, e.g. "http://localhost:8080".
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}
}

// WithToken sets the bearer token sent on every request.
func (c *Client) WithToken(token string) *Client {
	c.token = token
	return c
}

// WithHttpClient overrides the underlying HTTP client.
func (c *Client) WithHttpClient(httpClient *http.Client) *Client {
	c.httpClient = httpClient
	return c
}

// SendOptions parameterise one generation turn.
type SendOptions struct {
	ChatID      string
	Message     string
	Provider    string
	Temperature float64
	MaxTokens   int

	// OnContent, when non-nil, receives the running total after every
	// content frame.
	OnContent func(total string)
}

// Turn is the outcome of one completed generation.
type Turn struct {
	ChatID  string
	Content string
}

// Chat mirrors the server's chat listing entry.
type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Providers mirrors GET /api/providers.
type Providers struct {
	Default   string   `json:"default"`
	Available []string `json:"available"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Send runs one streaming turn and returns the conversation identifier and
// the full assistant text. When the server never announced an identifier in
// a metadata frame, Send falls back to listing the chats and recovering a
// plausible identifier from the raw listing payload.
func (c *Client) Send(ctx context.Context, opts SendOptions) (Turn, error) {
	if opts.Message == "" {
		return Turn{}, errors.New("message must not be empty")
	}

	body := map[string]any{"message": opts.Message}
	if opts.ChatID != "" {
		body["chat_id"] = opts.ChatID
	}
	if opts.Provider != "" {
		body["provider"] = opts.Provider
	}
	if opts.Temperature > 0 {
		body["temperature"] = opts.Temperature
	}
	if opts.MaxTokens > 0 {
		body["max_tokens"] = opts.MaxTokens
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Turn{}, fmt.Errorf("marshal request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return Turn{}, fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "text/event-stream")
	c.authorize(request)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return Turn{}, fmt.Errorf("send chat request: %w", err)
	}
	defer utils.CloseWithLog(response.Body)

	if response.StatusCode != http.StatusOK {
		return Turn{}, c.decodeError(response)
	}

	chatID := opts.ChatID
	decoder := wire.NewDecoder(response.Body)
	content, err := decoder.Decode(ctx, wire.DecodeCallbacks{
		OnMetadata: func(id string) { chatID = id },
		OnContent:  opts.OnContent,
	})
	if err != nil {
		return Turn{}, err
	}

	if chatID == "" {
		chatID = c.recoverChatID(ctx)
	}

	return Turn{ChatID: chatID, Content: content}, nil
}

// ListChats returns the caller's chats, newest first.
func (c *Client) ListChats(ctx context.Context) ([]Chat, error) {
	raw, err := c.get(ctx, "/api/chats")
	if err != nil {
		return nil, err
	}

	var decoded struct {
		Chats []Chat `json:"chats"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode chat listing: %w", err)
	}
	return decoded.Chats, nil
}

// ListProviders returns the server's provider availability.
func (c *Client) ListProviders(ctx context.Context) (Providers, error) {
	raw, err := c.get(ctx, "/api/providers")
	if err != nil {
		return Providers{}, err
	}

	var decoded Providers
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Providers{}, fmt.Errorf("decode provider listing: %w", err)
	}
	return decoded, nil
}

// recoverChatID is the fallback when no metadata frame arrived: fetch the
// chat listing and search the raw payload for a plausible identifier. A
// failure here is non-fatal; the turn simply has no known identifier.
func (c *Client) recoverChatID(ctx context.Context) string {
	raw, err := c.get(ctx, "/api/chats")
	if err != nil {
		return ""
	}
	if id, ok := chatid.RecoverFromText(string(raw)); ok {
		return id
	}
	return ""
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.authorize(request)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	defer utils.CloseWithLog(response.Body)

	if response.StatusCode != http.StatusOK {
		return nil, c.decodeError(response)
	}
	return io.ReadAll(response.Body)
}

func (c *Client) authorize(request *http.Request) {
	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *Client) decodeError(response *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(response.Body, 1<<16))

	var decoded apiError
	if err := json.Unmarshal(raw, &decoded); err == nil && decoded.Error.Message != "" {
		return fmt.Errorf("server returned %d (%s): %s", response.StatusCode, decoded.Error.Type, decoded.Error.Message)
	}
	return fmt.Errorf("server returned %d: %s", response.StatusCode, utils.TruncateString(string(raw), 200))
}
