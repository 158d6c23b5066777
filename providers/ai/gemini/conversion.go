package gemini

import (
	"fmt"
	"strings"
	"time"

	"github.com/leofalp/chatstream/providers/ai"
)

// normalizedConversation is the Gemini-shaped view of a generic message list:
// one concatenated system instruction, a running history, and the latest user
// turn extracted separately. This mirrors Gemini's chat-session model, where
// a session is primed with history and the newest user message is sent on
// its own.
type normalizedConversation struct {
	SystemInstruction string
	History           []content
	LatestTurn        *content
}

// normalizeMessages converts the generic message list into the Gemini shape.
//
// All system messages are concatenated (in order, newline-joined) into the
// system instruction. Every other message is relayed into history with
// assistant mapped to "model" and anything else mapped to "user" — except
// the last message, which is split off as the latest turn only when its role
// is user. Otherwise it stays in history and the latest-turn slot is empty.
// Role alternation is not validated; malformed sequences pass through as-is.
func normalizeMessages(messages []ai.Message) normalizedConversation {
	var conversation normalizedConversation
	var systemParts []string

	lastIndex := len(messages) - 1

	for i, msg := range messages {
		if msg.Role == ai.RoleSystem {
			systemParts = append(systemParts, msg.Content)
			continue
		}

		turn := content{
			Role:  mapRole(msg.Role),
			Parts: []part{{Text: msg.Content}},
		}

		if i == lastIndex && msg.Role == ai.RoleUser {
			conversation.LatestTurn = &turn
			continue
		}

		conversation.History = append(conversation.History, turn)
	}

	conversation.SystemInstruction = strings.Join(systemParts, "\n")
	return conversation
}

// mapRole maps a generic role onto Gemini's two-role model:
// assistant -> model, anything else -> user.
func mapRole(role ai.MessageRole) string {
	if role == ai.RoleAssistant {
		return "model"
	}
	return "user"
}

// requestToGemini converts an ai.ChatRequest to a Gemini generateContentRequest.
// History and the latest turn are recombined into the contents slice; the
// split exists so the session-style shape is observable and testable.
func requestToGemini(request ai.ChatRequest) generateContentRequest {
	req := generateContentRequest{}

	conversation := normalizeMessages(request.Messages)

	if conversation.SystemInstruction != "" {
		req.SystemInstruction = &systemInstruction{
			Parts: []part{{Text: conversation.SystemInstruction}},
		}
	}

	req.Contents = conversation.History
	if conversation.LatestTurn != nil {
		req.Contents = append(req.Contents, *conversation.LatestTurn)
	}

	// Build generation config
	if request.GenerationConfig != nil {
		gc := &generationConfig{}
		if request.GenerationConfig.Temperature > 0 {
			t := request.GenerationConfig.Temperature
			gc.Temperature = &t
		}
		if request.GenerationConfig.MaxTokens > 0 {
			m := request.GenerationConfig.MaxTokens
			gc.MaxOutputTokens = &m
		}
		req.GenerationConfig = gc
	}

	return req
}

// geminiToGeneric converts a Gemini generateContentResponse to ai.ChatResponse.
func geminiToGeneric(resp generateContentResponse) *ai.ChatResponse {
	result := &ai.ChatResponse{
		Id:      fmt.Sprintf("gemini-%d", time.Now().UnixNano()),
		Model:   resp.ModelVersion,
		Object:  "chat.completion",
		Created: time.Now().Unix(),
	}

	// Handle empty response
	if len(resp.Candidates) == 0 {
		result.FinishReason = "error"
		return result
	}

	candidate := resp.Candidates[0]
	result.FinishReason = mapFinishReason(candidate.FinishReason)

	if candidate.Content != nil {
		var textParts []string
		for _, p := range candidate.Content.Parts {
			if p.Text != "" {
				textParts = append(textParts, p.Text)
			}
		}
		result.Content = strings.Join(textParts, "\n")
	}

	if resp.UsageMetadata != nil {
		result.Usage = &ai.Usage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		}
	}

	return result
}

// mapFinishReason converts Gemini finish reason to ai.ChatResponse finish reason.
func mapFinishReason(geminiReason string) string {
	switch geminiReason {
	case "STOP":
		return "stop"
	case "MAX_TOKENS":
		return "length"
	case "SAFETY":
		return "content_filter"
	case "RECITATION":
		return "content_filter"
	default:
		return "stop"
	}
}
