package anthropic

import (
	"strings"

	"github.com/leofalp/chatstream/providers/ai"
)

// requestToAnthropic converts an ai.ChatRequest to the Anthropic Messages
// wire format. System messages are concatenated (in order, newline-joined)
// into the top-level system string; all non-system messages pass through
// unchanged, in order, as the flat turn list. Role alternation is not
// validated — Anthropic may reject malformed sequences and that surfaces as
// a provider error.
func requestToAnthropic(request ai.ChatRequest, model string) anthropicRequest {
	var systemParts []string
	var messages []anthropicMessage

	for _, msg := range request.Messages {
		if msg.Role == ai.RoleSystem {
			systemParts = append(systemParts, msg.Content)
			continue
		}
		messages = append(messages, anthropicMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	req := anthropicRequest{
		Model:     model,
		Messages:  messages,
		System:    strings.Join(systemParts, "\n"),
		MaxTokens: ai.DefaultMaxTokens, // Anthropic requires max_tokens on every request
	}

	if request.GenerationConfig != nil {
		if request.GenerationConfig.Temperature > 0 {
			t := request.GenerationConfig.Temperature
			req.Temperature = &t
		}
		if request.GenerationConfig.MaxTokens > 0 {
			req.MaxTokens = request.GenerationConfig.MaxTokens
		}
	}

	return req
}

// anthropicToGeneric converts an anthropicResponse to the generic format.
// Text blocks are concatenated in order; non-text blocks are ignored.
func anthropicToGeneric(resp anthropicResponse) *ai.ChatResponse {
	var textParts []string
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != "" {
			textParts = append(textParts, block.Text)
		}
	}

	return &ai.ChatResponse{
		Id:           resp.ID,
		Model:        resp.Model,
		Object:       "chat.completion",
		Content:      strings.Join(textParts, ""),
		FinishReason: mapStopReason(resp.StopReason),
		Usage: &ai.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}
}

// mapStopReason normalises Anthropic stop reasons to the canonical set used
// across providers.
func mapStopReason(stopReason string) string {
	switch stopReason {
	case "end_turn", "stop_sequence":
		return "stop"
	case "max_tokens":
		return "length"
	case "refusal":
		return "content_filter"
	default:
		return stopReason
	}
}
