package openai

import "github.com/leofalp/chatstream/providers/ai"

// requestToChatCompletion converts an ai.ChatRequest to the OpenAI chat
// completions wire format. OpenAI consumes the flat turn list unchanged:
// system messages stay in place and no role rewriting happens, so this
// normalization is a straight relay and idempotent by construction.
func requestToChatCompletion(request ai.ChatRequest, model string) chatCompletionRequest {
	req := chatCompletionRequest{
		Model:    model,
		Messages: normalizeMessages(request.Messages),
	}

	if request.GenerationConfig != nil {
		if request.GenerationConfig.Temperature > 0 {
			t := request.GenerationConfig.Temperature
			req.Temperature = &t
		}
		if request.GenerationConfig.MaxTokens > 0 {
			m := request.GenerationConfig.MaxTokens
			req.MaxTokens = &m
		}
	}

	return req
}

// normalizeMessages maps the generic message list onto OpenAI's flat shape.
func normalizeMessages(messages []ai.Message) []chatCompletionMessage {
	result := make([]chatCompletionMessage, len(messages))
	for i, msg := range messages {
		result[i] = chatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}
	return result
}

// responseToGeneric converts a chatCompletionResponse to the generic format.
// Only the first choice is considered; this module never requests n > 1.
func responseToGeneric(resp chatCompletionResponse) *ai.ChatResponse {
	choice := resp.Choices[0]

	result := &ai.ChatResponse{
		Id:           resp.ID,
		Model:        resp.Model,
		Object:       resp.Object,
		Created:      resp.Created,
		Content:      choice.Message.Content,
		FinishReason: choice.FinishReason,
	}

	if resp.Usage != nil {
		result.Usage = &ai.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}

	return result
}
