// Package anthropic implements the [ai.StreamProvider] contract on top of
// Anthropic's Messages API, including its multi-event SSE lifecycle.
package anthropic
