// Package openai implements the [ai.StreamProvider] contract on top of
// OpenAI's chat completions API, including SSE streaming with the [DONE]
// sentinel convention.
package openai
