// Package ai defines the provider-agnostic chat completion contract shared by
// every backend adapter: the message and request/response types, the
// [Provider] and [StreamProvider] interfaces, and the [ChatStream] lazy
// sequence used for incremental responses.
//
// Concrete adapters live in the openai, gemini and anthropic subpackages.
// Selection between them is handled by the providers/registry package.
package ai
