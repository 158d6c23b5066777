// Package gemini implements the [ai.StreamProvider] contract on top of
// Google's Gemini generateContent API.
//
// Gemini differs from the other backends in two ways this package absorbs:
// the conversation is reshaped into a system instruction plus a
// history/latest-turn split, and streaming events carry cumulative text
// rather than deltas, so deltas are derived locally.
package gemini
