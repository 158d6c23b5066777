// Package chatid recovers a durable conversation identifier from arbitrary
// nested response data. It is a fallback used only when no identifier is
// already known at stream completion — for example when the metadata frame
// never arrived — and searches decoded JSON values with a loose shape
// heuristic tuned to hyphenated, collision-resistant identifiers.
package chatid

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// placeholderID is the literal some payloads carry before a real identifier
// has been assigned. It would otherwise satisfy the length heuristic, so it
// is rejected explicitly.
const placeholderID = "pending-conversation-id"

// maxDepth caps recursion into the value graph. The search is expected to
// find an identifier within a handful of levels; deeply nested adversarial
// input must not exhaust the stack.
const maxDepth = 32

// Recover searches a decoded JSON value graph for a plausible conversation
// identifier. Fields named like a chat identifier are preferred over generic
// identifier fields; the search is depth-first and stops globally at the
// first accepted candidate. The second return value reports whether an
// identifier was found.
func Recover(value any) (string, bool) {
	return search(value, 0)
}

// RecoverFromText decodes a raw JSON payload and searches it. Slightly
// malformed JSON (trailing commas, single quotes) is repaired before parsing,
// since payloads here often come from loosely serialised message content.
func RecoverFromText(payload string) (string, bool) {
	decoded, ok := decodeTolerant(payload)
	if !ok {
		return "", false
	}
	return Recover(decoded)
}

func decodeTolerant(payload string) (any, bool) {
	var decoded any
	if err := json.Unmarshal([]byte(payload), &decoded); err == nil {
		return decoded, true
	}

	repaired, err := jsonrepair.JSONRepair(payload)
	if err != nil {
		return nil, false
	}
	if err := json.Unmarshal([]byte(repaired), &decoded); err != nil {
		return nil, false
	}
	return decoded, true
}

func search(value any, depth int) (string, bool) {
	if depth > maxDepth {
		return "", false
	}

	switch node := value.(type) {
	case map[string]any:
		// Chat-identifier fields win over generic identifier fields on the
		// same node.
		for _, key := range []string{"chatId", "chat_id"} {
			if candidate, ok := node[key].(string); ok && plausible(candidate) {
				return candidate, true
			}
		}
		if candidate, ok := node["id"].(string); ok && plausible(candidate) {
			return candidate, true
		}

		// Field order within a structure is unspecified; the first accepted
		// match anywhere in the graph wins.
		for _, child := range node {
			if id, ok := search(child, depth+1); ok {
				return id, true
			}
		}

	case []any:
		for _, child := range node {
			if id, ok := search(child, depth+1); ok {
				return id, true
			}
		}
	}

	return "", false
}

// plausible is the acceptance test for a candidate identifier. It rejects
// the placeholder literal and anything too short to be collision-resistant,
// then accepts hyphenated values longer than 20 characters or any value
// longer than 15. This is a deliberately loose heuristic tuned to the one
// observed identifier format, not a general validator.
func plausible(candidate string) bool {
	if candidate == placeholderID || len(candidate) <= 10 {
		return false
	}
	if strings.Contains(candidate, "-") && len(candidate) > 20 {
		return true
	}
	return len(candidate) > 15
}
