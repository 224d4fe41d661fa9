package catalog

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxPayloadChars bounds a single tool Result's Payload so one noisy call
// (a pod list, a log tail) cannot blow out the session's token budget.
// Expressed directly in characters since catalog callers don't carry a
// token estimator.
const MaxPayloadChars = 32000

// TruncatePayload cuts content at the last newline before MaxPayloadChars
// so structured text (JSON, YAML, log lines) isn't split mid-record, and
// reports whether truncation happened plus a human-readable reason.
func TruncatePayload(content string) (truncated string, didTruncate bool, reason string) {
	if len(content) <= MaxPayloadChars {
		return content, false, ""
	}

	cut := MaxPayloadChars
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	head := content[:cut]
	if idx := strings.LastIndex(head, "\n"); idx > 0 {
		head = head[:idx]
	}
	reason = fmt.Sprintf("output exceeded %d character limit (original %d)", MaxPayloadChars, len(content))
	return head, true, reason
}
