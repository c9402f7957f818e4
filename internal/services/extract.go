package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// modelOutput is the contract every exchange completion must satisfy.
type modelOutput struct {
	Reply          string `json:"reply"`
	ContextSummary string `json:"context_summary"`
}

// extractModelOutput parses the raw completion text into the reply and the
// replacement context summary. The model is told to answer with a plain
// JSON object but routinely wraps it in a fenced code block anyway, so a
// single fence is stripped before parsing. Anything else is a hard failure:
// the exchange aborts rather than persisting a half-understood reply.
func extractModelOutput(raw string) (reply, summary string, err error) {
	text := stripFence(strings.TrimSpace(raw))

	decoder := json.NewDecoder(bytes.NewReader([]byte(text)))
	decoder.DisallowUnknownFields()

	var out modelOutput
	if err := decoder.Decode(&out); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrBadModelOutput, err)
	}
	if decoder.More() {
		return "", "", fmt.Errorf("%w: trailing data after JSON object", ErrBadModelOutput)
	}
	if out.Reply == "" || out.ContextSummary == "" {
		return "", "", fmt.Errorf("%w: reply or context_summary missing", ErrBadModelOutput)
	}

	return out.Reply, out.ContextSummary, nil
}

// stripFence removes one surrounding markdown code fence, with or without a
// language tag. Inner content is returned untouched.
func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") || !strings.HasSuffix(text, "```") || len(text) < 6 {
		return text
	}

	inner := strings.TrimSuffix(strings.TrimPrefix(text, "```"), "```")
	// Drop a language tag such as "json" on the opening fence line.
	if idx := strings.IndexByte(inner, '\n'); idx >= 0 {
		firstLine := strings.TrimSpace(inner[:idx])
		if firstLine == "" || isFenceLanguageTag(firstLine) {
			inner = inner[idx+1:]
		}
	}

	return strings.TrimSpace(inner)
}

func isFenceLanguageTag(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
