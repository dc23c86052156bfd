package llm

import (
	"regexp"
	"strings"
)

var fencedBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// extractJSON strips markdown fences or surrounding chatter from a model reply.
// Text without a recognizable object is returned trimmed and unchanged.
func extractJSON(response string) string {
	if m := fencedBlockRegex.FindStringSubmatch(response); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start != -1 && end > start {
		return response[start : end+1]
	}

	return strings.TrimSpace(response)
}
