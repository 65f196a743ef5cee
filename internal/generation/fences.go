package generation

import "strings"

// StripFences removes a markdown code fence wrapping the whole reply.
// Replies with text outside the fence are returned unchanged.
func StripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") || len(trimmed) < 6 {
		return text
	}

	body := strings.TrimSuffix(trimmed, "```")
	nl := strings.IndexByte(body, '\n')
	if nl < 0 {
		return text
	}
	// first line is the opening fence with an optional language tag
	if strings.Contains(body[3:nl], "`") {
		return text
	}
	body = body[nl+1:]
	if strings.Contains(body, "\n```") {
		return text
	}
	return strings.TrimRight(body, "\n") + "\n"
}
