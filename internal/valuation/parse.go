package valuation

import "strings"

// extractJSON pulls a JSON object out of model text. Despite asking for
// JSON-only responses the model sometimes wraps the payload in markdown
// fences or prose, so strip fences first and then brace-scan for the
// outermost object.
func extractJSON(text string) (string, error) {
	cleaned := strings.TrimSpace(text)

	if idx := strings.Index(cleaned, "```json"); idx >= 0 {
		cleaned = cleaned[idx+len("```json"):]
		if end := strings.Index(cleaned, "```"); end >= 0 {
			cleaned = cleaned[:end]
		}
	} else if idx := strings.Index(cleaned, "```"); idx >= 0 {
		cleaned = cleaned[idx+len("```"):]
		if end := strings.Index(cleaned, "```"); end >= 0 {
			cleaned = cleaned[:end]
		}
	}
	cleaned = strings.TrimSpace(cleaned)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return "", ErrNoPayload
	}
	return cleaned[start : end+1], nil
}
