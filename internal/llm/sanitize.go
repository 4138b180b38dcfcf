package llm

import "strings"

// ExtractJSONBlock strips markdown code fences and surrounding prose from a
// model response, returning just the JSON object. Models wrap structured
// output in ```json fences often enough that validating the raw content
// directly fails spuriously.
func ExtractJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return text
	}
	return text[start : end+1]
}
