package reason

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	thinkPattern = regexp.MustCompile(`(?s)<think>.*?</think>`)
)

// unparsedResponse is substituted when no JSON object can be recovered
func unparsedResponse() map[string]any {
	return map[string]any{
		"verdict":    "Needs Review",
		"reasoning":  "Could not parse structured response",
		"confidence": 0.3,
	}
}

// ExtractJSON recovers a JSON object from model output. It tries the whole
// text, then fenced or think-stripped text, then the span from the first '{'
// to the last '}'. When all fail it returns the unparsed-response template.
func ExtractJSON(text string) map[string]any {
	obj, _ := extractObject(text)
	return obj
}

func extractObject(text string) (map[string]any, bool) {
	text = strings.TrimSpace(text)
	if obj, ok := parseObject(text); ok {
		return obj, true
	}

	cleaned := thinkPattern.ReplaceAllString(text, "")
	if m := fencePattern.FindStringSubmatch(cleaned); len(m) > 1 {
		cleaned = m[1]
	}
	cleaned = strings.TrimSpace(cleaned)
	if obj, ok := parseObject(cleaned); ok {
		return obj, true
	}

	for _, candidate := range []string{cleaned, text} {
		start := strings.Index(candidate, "{")
		end := strings.LastIndex(candidate, "}")
		if start >= 0 && end > start {
			if obj, ok := parseObject(candidate[start : end+1]); ok {
				return obj, true
			}
		}
	}

	return unparsedResponse(), false
}

func parseObject(s string) (map[string]any, bool) {
	if s == "" {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}
