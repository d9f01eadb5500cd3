package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

// Text concatenates the text blocks of a response.
func Text(resp *Response) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}

// ParseJSON decodes the first JSON object found in raw model output into out,
// tolerating a markdown code fence around it.
func ParseJSON(raw string, out any) error {
	s := strings.TrimSpace(raw)
	if s == "" {
		return errors.New("llm: empty output")
	}

	s = stripCodeFence(s)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return errors.New("llm: no JSON object in output")
	}
	return json.Unmarshal([]byte(s[start:end+1]), out)
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimSpace(strings.TrimPrefix(s, "```"))
	s = strings.TrimSpace(strings.TrimPrefix(s, "json"))
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = strings.TrimSpace(s[:idx])
	}
	return s
}
