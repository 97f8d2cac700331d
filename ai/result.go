package ai

import (
	"encoding/json"
	"strings"
)

// Result is the tagged completion reply. Text always carries the
// user-visible answer; FileTree is only set when the upstream reply
// embedded a generated file tree.
type Result struct {
	Text     string            `json:"text"`
	FileTree map[string]string `json:"fileTree,omitempty"`
}

// structured mirrors the JSON shape some model replies wrap in a markdown
// code fence.
type structured struct {
	Text     string                  `json:"text"`
	FileTree map[string]fileContents `json:"fileTree"`
}

type fileContents struct {
	Contents string `json:"contents"`
	File     struct {
		Contents string `json:"contents"`
	} `json:"file"`
}

// ParseResult converts a raw completion reply into a Result. Replies that
// wrap a JSON blob in a ```json fence are unwrapped and parsed once here;
// anything malformed degrades to plain text rather than failing.
func ParseResult(raw string) *Result {
	body, ok := unfence(raw)
	if !ok {
		return &Result{Text: raw}
	}

	var parsed structured
	if err := json.Unmarshal([]byte(body), &parsed); err != nil || parsed.Text == "" {
		return &Result{Text: raw}
	}

	result := &Result{Text: parsed.Text}
	if len(parsed.FileTree) > 0 {
		result.FileTree = make(map[string]string, len(parsed.FileTree))
		for path, f := range parsed.FileTree {
			contents := f.Contents
			if contents == "" {
				contents = f.File.Contents
			}
			result.FileTree[path] = contents
		}
	}

	return result
}

func unfence(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)

	for _, fence := range []string{"```json", "```"} {
		if strings.HasPrefix(trimmed, fence) {
			body := strings.TrimPrefix(trimmed, fence)
			if end := strings.LastIndex(body, "```"); end >= 0 {
				return strings.TrimSpace(body[:end]), true
			}
			return "", false
		}
	}

	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		return trimmed, true
	}

	return "", false
}
