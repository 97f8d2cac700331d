package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseResultPlainText(t *testing.T) {
	result := ParseResult("Just a normal answer.")
	assert.Equal(t, "Just a normal answer.", result.Text)
	assert.Nil(t, result.FileTree)
}

func TestParseResultJSONFence(t *testing.T) {
	raw := "```json\n{\"text\": \"Here is your project\", \"fileTree\": {\"main.go\": {\"contents\": \"package main\"}}}\n```"

	result := ParseResult(raw)
	assert.Equal(t, "Here is your project", result.Text)
	assert.Equal(t, "package main", result.FileTree["main.go"])
}

func TestParseResultNestedFileShape(t *testing.T) {
	raw := "```json\n{\"text\": \"done\", \"fileTree\": {\"index.js\": {\"file\": {\"contents\": \"console.log(1)\"}}}}\n```"

	result := ParseResult(raw)
	assert.Equal(t, "done", result.Text)
	assert.Equal(t, "console.log(1)", result.FileTree["index.js"])
}

func TestParseResultBareJSON(t *testing.T) {
	result := ParseResult(`{"text": "no fence needed"}`)
	assert.Equal(t, "no fence needed", result.Text)
}

func TestParseResultMalformedDegradesToText(t *testing.T) {
	raw := "```json\n{\"text\": broken\n```"

	result := ParseResult(raw)
	assert.Equal(t, raw, result.Text)
	assert.Nil(t, result.FileTree)
}

func TestParseResultFenceWithoutText(t *testing.T) {
	raw := "```json\n{\"fileTree\": {}}\n```"

	// A structured reply with no text field is not trusted; the raw reply
	// is surfaced instead.
	result := ParseResult(raw)
	assert.Equal(t, raw, result.Text)
}
