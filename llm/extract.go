package llm

import (
	"encoding/json"
	"strings"
)

// Extractor pulls reply text out of one known response shape. It reports
// false when the shape does not match or the text is empty.
type Extractor func(resp map[string]any) (string, bool)

// ReplyExtractors is the lookup order for reply text across provider API
// variants. The first extractor that yields text wins.
var ReplyExtractors = []Extractor{
	outputText,
	outputContentText,
	chatMessageContent,
	completionText,
}

// ExtractReply probes body with each extractor in order and returns fallback
// when none of them yields text.
func ExtractReply(body []byte, fallback string) string {
	var resp map[string]any
	if err := json.Unmarshal(body, &resp); err != nil {
		return fallback
	}
	return extractWith(resp, ReplyExtractors, fallback)
}

func extractWith(resp map[string]any, chain []Extractor, fallback string) string {
	for _, extract := range chain {
		if text, ok := extract(resp); ok {
			return text
		}
	}
	return fallback
}

// outputText reads the Responses API convenience field.
func outputText(resp map[string]any) (string, bool) {
	return nonEmpty(resp["output_text"])
}

// outputContentText reads output[].content[].text from the Responses API,
// joining every text part of every message item.
func outputContentText(resp map[string]any) (string, bool) {
	items, ok := resp["output"].([]any)
	if !ok {
		return "", false
	}
	var parts []string
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		content, ok := obj["content"].([]any)
		if !ok {
			continue
		}
		for _, c := range content {
			part, ok := c.(map[string]any)
			if !ok {
				continue
			}
			if typ, _ := part["type"].(string); typ != "" && typ != "output_text" && typ != "text" {
				continue
			}
			if text, ok := nonEmpty(part["text"]); ok {
				parts = append(parts, text)
			}
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, " "), true
}

// chatMessageContent reads choices[0].message.content from Chat Completions.
func chatMessageContent(resp map[string]any) (string, bool) {
	choice, ok := firstChoice(resp)
	if !ok {
		return "", false
	}
	msg, ok := choice["message"].(map[string]any)
	if !ok {
		return "", false
	}
	return nonEmpty(msg["content"])
}

// completionText reads choices[0].text from legacy completions.
func completionText(resp map[string]any) (string, bool) {
	choice, ok := firstChoice(resp)
	if !ok {
		return "", false
	}
	return nonEmpty(choice["text"])
}

func firstChoice(resp map[string]any) (map[string]any, bool) {
	choices, ok := resp["choices"].([]any)
	if !ok || len(choices) == 0 {
		return nil, false
	}
	choice, ok := choices[0].(map[string]any)
	return choice, ok
}

func nonEmpty(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}
