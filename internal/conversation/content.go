package conversation

import (
	"encoding/json"
	"strings"
)

// Part is one element of a multi-part content value as found in legacy
// records and client payloads.
type Part struct {
	Type     string `json:"type" bson:"type"`
	Text     string `json:"text,omitempty" bson:"text,omitempty"`
	ImageURL any    `json:"image_url,omitempty" bson:"image_url,omitempty"`
}

// NormalizeText maps an empty display string to the empty-message placeholder.
func NormalizeText(s string) string {
	if s == "" {
		return PlaceholderEmptyMessage
	}
	return s
}

// FlattenParts joins the text parts of a part list with a space, rendering
// image parts as a marker. An empty result maps to the empty-message placeholder.
func FlattenParts(parts []Part) string {
	texts := make([]string, 0, len(parts))
	for _, p := range parts {
		switch p.Type {
		case "text":
			texts = append(texts, p.Text)
		case "image_url", "image":
			texts = append(texts, PlaceholderImage)
		}
	}
	joined := strings.TrimSpace(strings.Join(texts, " "))
	if joined == "" {
		return PlaceholderEmptyMessage
	}
	return joined
}

// FlattenContent converts a raw JSON content value (string or part list) into
// the display string stored at rest.
func FlattenContent(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return PlaceholderEmptyMessage
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return NormalizeText(s)
	}
	var parts []Part
	if err := json.Unmarshal(raw, &parts); err == nil {
		return FlattenParts(parts)
	}
	return PlaceholderInvalidContent
}

// DisplayContent is the user-facing text of a submitted turn: the prompt plus
// a short reference chip for each non-image attachment.
func DisplayContent(prompt string, attachments []*Attachment) string {
	content := prompt
	chips := make([]string, 0, len(attachments))
	for _, a := range attachments {
		if a == nil || a.IsImage() {
			continue
		}
		chips = append(chips, "[File: "+a.Name+"]")
	}
	if len(chips) > 0 {
		content += "\n\n" + strings.Join(chips, ", ")
	}
	if strings.TrimSpace(content) == "" {
		return PlaceholderEmptyWithFiles
	}
	return content
}

// DeriveTitle returns the first two words of a prompt.
func DeriveTitle(prompt string) string {
	words := strings.Fields(prompt)
	if len(words) > 2 {
		words = words[:2]
	}
	return strings.Join(words, " ")
}

// HasDefaultTitle reports whether the conversation still carries its placeholder title.
func (c Conversation) HasDefaultTitle() bool {
	return strings.EqualFold(strings.TrimSpace(c.Name), DefaultTitle)
}
