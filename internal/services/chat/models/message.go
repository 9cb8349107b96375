package models

import (
	"bytes"
	"encoding/json"
)

// ContentKind tells the two message content shapes apart.
type ContentKind int

const (
	ContentText ContentKind = iota
	ContentStructured
)

// Content is a message body: either plain text or an arbitrary JSON value.
type Content struct {
	Kind ContentKind
	Text string
	Raw  json.RawMessage
}

func Text(s string) Content {
	return Content{Kind: ContentText, Text: s}
}

func Structured(raw json.RawMessage) Content {
	return Content{Kind: ContentStructured, Raw: raw}
}

func (c *Content) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*c = Text(s)
		return nil
	}
	*c = Structured(append(json.RawMessage(nil), trimmed...))
	return nil
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.Kind == ContentStructured {
		if len(c.Raw) == 0 {
			return []byte("null"), nil
		}
		return c.Raw, nil
	}
	return json.Marshal(c.Text)
}

// String renders the content as the agent expects it. Structured content
// becomes its compact JSON text.
func (c Content) String() string {
	if c.Kind == ContentText {
		return c.Text
	}
	if len(c.Raw) == 0 {
		return "null"
	}
	var b bytes.Buffer
	if err := json.Compact(&b, c.Raw); err != nil {
		return string(c.Raw)
	}
	return b.String()
}

type Message struct {
	Role    string  `json:"role" validate:"required"`
	Content Content `json:"content"`
}

// ChatRequest is the body accepted by the chat proxy endpoint.
type ChatRequest struct {
	Messages []Message `json:"messages" validate:"required,min=1,dive"`
	ThreadID string    `json:"threadId,omitempty"`
}

// ChatResponse is the normalized agent answer.
type ChatResponse struct {
	Message      string          `json:"message"`
	ThreadID     string          `json:"threadId,omitempty"`
	FullResponse json.RawMessage `json:"fullResponse"`
}
