// Package openrouter defines the wire types shared by the client and its callers.
package openrouter

import "encoding/json"

// Model is one entry from GET /models.
type Model struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	ContextLength int     `json:"context_length"`
	Pricing       Pricing `json:"pricing"`
}

// Pricing holds per-token USD prices as decimal strings, as the API reports them.
type Pricing struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
}

// ChatMessage is a single outbound conversation turn.
type ChatMessage struct {
	Role    string `json:"role"` // "system" | "user" | "assistant"
	Content string `json:"content"`
}

// ChatRequest is the input for a non-streaming chat completion.
// Temperature is a pointer so an explicit 0 still reaches the wire;
// nil leaves the upstream default in effect.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
	// Modalities is set to ["image","text"] by the image tool; omitted otherwise.
	Modalities []string `json:"modalities,omitempty"`
}

// ChatResponse is an OpenAI-compatible chat completion body.
type ChatResponse struct {
	ID      string   `json:"id"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Message      AssistantMessage `json:"message"`
	FinishReason string           `json:"finish_reason"`
}

// AssistantMessage keeps Content raw because upstream sends either a plain
// string or an array of multimodal parts depending on the model.
type AssistantMessage struct {
	Role    string            `json:"role"`
	Content json.RawMessage   `json:"content"`
	Images  []ImageAttachment `json:"images,omitempty"`
}

// Text returns the message content when it is a plain JSON string.
func (m AssistantMessage) Text() (string, bool) {
	var s string
	if err := json.Unmarshal(m.Content, &s); err != nil {
		return "", false
	}
	return s, true
}

// Parts returns the message content when it is a multimodal part array.
func (m AssistantMessage) Parts() ([]ContentPart, bool) {
	var parts []ContentPart
	if err := json.Unmarshal(m.Content, &parts); err != nil {
		return nil, false
	}
	return parts, true
}

// ContentPart is one element of a multimodal content array.
type ContentPart struct {
	Type     string    `json:"type"` // "text" | "image" | "image_url"
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageAttachment is one entry of the assistant message images list.
type ImageAttachment struct {
	Type     string   `json:"type"`
	ImageURL ImageURL `json:"image_url"`
}

type ImageURL struct {
	URL string `json:"url"`
}

// Usage reports token consumption for one completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type modelList struct {
	Data []Model `json:"data"`
}
