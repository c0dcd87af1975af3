package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/modelrelay/openrouter-mcp/internal/domain/compare"
	"github.com/modelrelay/openrouter-mcp/internal/domain/usage"
	"github.com/modelrelay/openrouter-mcp/internal/infra/openrouter"
)

// Argument defaults, applied in handlers when the field is omitted.
const (
	defaultChatMaxTokens    = 1000
	defaultChatTemperature  = 0.7
	defaultCompareMaxTokens = 500
	defaultImageModel       = "google/gemini-2.5-flash-image-preview"
)

func registerTools(srv *mcp.Server, h *handlers) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_models",
		Description: "List all models available on OpenRouter with context length and pricing.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, h.listModels)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "chat_with_model",
		Description: "Send a message to a specific OpenRouter model and return its reply.",
		InputSchema: &jsonschema.Schema{
			Type:     "object",
			Required: []string{"model", "message"},
			Properties: map[string]*jsonschema.Schema{
				"model":   {Type: "string", Description: "Model identifier, e.g. openai/gpt-4"},
				"message": {Type: "string", Description: "User message to send"},
				"max_tokens": {
					Type: "integer", Minimum: ptr(1.0),
					Description: "Maximum completion tokens", Default: json.RawMessage(`1000`),
				},
				"temperature": {
					Type:        "number",
					Description: "Sampling temperature", Default: json.RawMessage(`0.7`),
				},
				"system_prompt": {Type: "string", Description: "Optional system prompt"},
			},
		},
	}, h.chatWithModel)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "compare_models",
		Description: "Send one message to several models in parallel and collate the replies.",
		InputSchema: &jsonschema.Schema{
			Type:     "object",
			Required: []string{"models", "message"},
			Properties: map[string]*jsonschema.Schema{
				"models": {
					Type:     "array",
					Items:    &jsonschema.Schema{Type: "string"},
					MinItems: ptr(1),
					Description: "Model identifiers to query; order is preserved in the report",
				},
				"message": {Type: "string", Description: "User message to send to every model"},
				"max_tokens": {
					Type: "integer", Minimum: ptr(1.0),
					Description: "Maximum completion tokens per model", Default: json.RawMessage(`500`),
				},
			},
		},
	}, h.compareModels)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_model_info",
		Description: "Fetch metadata (name, description, context length, pricing) for one model.",
		InputSchema: &jsonschema.Schema{
			Type:     "object",
			Required: []string{"model"},
			Properties: map[string]*jsonschema.Schema{
				"model": {Type: "string", Description: "Model identifier to look up"},
			},
		},
	}, h.getModelInfo)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "generate_image",
		Description: "Ask an image-capable model for an image and save it to disk.",
		InputSchema: &jsonschema.Schema{
			Type:     "object",
			Required: []string{"message"},
			Properties: map[string]*jsonschema.Schema{
				"message": {Type: "string", Description: "Image prompt"},
				"model": {
					Type: "string", Description: "Image-capable model",
					Default: json.RawMessage(`"` + defaultImageModel + `"`),
				},
				"save_dir": {Type: "string", Description: "Directory for the saved image"},
			},
		},
	}, h.generateImage)
}

func ptr[T any](v T) *T { return &v }

// ---- list_models ----

type listModelsArgs struct{}

func (h *handlers) listModels(ctx context.Context, _ *mcp.CallToolRequest, _ listModelsArgs) (*mcp.CallToolResult, any, error) {
	models, err := h.Upstream.ListModels(ctx)
	if err != nil {
		return errorResult("list_models", err), nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Available models (%d):\n\n", len(models))
	for _, m := range models {
		fmt.Fprintf(&b, "%s", m.ID)
		if m.Name != "" {
			fmt.Fprintf(&b, " (%s)", m.Name)
		}
		b.WriteString("\n")
		if m.ContextLength > 0 {
			fmt.Fprintf(&b, "  Context length: %d\n", m.ContextLength)
		}
		fmt.Fprintf(&b, "  Pricing: prompt %s / completion %s per token\n", m.Pricing.Prompt, m.Pricing.Completion)
	}
	return textResult(b.String()), nil, nil
}

// ---- chat_with_model ----

type chatArgs struct {
	Model        string   `json:"model"`
	Message      string   `json:"message"`
	MaxTokens    int      `json:"max_tokens,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	SystemPrompt string   `json:"system_prompt,omitempty"`
}

func (h *handlers) chatWithModel(ctx context.Context, _ *mcp.CallToolRequest, args chatArgs) (*mcp.CallToolResult, any, error) {
	if args.MaxTokens <= 0 {
		args.MaxTokens = defaultChatMaxTokens
	}
	temperature := args.Temperature
	if temperature == nil {
		temperature = ptr(defaultChatTemperature)
	}

	messages := make([]openrouter.ChatMessage, 0, 2)
	if args.SystemPrompt != "" {
		messages = append(messages, openrouter.ChatMessage{Role: "system", Content: args.SystemPrompt})
	}
	messages = append(messages, openrouter.ChatMessage{Role: "user", Content: args.Message})

	resp, err := h.Upstream.ChatCompletion(ctx, openrouter.ChatRequest{
		Model:       args.Model,
		Messages:    messages,
		MaxTokens:   args.MaxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return errorResult("chat_with_model", err), nil, nil
	}

	h.recordUsage(ctx, "chat_with_model", args.Model, resp.Usage)

	text := ""
	if len(resp.Choices) > 0 {
		text, _ = resp.Choices[0].Message.Text()
	}
	out := fmt.Sprintf("Model: %s\n\n%s\n\nTotal tokens: %d", args.Model, strings.TrimSpace(text), resp.Usage.TotalTokens)
	return textResult(out), nil, nil
}

// ---- compare_models ----

type compareArgs struct {
	Models    []string `json:"models"`
	Message   string   `json:"message"`
	MaxTokens int      `json:"max_tokens,omitempty"`
}

func (h *handlers) compareModels(ctx context.Context, _ *mcp.CallToolRequest, args compareArgs) (*mcp.CallToolResult, any, error) {
	// Also enforced by the input schema; guards direct in-process calls.
	if len(args.Models) == 0 {
		return errorResult("compare_models", fmt.Errorf("models must not be empty")), nil, nil
	}
	if args.MaxTokens <= 0 {
		args.MaxTokens = defaultCompareMaxTokens
	}

	results := compare.Run(ctx, h.Upstream, args.Models, args.Message, args.MaxTokens)
	for _, res := range results {
		if res.OK() {
			h.recordUsage(ctx, "compare_models", res.Model, res.Usage)
		}
	}
	return textResult(compare.FormatReport(results)), nil, nil
}

// ---- get_model_info ----

type modelInfoArgs struct {
	Model string `json:"model"`
}

func (h *handlers) getModelInfo(ctx context.Context, _ *mcp.CallToolRequest, args modelInfoArgs) (*mcp.CallToolResult, any, error) {
	models, err := h.Upstream.ListModels(ctx)
	if err != nil {
		return errorResult("get_model_info", err), nil, nil
	}

	for _, m := range models {
		if m.ID != args.Model {
			continue
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Model: %s\n", m.ID)
		if m.Name != "" {
			fmt.Fprintf(&b, "Name: %s\n", m.Name)
		}
		if m.Description != "" {
			fmt.Fprintf(&b, "Description: %s\n", m.Description)
		}
		fmt.Fprintf(&b, "Context length: %d\n", m.ContextLength)
		fmt.Fprintf(&b, "Pricing: prompt %s / completion %s per token\n", m.Pricing.Prompt, m.Pricing.Completion)
		return textResult(b.String()), nil, nil
	}

	return textResult(fmt.Sprintf("Model %q not found on OpenRouter. Use list_models to see available models.", args.Model)), nil, nil
}

// recordUsage appends to the ledger; failures are logged, never surfaced.
func (h *handlers) recordUsage(ctx context.Context, tool, model string, u openrouter.Usage) {
	if h.Usage == nil {
		return
	}
	err := h.Usage.Record(ctx, usage.Record{
		Tool:             tool,
		Model:            model,
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	})
	if err != nil {
		h.Logger.Warn("usage recording failed", "tool", tool, "model", model, "error", err)
	}
}
