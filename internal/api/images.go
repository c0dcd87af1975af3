package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/modelrelay/openrouter-mcp/internal/domain/image"
	"github.com/modelrelay/openrouter-mcp/internal/infra/openrouter"
)

type imageArgs struct {
	Message string `json:"message"`
	Model   string `json:"model,omitempty"`
	SaveDir string `json:"save_dir,omitempty"`
}

// generateImage asks an image-capable model for an image, logs the full
// request/response cycle, then extracts and saves the first image payload.
// The log append happens before extraction so failed generations are kept.
func (h *handlers) generateImage(ctx context.Context, _ *mcp.CallToolRequest, args imageArgs) (*mcp.CallToolResult, any, error) {
	if args.Model == "" {
		args.Model = defaultImageModel
	}
	if args.SaveDir == "" {
		args.SaveDir = h.ImageDir
	}

	raw, err := h.Upstream.ChatCompletionRaw(ctx, openrouter.ChatRequest{
		Model:      args.Model,
		Messages:   []openrouter.ChatMessage{{Role: "user", Content: args.Message}},
		Modalities: []string{"image", "text"},
	})
	if err != nil {
		return errorResult("generate_image", err), nil, nil
	}

	if h.ImageLog != nil {
		logErr := h.ImageLog.Append(image.LogEntry{
			Model:      args.Model,
			Message:    args.Message,
			SaveTarget: args.SaveDir,
			Request:    image.RawOrQuoted(raw.RequestBody),
			Response:   image.RawOrQuoted(raw.ResponseBody),
			HTTPStatus: raw.StatusCode,
		})
		if logErr != nil {
			h.Logger.Warn("image request log append failed", "error", logErr)
		}
	}

	if raw.StatusCode < 200 || raw.StatusCode >= 300 {
		return errorResult("generate_image",
			fmt.Errorf("upstream status %d: %s", raw.StatusCode, openrouter.Excerpt(raw.ResponseBody))), nil, nil
	}

	resp, err := raw.Decode()
	if err != nil {
		return errorResult("generate_image", err), nil, nil
	}

	h.recordUsage(ctx, "generate_image", args.Model, resp.Usage)

	img, err := image.Extract(resp)
	if errors.Is(err, image.ErrNoImage) {
		return textResult(fmt.Sprintf(
			"No image data found in the response from %s. The model may have replied with text only; try a different prompt or an image-capable model.",
			args.Model)), nil, nil
	}
	if err != nil {
		return errorResult("generate_image", err), nil, nil
	}

	path, err := image.Save(args.SaveDir, img)
	if err != nil {
		return errorResult("generate_image", err), nil, nil
	}

	return textResult(fmt.Sprintf("Image generated by %s and saved to %s\nTotal tokens: %d",
		args.Model, path, resp.Usage.TotalTokens)), nil, nil
}
