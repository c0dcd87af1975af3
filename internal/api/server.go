// Package api exposes the OpenRouter adapter as an MCP server: five tools
// and three resources. The SDK dispatcher rejects unknown tools and
// schema-invalid arguments before handlers run; everything a handler itself
// can get wrong (upstream errors, filesystem errors, missing models) is
// converted to a plain-text payload inside a successful protocol response,
// so the calling client always receives a well-formed envelope.
package api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/modelrelay/openrouter-mcp/internal/domain/image"
	"github.com/modelrelay/openrouter-mcp/internal/domain/usage"
	"github.com/modelrelay/openrouter-mcp/internal/infra/openrouter"
	"github.com/modelrelay/openrouter-mcp/internal/version"
)

// serverName identifies this implementation to MCP clients.
const serverName = "openrouter-mcp"

// Upstream is the slice of the OpenRouter client the MCP surface depends on.
type Upstream interface {
	ListModels(ctx context.Context) ([]openrouter.Model, error)
	ChatCompletion(ctx context.Context, req openrouter.ChatRequest) (*openrouter.ChatResponse, error)
	ChatCompletionRaw(ctx context.Context, req openrouter.ChatRequest) (*openrouter.RawResult, error)
}

// Deps carries everything the MCP surface needs.
type Deps struct {
	Upstream Upstream
	Usage    *usage.Recorder   // nil disables usage recording and the usage resource
	ImageLog *image.RequestLog // request log for generate_image
	ImageDir string            // default save directory for generated images
	Logger   *slog.Logger
}

// handlers binds the tool and resource implementations to their dependencies.
type handlers struct {
	Deps
}

// New builds the MCP server with all tools and resources registered.
func New(d Deps) *mcp.Server {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	h := &handlers{Deps: d}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: version.Version,
	}, nil)

	registerTools(srv, h)
	registerResources(srv, h)
	return srv
}

// textResult wraps a string as the single content block of a tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// errorResult renders a handler failure as a text payload. The protocol call
// still succeeds; clients detect failure by reading the text.
func errorResult(tool string, err error) *mcp.CallToolResult {
	return textResult(fmt.Sprintf("Error in %s: %v", tool, err))
}
