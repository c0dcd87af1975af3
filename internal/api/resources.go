package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Resource URIs. Resources follow MCP semantics: a read failure is a real
// protocol error, unlike tool results.
const (
	uriModels  = "openrouter://models"
	uriPricing = "openrouter://pricing"
	uriUsage   = "openrouter://usage"
)

func registerResources(srv *mcp.Server, h *handlers) {
	srv.AddResource(&mcp.Resource{
		URI:         uriModels,
		Name:        "models",
		Description: "Raw OpenRouter model catalog as JSON.",
		MIMEType:    "application/json",
	}, h.readModels)

	srv.AddResource(&mcp.Resource{
		URI:         uriPricing,
		Name:        "pricing",
		Description: "Per-token pricing by model id as JSON.",
		MIMEType:    "application/json",
	}, h.readPricing)

	if h.Usage != nil {
		srv.AddResource(&mcp.Resource{
			URI:         uriUsage,
			Name:        "usage",
			Description: "Accumulated token usage recorded by this server as JSON.",
			MIMEType:    "application/json",
		}, h.readUsage)
	}
}

func (h *handlers) readModels(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	models, err := h.Upstream.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("models resource: %w", err)
	}
	return jsonResource(req.Params.URI, map[string]any{"data": models})
}

func (h *handlers) readPricing(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	models, err := h.Upstream.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("pricing resource: %w", err)
	}

	pricing := make(map[string]any, len(models))
	for _, m := range models {
		pricing[m.ID] = m.Pricing
	}
	return jsonResource(req.Params.URI, pricing)
}

func (h *handlers) readUsage(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	summary, err := h.Usage.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("usage resource: %w", err)
	}
	return jsonResource(req.Params.URI, summary)
}

func jsonResource(uri string, doc any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode resource %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
