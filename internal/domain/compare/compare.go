// Package compare runs one prompt against several models in parallel.
// Each branch settles independently: a failing model is reported in its own
// section and never cancels or contaminates its siblings.
package compare

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/modelrelay/openrouter-mcp/internal/infra/openrouter"
)

// Caller is the single upstream operation the comparator needs.
type Caller interface {
	ChatCompletion(ctx context.Context, req openrouter.ChatRequest) (*openrouter.ChatResponse, error)
}

// Result is the outcome of one branch. Err set means the branch failed.
type Result struct {
	Model string
	Text  string
	Usage openrouter.Usage
	Err   error
}

// OK reports whether the branch succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Run dispatches one chat completion per model concurrently and waits for all
// branches to settle. Output order matches input order; duplicates in models
// produce independent branches. Branch goroutines always return nil so the
// group never short-circuits.
func Run(ctx context.Context, caller Caller, models []string, message string, maxTokens int) []Result {
	results := make([]Result, len(models))

	var g errgroup.Group
	for i, model := range models {
		g.Go(func() error {
			resp, err := caller.ChatCompletion(ctx, openrouter.ChatRequest{
				Model:     model,
				Messages:  []openrouter.ChatMessage{{Role: "user", Content: message}},
				MaxTokens: maxTokens,
			})
			if err != nil {
				results[i] = Result{Model: model, Err: err}
				return nil
			}
			results[i] = Result{
				Model: model,
				Text:  responseText(resp),
				Usage: resp.Usage,
			}
			return nil
		})
	}
	g.Wait() //nolint:errcheck // branches never return errors; outcomes live in results

	return results
}

// divider separates per-model sections in the report.
const divider = "\n---\n\n"

// FormatReport renders the outcomes in their original order.
func FormatReport(results []Result) string {
	sections := make([]string, 0, len(results))
	for _, res := range results {
		var b strings.Builder
		fmt.Fprintf(&b, "Model: %s\n", res.Model)
		if res.Err != nil {
			fmt.Fprintf(&b, "ERROR: %v\n", res.Err)
		} else {
			b.WriteString(strings.TrimSpace(res.Text))
			b.WriteString("\n")
			fmt.Fprintf(&b, "Total tokens: %d\n", res.Usage.TotalTokens)
		}
		sections = append(sections, b.String())
	}
	return strings.Join(sections, divider)
}

func responseText(resp *openrouter.ChatResponse) string {
	if len(resp.Choices) == 0 {
		return ""
	}
	msg := resp.Choices[0].Message
	if text, ok := msg.Text(); ok {
		return text
	}
	// Multimodal content: concatenate the text parts.
	parts, ok := msg.Parts()
	if !ok {
		return ""
	}
	var b strings.Builder
	for _, p := range parts {
		if p.Type == "text" {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}
