// Package image pulls generated images out of chat completion responses.
// Models return images in several shapes; extraction tries a fixed priority
// order and the first hit wins:
//  1. the dedicated images list on the first choice message
//  2. an inline data URI inside plain string content
//  3. an image part inside a multimodal content array
package image

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/modelrelay/openrouter-mcp/internal/infra/openrouter"
)

// ErrNoImage means the model answered without any image payload.
// Callers report it as a normal outcome, not a failure.
var ErrNoImage = errors.New("no image data found in response")

var (
	// uriPattern matches a whole data URI in a dedicated URL field.
	uriPattern = regexp.MustCompile(`^data:image/([a-zA-Z0-9.+-]+);base64,(.+)$`)
	// inlinePattern finds a data URI embedded in free text; subtypes are
	// restricted so prose around the URI cannot bleed into the match.
	inlinePattern = regexp.MustCompile(`data:image/(png|jpeg|jpg|gif|webp);base64,([A-Za-z0-9+/=]+)`)
)

// Extracted is a decoded image payload plus its file extension.
type Extracted struct {
	Payload []byte
	Ext     string
}

// Extract searches the response in priority order and decodes the first
// base64 image payload found. Returns ErrNoImage when no strategy matches.
func Extract(resp *openrouter.ChatResponse) (*Extracted, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return nil, ErrNoImage
	}
	msg := resp.Choices[0].Message

	strategies := []func(openrouter.AssistantMessage) (string, string, bool){
		fromImagesList,
		fromStringContent,
		fromContentParts,
	}
	for _, try := range strategies {
		subtype, payload, ok := try(msg)
		if !ok {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decode base64 image payload: %w", err)
		}
		return &Extracted{Payload: raw, Ext: extFor(subtype)}, nil
	}
	return nil, ErrNoImage
}

// fromImagesList scans the dedicated images field for a data URI.
func fromImagesList(msg openrouter.AssistantMessage) (string, string, bool) {
	for _, img := range msg.Images {
		if m := uriPattern.FindStringSubmatch(img.ImageURL.URL); m != nil {
			return m[1], m[2], true
		}
	}
	return "", "", false
}

// fromStringContent scans plain string content for an inline data URI.
func fromStringContent(msg openrouter.AssistantMessage) (string, string, bool) {
	text, ok := msg.Text()
	if !ok {
		return "", "", false
	}
	if m := inlinePattern.FindStringSubmatch(text); m != nil {
		return m[1], m[2], true
	}
	return "", "", false
}

// fromContentParts scans multimodal parts for an image part with a data URI.
func fromContentParts(msg openrouter.AssistantMessage) (string, string, bool) {
	parts, ok := msg.Parts()
	if !ok {
		return "", "", false
	}
	for _, p := range parts {
		if p.Type != "image" && p.Type != "image_url" {
			continue
		}
		if p.ImageURL == nil {
			continue
		}
		if m := uriPattern.FindStringSubmatch(p.ImageURL.URL); m != nil {
			return m[1], m[2], true
		}
	}
	return "", "", false
}

// extFor maps a MIME subtype to a file extension. Only jpeg is renamed.
func extFor(subtype string) string {
	if subtype == "jpeg" {
		return "jpg"
	}
	return subtype
}

// Save writes the payload to dir, creating it if needed. The filename is
// derived from the current time: generated_<epoch-millis>.<ext>.
func Save(dir string, img *Extracted) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create image directory %q: %w", dir, err)
	}
	name := fmt.Sprintf("generated_%d.%s", time.Now().UnixMilli(), img.Ext)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, img.Payload, 0o644); err != nil {
		return "", fmt.Errorf("write image %q: %w", path, err)
	}
	return path, nil
}
