package api

import (
	"context"
	"encoding/base64"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/modelrelay/openrouter-mcp/internal/infra/openrouter"
)

func rawChatResult(status int, body string) *openrouter.RawResult {
	return &openrouter.RawResult{
		StatusCode:   status,
		RequestBody:  []byte(`{"model":"test"}`),
		ResponseBody: []byte(body),
	}
}

func TestGenerateImage_SavesAndReports(t *testing.T) {
	t.Parallel()

	payload := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	body := `{"choices":[{"message":{"content":"done","images":[` +
		`{"type":"image_url","image_url":{"url":"data:image/png;base64,` + payload + `"}}]}}],` +
		`"usage":{"prompt_tokens":10,"completion_tokens":90,"total_tokens":100}}`

	var gotReq openrouter.ChatRequest
	up := &fakeUpstream{rawFn: func(req openrouter.ChatRequest) (*openrouter.RawResult, error) {
		gotReq = req
		return rawChatResult(http.StatusOK, body), nil
	}}
	h := newTestHandlers(t, up)

	res, _, err := h.generateImage(context.Background(), nil, imageArgs{Message: "a cat"})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if gotReq.Model != defaultImageModel {
		t.Errorf("model = %q, want default %q", gotReq.Model, defaultImageModel)
	}
	if len(gotReq.Modalities) != 2 {
		t.Errorf("modalities = %v, want [image text]", gotReq.Modalities)
	}

	text := resultText(t, res)
	if !strings.Contains(text, "saved to") || !strings.Contains(text, ".png") {
		t.Fatalf("result %q should name the saved file", text)
	}
	if !strings.Contains(text, "Total tokens: 100") {
		t.Errorf("result %q should report token usage", text)
	}

	// The file must exist with the decoded bytes.
	path := text[strings.Index(text, h.ImageDir):]
	path = strings.Fields(path)[0]
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("saved image unreadable: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("saved bytes = %q", data)
	}
}

func TestGenerateImage_NoImageStillLogsOnce(t *testing.T) {
	t.Parallel()

	body := `{"choices":[{"message":{"content":"sorry, text only"}}],"usage":{"total_tokens":5}}`
	up := &fakeUpstream{rawFn: func(openrouter.ChatRequest) (*openrouter.RawResult, error) {
		return rawChatResult(http.StatusOK, body), nil
	}}
	h := newTestHandlers(t, up)

	res, _, err := h.generateImage(context.Background(), nil, imageArgs{Message: "a cat"})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	text := resultText(t, res)
	if !strings.Contains(text, "No image data found") {
		t.Errorf("result %q should explain no image was found", text)
	}

	entries := h.ImageLog.Today(time.Now().UTC())
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want exactly 1", len(entries))
	}
	if entries[0].HTTPStatus != http.StatusOK {
		t.Errorf("logged status = %d, want 200", entries[0].HTTPStatus)
	}
	if entries[0].Message != "a cat" {
		t.Errorf("logged message = %q", entries[0].Message)
	}
}

func TestGenerateImage_UpstreamErrorIsLoggedAndReported(t *testing.T) {
	t.Parallel()

	up := &fakeUpstream{rawFn: func(openrouter.ChatRequest) (*openrouter.RawResult, error) {
		return rawChatResult(http.StatusTooManyRequests, `{"error":{"message":"rate limited"}}`), nil
	}}
	h := newTestHandlers(t, up)

	res, _, err := h.generateImage(context.Background(), nil, imageArgs{Message: "a cat"})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	text := resultText(t, res)
	if !strings.Contains(text, "Error in generate_image") || !strings.Contains(text, "429") {
		t.Errorf("result %q should report the upstream status", text)
	}

	// The failed cycle is still logged.
	entries := h.ImageLog.Today(time.Now().UTC())
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(entries))
	}
	if entries[0].HTTPStatus != http.StatusTooManyRequests {
		t.Errorf("logged status = %d, want 429", entries[0].HTTPStatus)
	}
}

func TestGenerateImage_LongUpstreamErrorBodyIsTruncated(t *testing.T) {
	t.Parallel()

	body := "<html>" + strings.Repeat("x", 4096) + "</html>"
	up := &fakeUpstream{rawFn: func(openrouter.ChatRequest) (*openrouter.RawResult, error) {
		return rawChatResult(http.StatusBadGateway, body), nil
	}}
	h := newTestHandlers(t, up)

	res, _, err := h.generateImage(context.Background(), nil, imageArgs{Message: "a cat"})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	text := resultText(t, res)
	if !strings.Contains(text, "Error in generate_image") || !strings.Contains(text, "502") {
		t.Errorf("result %q should report the upstream status", text)
	}
	if len(text) > 600 {
		t.Errorf("result is %d bytes; the body excerpt should be capped", len(text))
	}
}

func TestGenerateImage_SaveDirOverride(t *testing.T) {
	t.Parallel()

	payload := base64.StdEncoding.EncodeToString([]byte("x"))
	body := `{"choices":[{"message":{"images":[` +
		`{"type":"image_url","image_url":{"url":"data:image/webp;base64,` + payload + `"}}]}}],` +
		`"usage":{"total_tokens":1}}`
	up := &fakeUpstream{rawFn: func(openrouter.ChatRequest) (*openrouter.RawResult, error) {
		return rawChatResult(http.StatusOK, body), nil
	}}
	h := newTestHandlers(t, up)

	dir := t.TempDir()
	res, _, err := h.generateImage(context.Background(), nil, imageArgs{Message: "x", SaveDir: dir})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	text := resultText(t, res)
	if !strings.Contains(text, dir) || !strings.Contains(text, ".webp") {
		t.Errorf("result %q should point into the override directory", text)
	}

	entries := h.ImageLog.Today(time.Now().UTC())
	if len(entries) != 1 || entries[0].SaveTarget != dir {
		t.Errorf("logged save target = %+v, want %q", entries, dir)
	}
}
