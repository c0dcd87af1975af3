package image

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelrelay/openrouter-mcp/internal/infra/openrouter"
)

func respWithMessage(t *testing.T, msgJSON string) *openrouter.ChatResponse {
	t.Helper()
	var msg openrouter.AssistantMessage
	if err := json.Unmarshal([]byte(msgJSON), &msg); err != nil {
		t.Fatalf("bad test message: %v", err)
	}
	return &openrouter.ChatResponse{Choices: []openrouter.Choice{{Message: msg}}}
}

func pngURI(payload []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload)
}

func TestExtract_FromImagesList(t *testing.T) {
	t.Parallel()

	want := []byte{0x89, 0x50, 0x4e, 0x47}
	resp := respWithMessage(t, `{
		"content": "here is your image",
		"images": [{"type":"image_url","image_url":{"url":"`+pngURI(want)+`"}}]
	}`)

	img, err := Extract(resp)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !bytes.Equal(img.Payload, want) {
		t.Errorf("payload = %v, want %v", img.Payload, want)
	}
	if img.Ext != "png" {
		t.Errorf("ext = %q, want png", img.Ext)
	}
}

func TestExtract_ImagesListWinsOverInlineURI(t *testing.T) {
	t.Parallel()

	fromList := []byte("list-payload")
	fromText := []byte("text-payload")
	resp := respWithMessage(t, `{
		"content": "inline `+pngURI(fromText)+` here",
		"images": [{"type":"image_url","image_url":{"url":"`+pngURI(fromList)+`"}}]
	}`)

	img, err := Extract(resp)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !bytes.Equal(img.Payload, fromList) {
		t.Error("dedicated images list must take priority over inline content")
	}
}

func TestExtract_InlineRoundTrip(t *testing.T) {
	t.Parallel()

	// Round-trip: arbitrary bytes -> base64 data URI in text -> extracted bytes.
	want := []byte{0x00, 0x01, 0xfe, 0xff, 0x10, 0x42}
	resp := respWithMessage(t, `{"content": "Sure! `+pngURI(want)+` enjoy."}`)

	img, err := Extract(resp)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !bytes.Equal(img.Payload, want) {
		t.Errorf("round-trip mismatch: got %v, want %v", img.Payload, want)
	}
}

func TestExtract_FromContentParts(t *testing.T) {
	t.Parallel()

	want := []byte("part-bytes")
	resp := respWithMessage(t, `{"content": [
		{"type":"text","text":"rendered below"},
		{"type":"image_url","image_url":{"url":"`+pngURI(want)+`"}}
	]}`)

	img, err := Extract(resp)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !bytes.Equal(img.Payload, want) {
		t.Errorf("payload = %v, want %v", img.Payload, want)
	}
}

func TestExtract_NoImage(t *testing.T) {
	t.Parallel()

	resp := respWithMessage(t, `{"content": "I can only reply with text, sorry."}`)

	_, err := Extract(resp)
	if !errors.Is(err, ErrNoImage) {
		t.Errorf("err = %v, want ErrNoImage", err)
	}

	if _, err := Extract(&openrouter.ChatResponse{}); !errors.Is(err, ErrNoImage) {
		t.Errorf("empty choices: err = %v, want ErrNoImage", err)
	}
}

func TestExtFor(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"jpeg": "jpg",
		"png":  "png",
		"gif":  "gif",
		"webp": "webp",
	}
	for subtype, want := range cases {
		if got := extFor(subtype); got != want {
			t.Errorf("extFor(%q) = %q, want %q", subtype, got, want)
		}
	}
}

func TestExtract_JpegSubtypeMapsToJpg(t *testing.T) {
	t.Parallel()

	payload := base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))
	resp := respWithMessage(t, `{
		"images": [{"type":"image_url","image_url":{"url":"data:image/jpeg;base64,`+payload+`"}}]
	}`)

	img, err := Extract(resp)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if img.Ext != "jpg" {
		t.Errorf("ext = %q, want jpg", img.Ext)
	}
}

func TestSave_WritesFileWithExtension(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "images", "nested")
	path, err := Save(dir, &Extracted{Payload: []byte("img"), Ext: "png"})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if !strings.HasPrefix(filepath.Base(path), "generated_") || !strings.HasSuffix(path, ".png") {
		t.Errorf("path = %q, want generated_<millis>.png", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved image: %v", err)
	}
	if string(data) != "img" {
		t.Errorf("saved bytes = %q", data)
	}
}
