// Package openrouter is the HTTP adapter for the OpenRouter REST API.
// Endpoints used:
//   - GET  /models            — model catalog with pricing
//   - POST /chat/completions  — non-streaming chat completion
//
// Every request carries the Authorization bearer key plus the HTTP-Referer
// and X-Title attribution headers OpenRouter asks applications to send.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	mimeJSON          = "application/json"
	headerContentType = "Content-Type"
	headerReferer     = "HTTP-Referer"
	headerTitle       = "X-Title"
)

// maxErrorBodyLen caps how much of an upstream error body ends up in error strings.
const maxErrorBodyLen = 512

// Client calls the OpenRouter API.
type Client struct {
	baseURL    string
	apiKey     string
	siteURL    string
	appName    string
	httpClient *http.Client
}

// NewClient creates a Client with a 60s default timeout.
// siteURL and appName may be empty; the corresponding headers are then omitted.
func NewClient(baseURL, apiKey, siteURL, appName string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		siteURL: siteURL,
		appName: appName,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// ListModels fetches the model catalog via GET /models.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	body, err := c.doGet(ctx, "/models")
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var list modelList
	if decodeErr := json.NewDecoder(body).Decode(&list); decodeErr != nil {
		return nil, fmt.Errorf("decode models response: %w", decodeErr)
	}
	return list.Data, nil
}

// ChatCompletion performs a non-streaming chat via POST /chat/completions.
func (c *Client) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	raw, err := c.ChatCompletionRaw(ctx, req)
	if err != nil {
		return nil, err
	}
	if raw.StatusCode < 200 || raw.StatusCode >= 300 {
		return nil, fmt.Errorf("openrouter post /chat/completions: status %d: %s",
			raw.StatusCode, Excerpt(raw.ResponseBody))
	}
	return raw.Decode()
}

// RawResult is the unprocessed outcome of a chat completion call. The image
// tool logs the exact bytes exchanged, so both bodies and the status are kept.
type RawResult struct {
	StatusCode   int
	RequestBody  []byte
	ResponseBody []byte
}

// Decode parses the response body as a chat completion.
func (r *RawResult) Decode() (*ChatResponse, error) {
	var resp ChatResponse
	if err := json.Unmarshal(r.ResponseBody, &resp); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	return &resp, nil
}

// ChatCompletionRaw issues the chat completion and returns status and bodies
// without treating non-2xx as an error. Only transport and encoding failures
// return a non-nil error; the caller decides what a bad status means.
func (c *Client) ChatCompletionRaw(ctx context.Context, req ChatRequest) (*RawResult, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}

	url := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("openrouter post /chat/completions: build request: %w", err)
	}
	httpReq.Header.Set(headerContentType, mimeJSON)
	c.setAuthHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openrouter post /chat/completions: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openrouter post /chat/completions: read body: %w", err)
	}

	return &RawResult{
		StatusCode:   resp.StatusCode,
		RequestBody:  reqBody,
		ResponseBody: respBody,
	}, nil
}

// doGet sends a GET request to baseURL+path and returns the response body.
// Caller is responsible for closing the returned ReadCloser.
func (c *Client) doGet(ctx context.Context, path string) (io.ReadCloser, error) {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("openrouter get %s: build request: %w", path, err)
	}
	c.setAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openrouter get %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		resp.Body.Close() //nolint:errcheck
		return nil, fmt.Errorf("openrouter get %s: status %d: %s", path, resp.StatusCode, Excerpt(body))
	}
	return resp.Body, nil
}

func (c *Client) setAuthHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if c.siteURL != "" {
		req.Header.Set(headerReferer, c.siteURL)
	}
	if c.appName != "" {
		req.Header.Set(headerTitle, c.appName)
	}
}

// Excerpt trims body bytes for inclusion in error strings.
func Excerpt(body []byte) string {
	if len(body) > maxErrorBodyLen {
		body = body[:maxErrorBodyLen]
	}
	return string(bytes.TrimSpace(body))
}
