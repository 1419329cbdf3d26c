// Package google implements [proto.Client] for Google Gemini.
package google

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/termux-ai/termai/internal/proto"
)

var _ proto.Client = &Client{}

// DefaultBaseURL is the Gemini API root.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// Config represents the configuration for the Google API client.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// DefaultConfig returns the default configuration for the Google API client.
func DefaultConfig(apiKey string) Config {
	return Config{
		BaseURL:    DefaultBaseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{},
	}
}

// Part is a datatype containing media that is part of a multi-part Content message.
type Part struct {
	Text string `json:"text"`
}

// Content is the base structured datatype containing multi-part content of a message.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts,omitempty"`
}

// GenerationConfig are the options for model generation and outputs.
// Pointers are used so a zero temperature is still sent.
type GenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	TopP            *float64 `json:"topP,omitempty"`
	TopK            *int64   `json:"topK,omitempty"`
	MaxOutputTokens *int64   `json:"maxOutputTokens,omitempty"`
}

// GenerateContentRequest is the body of a generateContent call.
type GenerateContentRequest struct {
	Contents          []Content        `json:"contents"`
	SystemInstruction *Content         `json:"systemInstruction,omitempty"`
	GenerationConfig  GenerationConfig `json:"generationConfig"`
}

// Candidate represents a response candidate generated from the model.
type Candidate struct {
	Content      *Content `json:"content,omitempty"`
	FinishReason string   `json:"finishReason,omitempty"`
}

// PromptFeedback is set when the prompt itself was rejected.
type PromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

// GenerateContentResponse is the body of a successful generateContent call.
type GenerateContentResponse struct {
	Candidates     []Candidate     `json:"candidates,omitempty"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
}

// Client is a client for the Gemini API.
type Client struct {
	config Config
}

// New creates a new Client with the given configuration.
func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}
	return &Client{config: config}
}

// Request implements proto.Client.
func (c *Client) Request(ctx context.Context, request proto.Request) (proto.Response, error) {
	req, err := c.newRequest(ctx, request)
	if err != nil {
		return proto.Response{}, err
	}

	resp, err := c.config.HTTPClient.Do(req)
	if err != nil {
		return proto.Response{}, &proto.TransportError{Err: c.redact(err, request.Model)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return proto.Response{StatusCode: resp.StatusCode}, &proto.TransportError{Err: err}
	}

	out := proto.Response{StatusCode: resp.StatusCode, Raw: body}
	if proto.IsFailureStatusCode(resp.StatusCode) {
		return out, &proto.StatusError{StatusCode: resp.StatusCode, Body: body}
	}
	return parseResponse(out)
}

func (c *Client) newRequest(ctx context.Context, request proto.Request) (*http.Request, error) {
	body := GenerateContentRequest{
		Contents: []Content{{
			Role:  proto.RoleUser,
			Parts: []Part{{Text: request.Prompt}},
		}},
		GenerationConfig: GenerationConfig{
			Temperature:     request.Temperature,
			TopP:            request.TopP,
			TopK:            request.TopK,
			MaxOutputTokens: request.MaxTokens,
		},
	}
	if request.System != "" {
		body.SystemInstruction = &Content{Parts: []Part{{Text: request.System}}}
	}

	bts, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("google: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.endpoint(request.Model, c.config.APIKey),
		bytes.NewReader(bts),
	)
	if err != nil {
		return nil, fmt.Errorf("google: build request: %w", err)
	}
	req.Header.Set("content-type", "application/json")
	return req, nil
}

func (c *Client) endpoint(model, key string) string {
	return fmt.Sprintf(
		"%s/v1beta/models/%s:generateContent?%s",
		strings.TrimSuffix(c.config.BaseURL, "/"),
		url.PathEscape(model),
		url.Values{"key": {key}}.Encode(),
	)
}

// redact keeps the API key, which travels in the query string, out of
// transport error messages.
func (c *Client) redact(err error, model string) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		uerr.URL = c.endpoint(model, "REDACTED")
	}
	return err
}

func parseResponse(out proto.Response) (proto.Response, error) {
	var payload GenerateContentResponse
	if err := json.Unmarshal(out.Raw, &payload); err != nil {
		return out, fmt.Errorf("google: %w: %w", proto.ErrNoContent, err)
	}

	if fb := payload.PromptFeedback; fb != nil && fb.BlockReason != "" {
		out.BlockReason = fb.BlockReason
		return out, nil
	}

	if len(payload.Candidates) == 0 {
		return out, fmt.Errorf("google: %w: no candidates", proto.ErrNoContent)
	}
	content := payload.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return out, fmt.Errorf("google: %w: candidate has no content", proto.ErrNoContent)
	}

	out.Content = strings.TrimSpace(content.Parts[0].Text)
	if out.Content == "" {
		return out, fmt.Errorf("google: %w: empty text", proto.ErrNoContent)
	}
	return out, nil
}
