// Package openai implements [proto.Client] for OpenAI chat completions.
package openai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/termux-ai/termai/internal/proto"
)

var _ proto.Client = &Client{}

// DefaultBaseURL is the OpenAI API root.
const DefaultBaseURL = "https://api.openai.com/v1/"

// Client is the openai client.
type Client struct {
	*openai.Client
}

// Config represents the configuration for the OpenAI API client.
type Config struct {
	AuthToken  string
	BaseURL    string
	HTTPClient *http.Client
}

// DefaultConfig returns the default configuration for the OpenAI API client.
func DefaultConfig(authToken string) Config {
	return Config{
		AuthToken: authToken,
		BaseURL:   DefaultBaseURL,
	}
}

// New creates a new [Client] with the given [Config].
// Retries are disabled: every failure is reported as is.
func New(config Config) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(config.AuthToken),
		option.WithMaxRetries(0),
	}
	if config.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(config.HTTPClient))
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	client := openai.NewClient(opts...)
	return &Client{
		Client: &client,
	}
}

// Request implements proto.Client.
func (c *Client) Request(ctx context.Context, request proto.Request) (proto.Response, error) {
	body := openai.ChatCompletionNewParams{
		Model:    request.Model,
		Messages: fromProtoRequest(request),
	}
	if request.Temperature != nil {
		body.Temperature = openai.Float(*request.Temperature)
	}
	if request.TopP != nil {
		body.TopP = openai.Float(*request.TopP)
	}
	if request.MaxTokens != nil {
		body.MaxTokens = openai.Int(*request.MaxTokens)
	}

	var raw rawResponse
	resp, err := c.Chat.Completions.New(ctx, body, option.WithMiddleware(raw.capture))
	if err != nil {
		if !raw.received {
			return proto.Response{}, &proto.TransportError{Err: err}
		}
		out := proto.Response{StatusCode: raw.status, Raw: raw.body}
		if proto.IsFailureStatusCode(raw.status) {
			return out, &proto.StatusError{StatusCode: raw.status, Body: raw.body}
		}
		return out, fmt.Errorf("openai: %w: %w", proto.ErrNoContent, err)
	}

	out := proto.Response{StatusCode: raw.status, Raw: raw.body}
	if len(resp.Choices) == 0 {
		return out, fmt.Errorf("openai: %w: no choices", proto.ErrNoContent)
	}
	out.Content = strings.TrimSpace(resp.Choices[0].Message.Content)
	if out.Content == "" {
		return out, fmt.Errorf("openai: %w: empty content", proto.ErrNoContent)
	}
	return out, nil
}

func fromProtoRequest(request proto.Request) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	if request.System != "" {
		messages = append(messages, openai.SystemMessage(request.System))
	}
	return append(messages, openai.UserMessage(request.Prompt))
}

// rawResponse records the status and body the SDK saw, so failures can be
// classified the same way for every provider.
type rawResponse struct {
	received bool
	status   int
	body     []byte
}

func (r *rawResponse) capture(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
	resp, err := next(req)
	if err != nil {
		return resp, err //nolint:wrapcheck
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("openai: read response: %w", err)
	}
	r.received = true
	r.status = resp.StatusCode
	r.body = body
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}
