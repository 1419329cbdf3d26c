// Package proto shared protocol.
package proto

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// RoleUser is the role of the prompt message.
const RoleUser = "user"

// ErrNoContent happens when the provider answers successfully but the payload
// carries no usable text.
var ErrNoContent = errors.New("no content")

// Request is a single, provider independent completion request.
type Request struct {
	Model       string
	System      string
	Prompt      string
	Temperature *float64
	TopP        *float64
	TopK        *int64
	MaxTokens   *int64
}

// Response is the normalized result of a completion request.
type Response struct {
	// Content is the generated text, trimmed.
	Content string
	// BlockReason is set when the provider declined to answer.
	BlockReason string
	// StatusCode is the HTTP status of the response.
	StatusCode int
	// Raw is the raw response body.
	Raw []byte
}

// Blocked reports whether the provider withheld the answer.
func (r Response) Blocked() bool { return r.BlockReason != "" }

// Client is a provider client.
type Client interface {
	Request(context.Context, Request) (Response, error)
}

// TransportError happens when no HTTP response was received at all.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError happens when the provider answers with a non-success status.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// IsRateLimit reports whether the provider is throttling requests.
func (e *StatusError) IsRateLimit() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsFailureStatusCode reports whether the status code is not a success.
func IsFailureStatusCode(code int) bool {
	return code < http.StatusOK || code >= http.StatusMultipleChoices
}
