// Package config holds the termai settings and the on-disk store that
// loads, migrates and writes them.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/termux-ai/termai/internal/proto"
)

// Defaults.
const (
	DefaultGeminiModel       = "gemini-2.5-flash"
	DefaultOpenAIModel       = "gpt-4o-mini"
	DefaultSystemInstruction = "You are a CLI assistant specific to Termux. " +
		"Do NOT use Markdown. Do NOT use backticks. " +
		"Do NOT use bolding. Just write plain text. " +
		"Keep answers concise."
)

var (
	// ErrMalformed happens when the settings file cannot be parsed.
	ErrMalformed = errors.New("malformed settings file")
	// ErrNotReady happens when there are no settings and no way to ask for them.
	ErrNotReady = errors.New("settings not ready")
	// ErrEmptyKey happens when an empty API key is entered during setup.
	ErrEmptyKey = errors.New("api key cannot be empty")
	// ErrUnknownProvider happens when the provider is not gemini or openai.
	ErrUnknownProvider = errors.New("unknown provider")
)

// Providers lists the supported providers, in setup order.
var Providers = []string{proto.ProviderGemini, proto.ProviderOpenAI}

// GenerationConfig holds the Gemini sampling parameters.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"top_p"`
	TopK            int64   `json:"top_k"`
	MaxOutputTokens int64   `json:"max_output_tokens"`
}

// GeminiConfig holds the Gemini settings.
type GeminiConfig struct {
	APIKey            string           `json:"api_key" env:"API_KEY"`
	ModelName         string           `json:"model_name" env:"MODEL_NAME"`
	SystemInstruction string           `json:"system_instruction"`
	GenerationConfig  GenerationConfig `json:"generation_config"`
}

// OpenAIConfig holds the OpenAI settings.
type OpenAIConfig struct {
	APIKey            string  `json:"api_key" env:"API_KEY"`
	ModelName         string  `json:"model_name" env:"MODEL_NAME"`
	SystemInstruction string  `json:"system_instruction"`
	Temperature       float64 `json:"temperature"`
	MaxTokens         int64   `json:"max_tokens"`
}

// Config is mapped to the JSON settings file.
type Config struct {
	Provider string       `json:"provider" env:"PROVIDER"`
	Proxy    string       `json:"proxy" env:"PROXY"`
	Gemini   GeminiConfig `json:"gemini_config" envPrefix:"GEMINI_"`
	OpenAI   OpenAIConfig `json:"openai_config" envPrefix:"OPENAI_"`
}

// Default returns the settings used for every field missing on disk.
func Default() Config {
	return Config{
		Provider: proto.ProviderGemini,
		Gemini: GeminiConfig{
			ModelName:         DefaultGeminiModel,
			SystemInstruction: DefaultSystemInstruction,
			GenerationConfig: GenerationConfig{
				Temperature:     0.7,
				TopP:            0.9,
				TopK:            40,
				MaxOutputTokens: 1024,
			},
		},
		OpenAI: OpenAIConfig{
			ModelName:         DefaultOpenAIModel,
			SystemInstruction: DefaultSystemInstruction,
			Temperature:       0.7,
			MaxTokens:         1024,
		},
	}
}

// Validate checks the provider is a known one.
func (c Config) Validate() error {
	switch c.Provider {
	case proto.ProviderGemini, proto.ProviderOpenAI:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Provider)
	}
}

// APIKey returns the key of the active provider.
func (c Config) APIKey() string {
	switch c.Provider {
	case proto.ProviderGemini:
		return c.Gemini.APIKey
	case proto.ProviderOpenAI:
		return c.OpenAI.APIKey
	default:
		return ""
	}
}

func (c *Config) setAPIKey(provider, key string) {
	switch provider {
	case proto.ProviderGemini:
		c.Gemini.APIKey = key
	case proto.ProviderOpenAI:
		c.OpenAI.APIKey = key
	}
}

// Redacted returns a copy of the settings with every API key masked.
func (c Config) Redacted() Config {
	c.Gemini.APIKey = Mask(c.Gemini.APIKey)
	c.OpenAI.APIKey = Mask(c.OpenAI.APIKey)
	return c
}

const (
	maskWidth   = 8
	maskVisible = 4
)

// Mask hides key behind a fixed-width mask followed by its last four
// characters. Keys too short to hide anything are masked entirely, and an
// empty key stays empty.
func Mask(key string) string {
	if key == "" {
		return ""
	}
	mask := strings.Repeat("*", maskWidth)
	runes := []rune(key)
	if len(runes) <= maskVisible {
		return mask
	}
	return mask + string(runes[len(runes)-maskVisible:])
}
