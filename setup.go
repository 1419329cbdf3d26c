package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/huh"
	"github.com/termux-ai/termai/internal/proto"
)

// keyHints tells the user where each provider hands out API keys.
var keyHints = map[string]string{
	proto.ProviderGemini: "Get one at aistudio.google.com.",
	proto.ProviderOpenAI: "Get one at platform.openai.com/api-keys.",
}

// formPrompter runs the first-run setup as huh forms on the terminal.
type formPrompter struct {
	in  io.Reader
	out io.Writer
}

func (p formPrompter) run(field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field))
	if p.in != nil {
		form = form.WithInput(p.in)
	}
	if p.out != nil {
		form = form.WithOutput(p.out)
	}
	return form.Run() //nolint:wrapcheck
}

func (p formPrompter) Provider() (string, error) {
	provider := proto.ProviderGemini
	err := p.run(huh.NewSelect[string]().
		Title("First run! Choose your AI provider").
		Options(
			huh.NewOption("1. Gemini", proto.ProviderGemini),
			huh.NewOption("2. OpenAI", proto.ProviderOpenAI),
		).
		Value(&provider))
	return provider, err
}

func (p formPrompter) APIKey(provider string) (string, error) {
	var key string
	err := p.run(huh.NewInput().
		Title(fmt.Sprintf("Enter your %s API key", providerName(provider))).
		Description(keyHints[provider]).
		EchoMode(huh.EchoModePassword).
		Value(&key))
	return key, err
}

func providerName(provider string) string {
	switch provider {
	case proto.ProviderGemini:
		return "Gemini"
	case proto.ProviderOpenAI:
		return "OpenAI"
	default:
		return provider
	}
}
