package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/exp/ordered"
	xstrings "github.com/charmbracelet/x/exp/strings"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/termux-ai/termai/internal/config"
	"github.com/termux-ai/termai/internal/google"
	"github.com/termux-ai/termai/internal/httpclient"
	"github.com/termux-ai/termai/internal/openai"
	"github.com/termux-ai/termai/internal/proto"
)

var errMissingKey = errors.New("missing api key")

// options are the dispatcher flags.
type options struct {
	Help        bool
	Config      bool
	Debug       bool
	DebugConfig bool
	Reinstall   bool
}

// app holds everything a single invocation touches.
type app struct {
	store  *config.Store
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger *log.Logger

	// interactive is true when stdin is a terminal. Otherwise stdin is
	// read as part of the prompt and setup cannot run.
	interactive bool
	prompter    config.Prompter

	environ   map[string]string
	getenv    func(string) string
	lookPath  func(string) (string, error)
	newClient func(config.Config, *http.Client) (proto.Client, error)
}

func newApp() *app {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: config.AppName})
	a := &app{
		store:       config.NewStore(config.DefaultDir(), logger),
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		logger:      logger,
		interactive: isInputTTY(),
		getenv:      os.Getenv,
		lookPath:    exec.LookPath,
		newClient:   newProviderClient,
	}
	if a.interactive {
		a.prompter = formPrompter{out: os.Stderr}
	}
	return a
}

// run picks exactly one action. The order is fixed: reinstall, load,
// debug-config, help, config, then the query itself.
func (a *app) run(cmd *cobra.Command, opts options, args []string) error {
	if opts.Debug {
		a.logger.SetLevel(log.DebugLevel)
	}

	if opts.Reinstall {
		return a.reinstall()
	}

	cfg, err := a.load()
	if err != nil {
		return err
	}

	if opts.DebugConfig {
		return a.debugConfig(cfg)
	}

	if opts.Help {
		return cmd.Usage() //nolint:wrapcheck
	}

	if opts.Config {
		if cfg == nil {
			return errNotConfigured()
		}
		return a.openEditor(a.store.Path())
	}

	prompt, err := buildPrompt(a.stdin, !a.interactive, args)
	if err != nil {
		return err
	}
	if prompt == "" {
		return cmd.Usage() //nolint:wrapcheck
	}
	if cfg == nil {
		return errNotConfigured()
	}
	return a.query(cmd.Context(), *cfg, prompt)
}

// load reads the settings. A nil config with a nil error means there are no
// settings and setup could not run.
func (a *app) load() (*config.Config, error) {
	cfg, err := a.store.Load(a.prompter)
	switch {
	case err == nil:
		return cfg, nil
	case errors.Is(err, config.ErrNotReady):
		return nil, nil
	case errors.Is(err, config.ErrMalformed):
		return nil, termaiError{
			err:     err,
			reason:  "Your settings file is invalid JSON.",
			details: fmt.Sprintf("Fix it or delete it to reset the defaults: %s", a.store.Path()),
		}
	case errors.Is(err, config.ErrEmptyKey):
		return nil, termaiError{err: err, reason: "The API key cannot be empty."}
	case errors.Is(err, huh.ErrUserAborted):
		return nil, termaiError{err: err, reason: "Setup was canceled."}
	default:
		return nil, termaiError{err: err, reason: "Could not load your settings."}
	}
}

func (a *app) reinstall() error {
	if err := a.store.Remove(); err != nil {
		return termaiError{err: err, reason: "Could not remove your settings."}
	}
	cfg, err := a.load()
	if err != nil {
		return err
	}
	if cfg == nil {
		a.logger.Warn("Settings removed. Run termai interactively to set them up again.")
		return nil
	}
	a.logger.Info("Reinstall complete", "provider", cfg.Provider)
	return nil
}

func errNotConfigured() error {
	return termaiError{
		err:     config.ErrNotReady,
		reason:  "API key not configured.",
		details: "Run termai interactively once to set it up.",
	}
}

func (a *app) query(ctx context.Context, cfg config.Config, prompt string) error {
	cfg, err := applyEnv(cfg, a.environ)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return termaiError{
			err:    err,
			reason: fmt.Sprintf("Unknown provider %q.", cfg.Provider),
			details: fmt.Sprintf(
				"The provider must be %s. Run termai --config to fix it.",
				xstrings.EnglishJoin(config.Providers, false),
			),
		}
	}
	name := providerName(cfg.Provider)
	if cfg.APIKey() == "" {
		return termaiError{
			err:     errMissingKey,
			reason:  fmt.Sprintf("Missing %s API key.", name),
			details: "Run termai --config to add it, or run termai --reinstall.",
		}
	}

	hc, err := httpclient.New(cfg.Proxy)
	if err != nil {
		return termaiError{err: err, reason: fmt.Sprintf("Invalid proxy %q.", cfg.Proxy)}
	}
	client, err := a.newClient(cfg, hc)
	if err != nil {
		return termaiError{err: err, reason: fmt.Sprintf("Could not create the %s client.", name)}
	}

	req := newRequest(cfg, prompt)
	a.logger.Debug(
		"Sending request",
		"provider", cfg.Provider,
		"model", req.Model,
		"temperature", *req.Temperature,
		"proxy", ordered.First(cfg.Proxy, "None"),
	)
	resp, err := client.Request(ctx, req)
	if resp.StatusCode != 0 {
		a.logger.Debug("Received response", "status", resp.StatusCode)
	}
	return a.render(name, resp, err)
}

// render prints the outcome of a request. Blocked answers and empty
// payloads are not failures.
func (a *app) render(name string, resp proto.Response, err error) error {
	var transportErr *proto.TransportError
	var statusErr *proto.StatusError
	switch {
	case errors.As(err, &transportErr):
		return termaiError{err: err, reason: "Connection error.", details: transportErr.Err.Error()}
	case errors.As(err, &statusErr) && statusErr.IsRateLimit():
		return termaiError{
			err:     err,
			reason:  fmt.Sprintf("You've hit your %s API rate limit.", name),
			details: "Wait a moment before trying again, or check your plan and quota.",
		}
	case errors.As(err, &statusErr):
		return termaiError{
			err:     err,
			reason:  fmt.Sprintf("%s API error %d.", name, statusErr.StatusCode),
			details: string(statusErr.Body),
		}
	case errors.Is(err, proto.ErrNoContent):
		a.logger.Debug("No content", "error", err, "body", string(resp.Raw))
		_, _ = fmt.Fprintln(a.stdout, "[No content returned]")
		return nil
	case err != nil:
		return termaiError{err: err, reason: fmt.Sprintf("There was a problem with the %s API request.", name)}
	case resp.Blocked():
		_, _ = fmt.Fprintf(a.stdout, "[Blocked] Reason: %s\n", resp.BlockReason)
		return nil
	default:
		_, _ = fmt.Fprintln(a.stdout, colorAnswer(termenv.NewOutput(a.stdout), resp.Content))
		return nil
	}
}

// newRequest maps the active provider settings to a request. Zero sampling
// values are left to the provider defaults, temperature is always sent.
func newRequest(cfg config.Config, prompt string) proto.Request {
	req := proto.Request{Prompt: prompt}
	switch cfg.Provider {
	case proto.ProviderGemini:
		gen := cfg.Gemini.GenerationConfig
		req.Model = ordered.First(cfg.Gemini.ModelName, config.DefaultGeminiModel)
		req.System = cfg.Gemini.SystemInstruction
		req.Temperature = &gen.Temperature
		req.TopP = nonZero(gen.TopP)
		req.TopK = nonZero(gen.TopK)
		req.MaxTokens = nonZero(gen.MaxOutputTokens)
	case proto.ProviderOpenAI:
		req.Model = ordered.First(cfg.OpenAI.ModelName, config.DefaultOpenAIModel)
		req.System = cfg.OpenAI.SystemInstruction
		req.Temperature = &cfg.OpenAI.Temperature
		req.MaxTokens = nonZero(cfg.OpenAI.MaxTokens)
	}
	return req
}

func nonZero[T int64 | float64](v T) *T {
	if v == 0 {
		return nil
	}
	return &v
}

func newProviderClient(cfg config.Config, hc *http.Client) (proto.Client, error) {
	switch cfg.Provider {
	case proto.ProviderGemini:
		gc := google.DefaultConfig(cfg.Gemini.APIKey)
		gc.HTTPClient = hc
		return google.New(gc), nil
	case proto.ProviderOpenAI:
		oc := openai.DefaultConfig(cfg.OpenAI.APIKey)
		oc.HTTPClient = hc
		return openai.New(oc), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownProvider, cfg.Provider)
	}
}
