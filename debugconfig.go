package main

import (
	"encoding/json"
	"fmt"

	"github.com/termux-ai/termai/internal/config"
)

// debugConfig prints the settings with every API key masked.
func (a *app) debugConfig(cfg *config.Config) error {
	if cfg == nil {
		return termaiError{
			err:     config.ErrNotReady,
			reason:  "There are no settings to show.",
			details: "Run termai interactively once to set up your API key.",
		}
	}
	bts, err := json.MarshalIndent(cfg.Redacted(), "", "    ")
	if err != nil {
		return termaiError{err: err, reason: "Could not encode your settings."}
	}
	_, _ = fmt.Fprintln(a.stdout, string(bts))
	return nil
}
