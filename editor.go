package main

import (
	"fmt"
	"os/exec"

	"github.com/charmbracelet/x/editor"
	"github.com/termux-ai/termai/internal/config"
)

const (
	defaultEditor  = "nano"
	fallbackEditor = "vi"
)

// editorCmd resolves the editor for path: $EDITOR first, then nano when it
// is installed, then vi.
func (a *app) editorCmd(path string) (*exec.Cmd, error) {
	if a.getenv("EDITOR") != "" {
		c, err := editor.Cmd(config.AppName, path)
		if err != nil {
			return nil, fmt.Errorf("could not build editor command: %w", err)
		}
		return c, nil
	}
	name := fallbackEditor
	if _, err := a.lookPath(defaultEditor); err == nil {
		name = defaultEditor
	}
	return exec.Command(name, path), nil //nolint:gosec
}

func (a *app) openEditor(path string) error {
	c, err := a.editorCmd(path)
	if err != nil {
		return termaiError{err: err, reason: "Could not find an editor."}
	}
	a.logger.Info("Opening settings", "editor", c.Path, "path", path)
	c.Stdin = a.stdin
	c.Stdout = a.stdout
	c.Stderr = a.stderr
	if err := c.Run(); err != nil {
		return termaiError{err: err, reason: fmt.Sprintf("Could not open the editor %s.", c.Path)}
	}
	return nil
}
