package main

import (
	"fmt"
	"io"
	"strings"
)

// buildPrompt joins piped input and the remaining arguments. Piped content
// comes first, followed by the arguments on a new line. Without piped input
// the arguments are joined with spaces.
func buildPrompt(stdin io.Reader, piped bool, args []string) (string, error) {
	words := strings.TrimSpace(strings.Join(args, " "))
	if !piped {
		return words, nil
	}

	bts, err := io.ReadAll(stdin)
	if err != nil {
		return "", termaiError{
			err:    fmt.Errorf("read stdin: %w", err),
			reason: "Could not read the piped input.",
		}
	}
	content := strings.TrimSpace(string(bts))
	switch {
	case content == "":
		return words, nil
	case words == "":
		return content, nil
	default:
		return content + "\n" + words, nil
	}
}
