package main

import (
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
)

var help = map[string]string{
	"config":       "Open the settings file in your $EDITOR.",
	"debug":        "Show the resolved provider, model and raw status codes.",
	"debug-config": "Print the settings with API keys masked, then exit.",
	"reinstall":    "Delete the settings and run the first-run setup again.",
	"help":         "Show help and exit.",
}

var examples = map[string]string{
	"Ask a quick question":            `termai "How do I unzip a tar file?"`,
	"Explain a log file":              `cat error.log | termai "Explain this error briefly"`,
	"Summarize the packages you have": `pkg list-installed | termai "which of these are build tools?"`,
}

func randomExample() (string, string) {
	keys := make([]string, 0, len(examples))
	for k := range examples {
		keys = append(keys, k)
	}
	desc := keys[rand.IntN(len(keys))] //nolint:gosec
	return desc, examples[desc]
}

var quotedRE = regexp.MustCompile(`"([^"\\]|\\.)*"`)

func cheapHighlighting(s styles, code string) string {
	code = quotedRE.ReplaceAllStringFunc(code, func(x string) string {
		return s.Quote.Render(x)
	})
	return strings.ReplaceAll(code, "|", s.Pipe.Render("|"))
}

func useLine() string {
	appName := filepath.Base(os.Args[0])

	if stdoutRenderer().ColorProfile() == termenv.TrueColor {
		appName = makeGradientText(stdoutStyles().AppName, appName)
	}

	return fmt.Sprintf(
		"%s %s",
		appName,
		stdoutStyles().CliArgs.Render("[OPTIONS] [PROMPT]"),
	)
}

func usageFunc(cmd *cobra.Command) error {
	w := cmd.OutOrStdout()
	s := stdoutStyles()
	_, _ = fmt.Fprintf(w, "An AI assistant for the terminal. Built for pipelines.\n\n")
	_, _ = fmt.Fprintf(w, "%s\n  %s\n", s.Section.Render("Usage:"), useLine())
	_, _ = fmt.Fprintf(w, "  %s\n\n", cheapHighlighting(s, `cat file.txt | termai [OPTIONS] "OPTIONAL PROMPT"`))
	_, _ = fmt.Fprintln(w, s.Section.Render("Options:"))
	cmd.Flags().VisitAll(func(f *flag.Flag) {
		if f.Hidden {
			return
		}
		printFlag(w, s, f)
	})
	desc, example := randomExample()
	_, _ = fmt.Fprintf(
		w,
		"\n%s\n  %s\n  %s\n",
		s.Section.Render("Example:"),
		s.Comment.Render("# "+desc),
		cheapHighlighting(s, example),
	)
	return nil
}

func printFlag(w io.Writer, s styles, f *flag.Flag) {
	if f.Shorthand == "" {
		_, _ = fmt.Fprintf(
			w,
			"  %-44s %s\n",
			s.Flag.Render("--"+f.Name),
			s.FlagDesc.Render(f.Usage),
		)
		return
	}
	_, _ = fmt.Fprintf(
		w,
		"  %s%s %-40s %s\n",
		s.Flag.Render("-"+f.Shorthand),
		s.FlagComma,
		s.Flag.Render("--"+f.Name),
		s.FlagDesc.Render(f.Usage),
	)
}

// isManCmd reports whether args ask for the man page. Anything else starting
// with "man" is prompt text.
func isManCmd(args []string) bool {
	if len(args) == 2 { //nolint:mnd
		return args[1] == "man"
	}
	if len(args) == 3 && args[1] == "man" { //nolint:mnd
		return args[2] == "-h" || args[2] == "--help"
	}
	return false
}

// isCompletionCmd reports whether args ask for shell completion.
func isCompletionCmd(args []string) bool {
	if len(args) <= 1 {
		return false
	}
	if args[1] == "__complete" {
		return true
	}
	if args[1] != "completion" {
		return false
	}
	if len(args) == 3 { //nolint:mnd
		_, ok := map[string]any{
			"bash":       nil,
			"fish":       nil,
			"zsh":        nil,
			"powershell": nil,
			"-h":         nil,
			"--help":     nil,
			"help":       nil,
		}[args[2]]
		return ok
	}
	if len(args) == 4 { //nolint:mnd
		_, ok := map[string]any{
			"-h":     nil,
			"--help": nil,
		}[args[3]]
		return ok
	}
	return false
}
