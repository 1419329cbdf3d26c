package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/charmbracelet/huh"
	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"
)

func newRootCmd(a *app) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:     "termai",
		Short:   "An AI assistant for the terminal.",
		Long:    "termai sends your prompt, typed or piped, to Gemini or OpenAI and prints the answer.",
		Example: `cat error.log | termai "Explain this error briefly"`,
		Args:    cobra.ArbitraryArgs,
		// flags are split out in RunE: --help follows the same ordering
		// as every other flag, and unknown dash words stay in the prompt.
		DisableFlagParsing: true,
		SilenceErrors:      true,
		SilenceUsage:       true,
		RunE: func(cmd *cobra.Command, args []string) error {
			words, err := splitArgs(cmd.Flags(), args)
			if err != nil {
				return err
			}
			return a.run(cmd, opts, words)
		},
	}
	cmd.SetIn(a.stdin)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)
	cmd.SetUsageFunc(usageFunc)

	flags := cmd.Flags()
	flags.BoolVar(&opts.Config, "config", false, help["config"])
	flags.BoolVar(&opts.Debug, "debug", false, help["debug"])
	flags.BoolVar(&opts.DebugConfig, "debug-config", false, help["debug-config"])
	flags.BoolVar(&opts.Reinstall, "reinstall", false, help["reinstall"])
	flags.BoolVarP(&opts.Help, "help", "h", false, help["help"])
	flags.SortFlags = false

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.CompletionOptions.DisableDefaultCmd = !isCompletionCmd(os.Args)
	if isManCmd(os.Args) {
		cmd.AddCommand(newManCmd(cmd))
	}
	return cmd
}

func newManCmd(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:                   "man",
		Short:                 "Generates manpages",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Hidden:                true,
		Args:                  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			manPage, err := mcobra.NewManPage(1, root)
			if err != nil {
				//nolint:wrapcheck
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), manPage.Build(roff.NewDocument()))
			//nolint:wrapcheck
			return err
		},
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	a := newApp()
	err := newRootCmd(a).ExecuteContext(ctx)
	cancel()
	if err != nil {
		// exhaust stdin
		if !a.interactive {
			_, _ = io.Copy(io.Discard, a.stdin)
		}
		handleError(a.stderr, err)
		os.Exit(1)
	}
}

func handleError(w io.Writer, err error) {
	s := stderrStyles()
	format := "\n%s\n\n"

	var args []any
	var ferr flagParseError
	var terr termaiError
	if errors.As(err, &ferr) {
		format += "%s\n\n"
		args = []any{
			fmt.Sprintf(
				"Check out %s %s",
				s.InlineCode.Render("termai -h"),
				s.Comment.Render("for help."),
			),
			fmt.Sprintf(
				ferr.ReasonFormat(),
				s.InlineCode.Render(ferr.Flag()),
			),
		}
	} else if errors.As(err, &terr) {
		args = []any{
			s.ErrPadding.Render(s.ErrorHeader.String(), terr.Reason()),
		}

		// Skip the error details if the user simply canceled out of huh.
		if !errors.Is(terr.err, huh.ErrUserAborted) {
			format += "%s\n\n"
			args = append(args, s.ErrPadding.Render(s.ErrorDetails.Render(terr.Details())))
		}
	} else {
		args = []any{
			s.ErrPadding.Render(s.ErrorDetails.Render(err.Error())),
		}
	}

	_, _ = fmt.Fprintf(w, format, args...)
}
