package main

import (
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"
)

type styles struct {
	AppName      lipgloss.Style
	CliArgs      lipgloss.Style
	Comment      lipgloss.Style
	ErrorHeader  lipgloss.Style
	ErrorDetails lipgloss.Style
	ErrPadding   lipgloss.Style
	Flag         lipgloss.Style
	FlagComma    lipgloss.Style
	FlagDesc     lipgloss.Style
	InlineCode   lipgloss.Style
	Pipe         lipgloss.Style
	Quote        lipgloss.Style
	Section      lipgloss.Style
}

func makeStyles(r *lipgloss.Renderer) (s styles) {
	const horizontalEdgePadding = 2
	s.AppName = r.NewStyle().Bold(true)
	s.CliArgs = r.NewStyle().Foreground(lipgloss.Color("#585858"))
	s.Comment = r.NewStyle().Foreground(lipgloss.Color("#757575"))
	s.ErrorHeader = r.NewStyle().Foreground(lipgloss.Color("#F1F1F1")).Background(lipgloss.Color("#FF5F87")).Bold(true).Padding(0, 1).SetString("ERROR")
	s.ErrorDetails = s.Comment
	s.ErrPadding = r.NewStyle().Padding(0, horizontalEdgePadding)
	s.Flag = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00B594", Dark: "#3EEFCF"}).Bold(true)
	s.FlagComma = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5DD6C0", Dark: "#427C72"}).SetString(",")
	s.FlagDesc = s.Comment
	s.InlineCode = r.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Background(lipgloss.Color("#3A3A3A")).Padding(0, 1)
	s.Quote = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF71D0", Dark: "#FF78D2"})
	s.Pipe = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#8470FF", Dark: "#745CFF"})
	s.Section = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D7AF00", Dark: "#FFD75F"})
	return s
}

var (
	stdoutRenderer = sync.OnceValue(func() *lipgloss.Renderer {
		return lipgloss.NewRenderer(os.Stdout)
	})
	stdoutStyles = sync.OnceValue(func() styles {
		return makeStyles(stdoutRenderer())
	})
	stderrRenderer = sync.OnceValue(func() *lipgloss.Renderer {
		return lipgloss.NewRenderer(os.Stderr)
	})
	stderrStyles = sync.OnceValue(func() styles {
		return makeStyles(stderrRenderer())
	})
)

// answerColor is the foreground of model answers on a terminal.
const answerColor = "#5FD75F"

// colorAnswer paints text green when out is a color terminal. Answers are
// not rendered through lipgloss, which would pad every line to the same
// width.
func colorAnswer(out *termenv.Output, text string) string {
	if out.Profile == termenv.Ascii {
		return text
	}
	return out.String(text).Foreground(out.Color(answerColor)).String()
}

var gradientStops = []string{"#F967DC", "#6B50FF"}

// makeGradientText renders each rune of str with a color blended between
// the gradient stops.
func makeGradientText(baseStyle lipgloss.Style, str string) string {
	runes := []rune(str)
	if len(runes) < 2 { //nolint:mnd
		return baseStyle.Render(str)
	}
	ramp := makeGradientRamp(len(runes))
	var b strings.Builder
	for i, r := range runes {
		b.WriteString(baseStyle.Foreground(lipgloss.Color(ramp[i])).Render(string(r)))
	}
	return b.String()
}

func makeGradientRamp(length int) []string {
	from, _ := colorful.Hex(gradientStops[0])
	to, _ := colorful.Hex(gradientStops[1])
	ramp := make([]string, length)
	for i := range ramp {
		ramp[i] = from.BlendLuv(to, float64(i)/float64(length-1)).Hex()
	}
	return ramp
}
