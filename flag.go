package main

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/pflag"
)

var invalidArgFlagRE = regexp.MustCompile(`invalid argument ".*" for "(.*)" flag: .*`)

// splitArgs sets the flags termai knows about and returns every other
// argument as prompt text, in order. Dash words the flag set does not know,
// like "-la" or "--color", are prompt words too. Nothing after "--" is a
// flag.
func splitArgs(flags *pflag.FlagSet, args []string) ([]string, error) {
	words := make([]string, 0, len(args))
	for i, arg := range args {
		if arg == "--" {
			return append(words, args[i+1:]...), nil
		}
		flag, value, ok := knownFlag(flags, arg)
		if !ok {
			words = append(words, arg)
			continue
		}
		if err := flags.Set(flag.Name, value); err != nil {
			return nil, newFlagParseError(fmt.Errorf("invalid argument %q for %q flag: %w", value, "--"+flag.Name, err))
		}
	}
	return words, nil
}

// knownFlag matches arg against the flag set. It accepts "--name",
// "--name=value" and a single "-x" shorthand.
func knownFlag(flags *pflag.FlagSet, arg string) (*pflag.Flag, string, bool) {
	switch {
	case strings.HasPrefix(arg, "--"):
		name, value, hasValue := strings.Cut(arg[2:], "=")
		flag := flags.Lookup(name)
		if name == "" || flag == nil {
			return nil, "", false
		}
		if !hasValue {
			value = flag.NoOptDefVal
		}
		return flag, value, true
	case len(arg) == 2 && arg[0] == '-' && arg[1] != '-': //nolint:mnd
		flag := flags.ShorthandLookup(arg[1:])
		if flag == nil {
			return nil, "", false
		}
		return flag, flag.NoOptDefVal, true
	}
	return nil, "", false
}

// newFlagParseError turns a flag value error into one that can name the
// offending flag.
func newFlagParseError(err error) flagParseError {
	var reason, flag string
	s := err.Error()
	switch {
	case strings.HasPrefix(s, "invalid argument"):
		reason = "Flag %s has an invalid argument."
		if parts := invalidArgFlagRE.FindStringSubmatch(s); len(parts) > 1 {
			flag = parts[1]
		}
	default:
		reason = s
	}
	return flagParseError{
		err:    err,
		reason: reason,
		flag:   flag,
	}
}

type flagParseError struct {
	err    error
	reason string
	flag   string
}

func (f flagParseError) Error() string {
	return f.err.Error()
}

func (f flagParseError) ReasonFormat() string {
	return f.reason
}

func (f flagParseError) Flag() string {
	return f.flag
}
