package root

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/regenrek/winrestore/internal/cli/spec"
)

func buildFlags(flags []spec.Flag) ([]cli.Flag, error) {
	out := make([]cli.Flag, 0, len(flags))
	for _, f := range flags {
		built, err := buildFlag(f)
		if err != nil {
			return nil, err
		}
		out = append(out, built)
	}
	return out, nil
}

func buildFlag(f spec.Flag) (cli.Flag, error) {
	var aliases []string
	if f.Short != "" {
		aliases = []string{f.Short}
	}
	var sources cli.ValueSourceChain
	if f.Env != "" {
		sources = cli.EnvVars(f.Env)
	}
	switch f.Kind {
	case spec.KindBool:
		return &cli.BoolFlag{Name: f.Name, Aliases: aliases, Usage: f.Usage, Sources: sources}, nil
	case spec.KindString, spec.KindPath:
		return &cli.StringFlag{
			Name:      f.Name,
			Aliases:   aliases,
			Usage:     f.Usage,
			Sources:   sources,
			Value:     f.Default,
			TakesFile: f.Kind == spec.KindPath,
		}, nil
	case spec.KindChoice:
		return &cli.StringFlag{
			Name:      f.Name,
			Aliases:   aliases,
			Usage:     fmt.Sprintf("%s (%s)", f.Usage, strings.Join(f.Choices, "|")),
			Sources:   sources,
			Value:     f.Default,
			Validator: oneOf(f.Choices),
		}, nil
	case spec.KindDuration:
		var d time.Duration
		if f.Default != "" {
			parsed, err := time.ParseDuration(f.Default)
			if err != nil {
				return nil, fmt.Errorf("flag --%s default: %w", f.Name, err)
			}
			d = parsed
		}
		return &cli.DurationFlag{Name: f.Name, Aliases: aliases, Usage: f.Usage, Sources: sources, Value: d}, nil
	case spec.KindStrings:
		fl := &cli.StringSliceFlag{Name: f.Name, Aliases: aliases, Usage: f.Usage, Sources: sources}
		if len(f.Choices) > 0 {
			check := oneOf(f.Choices)
			fl.Validator = func(values []string) error {
				for _, v := range values {
					if err := check(v); err != nil {
						return err
					}
				}
				return nil
			}
		}
		return fl, nil
	}
	return nil, fmt.Errorf("flag --%s: unknown kind %q", f.Name, f.Kind)
}

func oneOf(choices []string) func(string) error {
	return func(v string) error {
		if slices.Contains(choices, v) {
			return nil
		}
		return fmt.Errorf("invalid value %q (want one of %s)", v, strings.Join(choices, ", "))
	}
}

// checkExcludes rejects invocations that set more than one flag of a group.
func checkExcludes(cmdSpec spec.Command, cmd *cli.Command) error {
	for _, group := range cmdSpec.Excludes {
		var set []string
		for _, name := range group {
			if cmd.IsSet(name) {
				set = append(set, "--"+name)
			}
		}
		if len(set) > 1 {
			return fmt.Errorf("%s: %s cannot be combined", cmdSpec.Name, strings.Join(set, " and "))
		}
	}
	return nil
}
