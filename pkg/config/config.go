package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// Config holds the CLI surface for scriptfs: a mirror directory, a
// mountpoint, and the procedure list that drives classification.
type Config struct {
	Procedures  []string
	EagerSize   bool
	Foreground  bool
	Debug       bool
	FuseOptions []string
	ShowVersion bool

	Mirror     string
	Mountpoint string
}

// FromArgs parses the scriptfs CLI surface out of argv (excluding argv[0]):
//
//	scriptfs [-l] [-p SPEC]... [-f] [-d] [-o OPT]... [-version] mirror mountpoint
//
// Repeatable -p and -o flags use pflag's StringArray so ordering and
// duplicates are preserved, matching the reference implementation's
// left-to-right procedure list and passthrough FUSE options.
func FromArgs(args []string) (*Config, error) {
	cfg := &Config{}

	flagSet := pflag.NewFlagSet("scriptfs", pflag.ContinueOnError)
	flagSet.BoolVarP(&cfg.EagerSize, "eager-size", "l", false, "run scripts eagerly to report an accurate size in stat(2)")
	flagSet.StringArrayVarP(&cfg.Procedures, "procedure", "p", nil, "PROGRAM[;TEST] classification rule, first match wins (repeatable)")
	flagSet.BoolVarP(&cfg.Foreground, "foreground", "f", false, "run in the foreground instead of daemonizing")
	flagSet.BoolVarP(&cfg.Debug, "debug", "d", false, "enable verbose FUSE and classification tracing")
	flagSet.StringArrayVarP(&cfg.FuseOptions, "option", "o", nil, "raw FUSE mount option, passed through to the binding (repeatable)")
	flagSet.BoolVar(&cfg.ShowVersion, "version", false, "print the scriptfs version and exit")

	// pflag reads a single-dash word as a run of shorthand flags, so the
	// single-dash -version spelling is rewritten to --version before parsing.
	args = append([]string(nil), args...)
	for i, a := range args {
		if a == "--" {
			break
		}
		if a == "-version" {
			args[i] = "--version"
		}
	}

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	if cfg.ShowVersion {
		return cfg, nil
	}

	rest := flagSet.Args()
	if len(rest) != 2 {
		return nil, fmt.Errorf("usage: scriptfs [-l] [-p SPEC]... [-f] [-d] [-o OPT]... mirror_path mountpoint")
	}
	cfg.Mirror, cfg.Mountpoint = rest[0], rest[1]
	return cfg, nil
}
