package cli

import (
	"flag"
	"fmt"
	"io"
)

// CLIArgs are the startup flags. Everything else is configured through the
// environment.
type CLIArgs struct {
	// Check launches one browser, reports its version and exits.
	Check bool

	// PrintConfig prints the resolved configuration and exits.
	PrintConfig bool

	// Port overrides PORT when non-zero.
	Port int

	// RawArgs is the original args slice (useful for debugging/tests).
	RawArgs []string
}

// ParseArgs parses a slice of args and returns CLIArgs. Use in tests by passing
// arbitrary slices. The function is deterministic and does not read os.Args.
func ParseArgs(args []string) (*CLIArgs, error) {
	fs := flag.NewFlagSet("browserbridge", flag.ContinueOnError)
	var (
		check       = fs.Bool("check", false, "Launch one browser, print its version and exit")
		printConfig = fs.Bool("print-config", false, "Print the resolved configuration and exit")
		port        = fs.Int("port", 0, "Listen port (overrides PORT)")
	)

	// Ensure Parse doesn't write to stdout/stderr in tests
	fs.SetOutput(io.Discard)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if *port < 0 || *port > 65535 {
		return nil, fmt.Errorf("invalid -port %d", *port)
	}

	return &CLIArgs{
		Check:       *check,
		PrintConfig: *printConfig,
		Port:        *port,
		RawArgs:     args,
	}, nil
}
