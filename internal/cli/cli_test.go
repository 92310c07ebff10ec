package cli_test

import (
	"testing"

	"github.com/raysh454/browserbridge/internal/cli"
)

func TestParseArgs_Defaults(t *testing.T) {
	t.Parallel()
	args, err := cli.ParseArgs(nil)
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if args.Check || args.PrintConfig || args.Port != 0 {
		t.Errorf("args = %+v", args)
	}
}

func TestParseArgs_Flags(t *testing.T) {
	t.Parallel()
	in := []string{"-check", "-print-config", "-port", "8191"}
	args, err := cli.ParseArgs(in)
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if !args.Check || !args.PrintConfig || args.Port != 8191 {
		t.Errorf("args = %+v", args)
	}
	if len(args.RawArgs) != len(in) {
		t.Errorf("RawArgs = %v", args.RawArgs)
	}
}

func TestParseArgs_Rejects(t *testing.T) {
	t.Parallel()
	for _, in := range [][]string{
		{"-port", "70000"},
		{"-port", "abc"},
		{"-unknown"},
		{"stray"},
	} {
		if _, err := cli.ParseArgs(in); err == nil {
			t.Errorf("ParseArgs(%v) succeeded", in)
		}
	}
}
