package main

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/urfave/cli/v2"
)

var cmdDiag = &cli.Command{
	Name:      "diag",
	Usage:     "print CBOR diagnostic notation of a block followed by its links",
	ArgsUsage: `<file|->`,
	Action:    runDiag,
}

func runDiag(cctx *cli.Context) error {
	ex, err := configExtractor(cctx)
	if err != nil {
		return err
	}
	buf, err := readInput(cctx)
	if err != nil {
		return err
	}

	notation, rest, err := cbor.DiagnoseFirst(buf)
	if err != nil {
		return fmt.Errorf("diagnosing block: %w", err)
	}
	out := cctx.App.Writer
	fmt.Fprintln(out, notation)
	if len(rest) > 0 {
		fmt.Fprintf(out, "# %d trailing bytes\n", len(rest))
	}

	for l, err := range ex.Links(buf) {
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "link\t%s\n", l)
	}
	return nil
}
