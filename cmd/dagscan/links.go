package main

import (
	"fmt"
	"log/slog"

	"github.com/bluesky-social/dagscan/dagcbor"

	"github.com/urfave/cli/v2"
)

var cmdLinks = &cli.Command{
	Name:      "links",
	Usage:     "print the links of a single DAG-CBOR block",
	ArgsUsage: `<file|->`,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "prefix",
			Usage: "only scan the first item, ignoring any bytes after it",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "include codec and hash function of each link",
		},
	},
	Action: runLinks,
}

func runLinks(cctx *cli.Context) error {
	ex, err := configExtractor(cctx)
	if err != nil {
		return err
	}
	buf, err := readInput(cctx)
	if err != nil {
		return err
	}
	if cctx.Bool("prefix") {
		n, err := ex.ScanItem(buf, func(l dagcbor.Link) bool {
			printLink(cctx, l)
			return true
		})
		if err != nil {
			return err
		}
		if n < len(buf) {
			slog.Info("ignored trailing bytes after first item", "itemLen", n, "trailing", len(buf)-n)
		}
		return nil
	}

	for l, err := range ex.Links(buf) {
		if err != nil {
			return err
		}
		printLink(cctx, l)
	}
	return nil
}

func printLink(cctx *cli.Context, l dagcbor.Link) {
	if cctx.Bool("verbose") {
		fmt.Fprintln(cctx.App.Writer, l.String())
		return
	}
	fmt.Fprintln(cctx.App.Writer, l.Cid())
}
