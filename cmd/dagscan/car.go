package main

import (
	"fmt"
	"log/slog"

	"github.com/bluesky-social/dagscan/graph"
	"github.com/bluesky-social/dagscan/store"

	blocks "github.com/ipfs/go-block-format"
	"github.com/ipfs/go-cid"
	"github.com/urfave/cli/v2"
)

var cmdCar = &cli.Command{
	Name:      "car",
	Usage:     "print the links of every block in a CAR file",
	ArgsUsage: `<car-file>`,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "verify",
			Usage: "check that each block's data matches its CID",
		},
	},
	Action: runCar,
}

func runCar(cctx *cli.Context) error {
	ex, err := configExtractor(cctx)
	if err != nil {
		return err
	}
	f, err := openCAR(cctx)
	if err != nil {
		return err
	}
	defer f.Close()

	verify := cctx.Bool("verify")
	out := cctx.App.Writer
	nblocks, nlinks := 0, 0
	err = store.ForEachCARBlock(f, func(roots []cid.Cid, blk blocks.Block) error {
		if nblocks == 0 {
			for _, r := range roots {
				fmt.Fprintf(out, "root\t%s\n", r)
			}
		}
		nblocks++
		if verify {
			if err := store.VerifyBlock(blk); err != nil {
				return err
			}
		}
		links, err := graph.BlockLinks(ex, blk)
		if err != nil {
			return err
		}
		nlinks += len(links)
		for _, l := range links {
			fmt.Fprintf(out, "%s\t%s\n", blk.Cid(), l)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("scanned CAR", "blocks", nblocks, "links", nlinks)
	return nil
}
