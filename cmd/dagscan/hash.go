package main

import (
	"fmt"

	"github.com/bluesky-social/dagscan/store"

	"github.com/ipfs/go-cid"
	"github.com/urfave/cli/v2"
)

var cmdHash = &cli.Command{
	Name:      "hash",
	Usage:     "print the blake3 DAG-CBOR CIDv1 of a block",
	ArgsUsage: `<file|->`,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "raw",
			Usage: "use the raw codec instead of dag-cbor",
		},
	},
	Action: runHash,
}

func runHash(cctx *cli.Context) error {
	buf, err := readInput(cctx)
	if err != nil {
		return err
	}
	codec := uint64(cid.DagCBOR)
	if cctx.Bool("raw") {
		codec = cid.Raw
	} else {
		// refuse to name something that is not a single well-formed item
		ex, err := configExtractor(cctx)
		if err != nil {
			return err
		}
		if _, err := ex.Extract(buf); err != nil {
			return err
		}
	}

	blk, err := store.Blake3Block(codec, buf)
	if err != nil {
		return err
	}
	fmt.Fprintln(cctx.App.Writer, blk.Cid())
	return nil
}
