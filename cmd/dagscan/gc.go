package main

import (
	"fmt"
	"log/slog"

	"github.com/bluesky-social/dagscan/graph"
	"github.com/bluesky-social/dagscan/store"

	"github.com/ipfs/go-cid"
	"github.com/urfave/cli/v2"
)

var cmdGC = &cli.Command{
	Name:      "gc",
	Usage:     "import a CAR file into the store and report (or delete) blocks unreachable from its roots",
	ArgsUsage: `<car-file>`,
	Flags: []cli.Flag{
		storeFlag,
		&cli.StringSliceFlag{
			Name:  "root",
			Usage: "root CID to keep; defaults to the CAR header roots",
		},
		&cli.BoolFlag{
			Name:  "delete",
			Usage: "actually delete unreachable blocks (default is a dry run)",
		},
		&cli.BoolFlag{
			Name:  "allow-missing",
			Usage: "treat linked blocks absent from the store as leaves",
		},
		&cli.IntFlag{
			Name:  "cache-size",
			Usage: "number of blocks held in the read cache",
			Value: 1024,
		},
	},
	Action: runGC,
}

func runGC(cctx *cli.Context) error {
	ctx := cctx.Context
	ex := configGraphExtractor(cctx)

	f, err := openCAR(cctx)
	if err != nil {
		return err
	}
	defer f.Close()

	bs, err := openStore(cctx)
	if err != nil {
		return err
	}
	defer bs.Close()

	roots, n, err := store.ImportCAR(ctx, bs, f)
	if err != nil {
		return err
	}
	slog.Info("imported CAR", "blocks", n, "roots", len(roots))

	if rs := cctx.StringSlice("root"); len(rs) > 0 {
		roots = roots[:0]
		for _, s := range rs {
			c, err := cid.Decode(s)
			if err != nil {
				return fmt.Errorf("invalid root %q: %w", s, err)
			}
			roots = append(roots, c)
		}
	}

	cbs, err := store.NewCacheBlockstore(bs, cctx.Int("cache-size"))
	if err != nil {
		return err
	}
	cfg := graph.DefaultWalkerConfig()
	cfg.Extractor = ex
	cfg.AllowMissing = cctx.Bool("allow-missing")
	w, err := graph.NewWalker(cbs, cfg)
	if err != nil {
		return err
	}

	dead, err := w.Collect(ctx, cbs, roots, !cctx.Bool("delete"))
	if err != nil {
		return err
	}
	for _, c := range dead {
		fmt.Fprintln(cctx.App.Writer, c)
	}
	return nil
}
