package main

import (
	"log/slog"

	"github.com/bluesky-social/dagscan/graph"
	"github.com/bluesky-social/dagscan/store"

	"github.com/urfave/cli/v2"
)

var cmdPrefetch = &cli.Command{
	Name:      "prefetch",
	Usage:     "copy the blocks reachable from a CAR file's roots into the store",
	ArgsUsage: `<car-file>`,
	Flags: []cli.Flag{
		storeFlag,
		&cli.IntFlag{
			Name:  "concurrency",
			Usage: "blocks fetched in parallel",
			Value: 8,
		},
	},
	Action: runPrefetch,
}

func runPrefetch(cctx *cli.Context) error {
	ctx := cctx.Context
	ex := configGraphExtractor(cctx)

	f, err := openCAR(cctx)
	if err != nil {
		return err
	}
	defer f.Close()

	remote := store.NewMemStore()
	roots, _, err := store.ImportCAR(ctx, remote, f)
	if err != nil {
		return err
	}

	local, err := openStore(cctx)
	if err != nil {
		return err
	}
	defer local.Close()

	p := &graph.Prefetcher{
		Local:       local,
		Remote:      remote,
		Extractor:   ex,
		Concurrency: cctx.Int("concurrency"),
		Verify:      store.VerifyBlock,
	}
	n, err := p.Prefetch(ctx, roots)
	if err != nil {
		return err
	}
	slog.Info("prefetch complete", "fetched", n, "available", remote.Len())
	return nil
}
