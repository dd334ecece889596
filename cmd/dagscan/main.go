package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/bluesky-social/dagscan/dagcbor"
	"github.com/bluesky-social/dagscan/store"
	"github.com/bluesky-social/dagscan/util/cliutil"

	_ "github.com/joho/godotenv/autoload"

	"github.com/carlmjohnson/versioninfo"
	"github.com/multiformats/go-multihash"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(-1)
	}
}

var extractFlags = []cli.Flag{
	&cli.IntFlag{
		Name:    "max-depth",
		Usage:   "maximum nesting of arrays, maps and tags",
		Value:   dagcbor.DefaultMaxDepth,
		EnvVars: []string{"DAGSCAN_MAX_DEPTH"},
	},
	&cli.StringSliceFlag{
		Name:    "hash",
		Usage:   "multihash function of links to report, by name (eg: blake3, sha2-256) or 0x code; repeatable (gc and prefetch follow every link)",
		Value:   cli.NewStringSlice("blake3"),
		EnvVars: []string{"DAGSCAN_HASH"},
	},
	&cli.BoolFlag{
		Name:    "allow-indefinite-links",
		Usage:   "accept CIDs encoded as indefinite-length byte strings",
		EnvVars: []string{"DAGSCAN_ALLOW_INDEFINITE_LINKS"},
	},
}

var storeFlag = &cli.StringFlag{
	Name:    "store",
	Usage:   "flatfs blockstore directory (in-memory if empty)",
	EnvVars: []string{"DAGSCAN_STORE"},
}

func run(args []string) error {
	return newApp().Run(args)
}

func newApp() *cli.App {
	app := &cli.App{
		Name:    "dagscan",
		Usage:   "extract links from DAG-CBOR blocks and walk block graphs",
		Version: versioninfo.Short(),
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log verbosity level (eg: warn, info, debug)",
				EnvVars: []string{"DAGSCAN_LOG_LEVEL", "LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "log output format (text or json)",
				Value:   "text",
				EnvVars: []string{"DAGSCAN_LOG_FMT"},
			},
		}, extractFlags...),
		Before: func(cctx *cli.Context) error {
			_, err := cliutil.SetupSlog(cliutil.LogOptions{
				LogLevel:  cctx.String("log-level"),
				LogFormat: cctx.String("log-format"),
				Out:       cctx.App.ErrWriter,
			})
			return err
		},
	}
	app.Commands = []*cli.Command{
		cmdLinks,
		cmdCar,
		cmdGC,
		cmdPrefetch,
		cmdDiag,
		cmdHash,
	}
	return app
}

// parseHashCode resolves a multihash function name or a 0x-prefixed code.
func parseHashCode(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		code, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid hash code %q: %w", s, err)
		}
		return code, nil
	}
	code, ok := multihash.Names[strings.ToLower(s)]
	if !ok {
		return 0, fmt.Errorf("unknown hash function: %q", s)
	}
	return code, nil
}

func configExtractor(cctx *cli.Context) (*dagcbor.Extractor, error) {
	opts := extractorOptions(cctx)

	names := cctx.StringSlice("hash")
	if len(names) > 0 {
		opts.HashCodes = nil
	}
	for _, name := range names {
		code, err := parseHashCode(name)
		if err != nil {
			return nil, err
		}
		opts.HashCodes = append(opts.HashCodes, code)
	}
	return dagcbor.NewExtractor(opts), nil
}

func extractorOptions(cctx *cli.Context) dagcbor.Options {
	opts := dagcbor.DefaultOptions()
	opts.MaxDepth = cctx.Int("max-depth")
	opts.AllowIndefiniteLinks = cctx.Bool("allow-indefinite-links")
	return opts
}

// configGraphExtractor is for commands that delete or copy blocks: every link
// is followed, so --hash does not apply.
func configGraphExtractor(cctx *cli.Context) *dagcbor.Extractor {
	opts := extractorOptions(cctx)
	opts.AnyHash = true
	return dagcbor.NewExtractor(opts)
}

func openStore(cctx *cli.Context) (*store.Store, error) {
	return store.Open(cctx.String("store"))
}

// readInput reads the file named by the first argument, or stdin for "-".
func readInput(cctx *cli.Context) ([]byte, error) {
	p := cctx.Args().First()
	if p == "" {
		return nil, fmt.Errorf("need to provide path to a block file (or '-' for stdin)")
	}
	if p == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(p)
}

func openCAR(cctx *cli.Context) (*os.File, error) {
	p := cctx.Args().First()
	if p == "" {
		return nil, fmt.Errorf("need to provide path to CAR file")
	}
	return os.Open(p)
}
