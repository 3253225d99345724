package osbfcli

import (
	"context"
	"errors"
	"fmt"

	"github.com/osbfgo/osbf/pkg/classstore"
	"github.com/osbfgo/osbf/pkg/osbfconfig"
	"github.com/osbfgo/osbf/pkg/osbfengine"

	flag "github.com/spf13/pflag"
)

var errClassPathRequired = errors.New("class file path is required")

// defaultBuckets matches spec.md's example class size (§4.5's "create and
// size" invariant, 36 + 12*94321 bytes).
const defaultBuckets = 94321

// CreateCmd returns the "create" subcommand: make a new, empty native class
// file.
func CreateCmd(cfg osbfconfig.Config, engine *osbfengine.Engine) *Command {
	flags := flag.NewFlagSet("create", flag.ContinueOnError)
	buckets := flags.Uint32P("buckets", "b", defaultBuckets, "bucket count")

	return &Command{
		Flags: flags,
		Usage: "create [flags] <class-file>",
		Short: "Create a new, empty native class file",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) < 1 {
				return errClassPathRequired
			}

			c, err := engine.Open(args[0], classstore.WriteAll, *buckets, classstore.Options{
				MaxChain:  cfg.MaxChain,
				StopAfter: cfg.StopAfter,
			})
			if err != nil {
				return fmt.Errorf("creating %s: %w", args[0], err)
			}

			o.Printf("created %s (%d buckets)\n", args[0], c.Header.NumBuckets)
			return nil
		},
	}
}
