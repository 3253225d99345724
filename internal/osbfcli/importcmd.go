package osbfcli

import (
	"context"
	"errors"
	"fmt"

	"github.com/osbfgo/osbf/pkg/classstore"
	"github.com/osbfgo/osbf/pkg/osbfengine"

	flag "github.com/spf13/pflag"
)

var errImportArgsRequired = errors.New("usage: import <dst-class-file> <src-class-file>")

// ImportCmd returns the "import" subcommand: merge src's buckets and
// counters into dst.
func ImportCmd(engine *osbfengine.Engine) *Command {
	flags := flag.NewFlagSet("import", flag.ContinueOnError)

	return &Command{
		Flags: flags,
		Usage: "import <dst-class-file> <src-class-file>",
		Short: "Merge a source class's buckets and counters into a destination class",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) < 2 {
				return errImportArgsRequired
			}

			dst, err := engine.Open(args[0], classstore.WriteAll, 0, classstore.Options{})
			if err != nil {
				return fmt.Errorf("opening destination %s: %w", args[0], err)
			}

			src, err := engine.Open(args[1], classstore.ReadOnly, 0, classstore.Options{})
			if err != nil {
				return fmt.Errorf("opening source %s: %w", args[1], err)
			}

			if err := osbfengine.Import(dst, src); err != nil {
				return fmt.Errorf("importing %s into %s: %w", args[1], args[0], err)
			}

			o.Printf("imported %s into %s: learnings=%d classifications=%d\n",
				args[1], args[0], dst.Header.Learnings, dst.Header.Classifications)
			return nil
		},
	}
}
