package osbfcli

import (
	"context"
	"errors"
	"fmt"

	"github.com/osbfgo/osbf/pkg/classstore"
	"github.com/osbfgo/osbf/pkg/osbfcsv"
	"github.com/osbfgo/osbf/pkg/osbfengine"

	flag "github.com/spf13/pflag"
)

var (
	errDumpArgsRequired    = errors.New("usage: dump <class-file> <csv-file>")
	errRestoreArgsRequired = errors.New("usage: restore <csv-file> <class-file>")
)

// DumpCmd returns the "dump" subcommand: write a class file's header and
// buckets out as CSV.
func DumpCmd(engine *osbfengine.Engine) *Command {
	flags := flag.NewFlagSet("dump", flag.ContinueOnError)

	return &Command{
		Flags: flags,
		Usage: "dump <class-file> <csv-file>",
		Short: "Dump a class file to the CSV interchange format",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) < 2 {
				return errDumpArgsRequired
			}

			c, err := engine.Open(args[0], classstore.ReadOnly, 0, classstore.Options{})
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}

			buckets := make([]osbfcsv.Bucket, c.Table.N)
			for i := uint32(0); i < c.Table.N; i++ {
				h1, h2, count := c.Table.Bucket(i)
				buckets[i] = osbfcsv.Bucket{Hash1: h1, Hash2: h2, Count: count}
			}

			if err := osbfcsv.Dump(args[1], c.Header, buckets); err != nil {
				return fmt.Errorf("dumping %s to %s: %w", args[0], args[1], err)
			}

			o.Printf("dumped %s to %s (%d buckets)\n", args[0], args[1], c.Table.N)
			return nil
		},
	}
}

// RestoreCmd returns the "restore" subcommand: rebuild a native class file
// from a CSV interchange dump.
func RestoreCmd(engine *osbfengine.Engine) *Command {
	flags := flag.NewFlagSet("restore", flag.ContinueOnError)

	return &Command{
		Flags: flags,
		Usage: "restore <csv-file> <class-file>",
		Short: "Rebuild a native class file from a CSV interchange dump",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) < 2 {
				return errRestoreArgsRequired
			}

			header, buckets, err := osbfcsv.Restore(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			c, err := engine.Open(args[1], classstore.WriteAll, header.NumBuckets, classstore.Options{})
			if err != nil {
				return fmt.Errorf("creating %s: %w", args[1], err)
			}

			c.Header = header
			for i, b := range buckets {
				c.Table.SetBucket(uint32(i), b.Hash1, b.Hash2, b.Count)
			}

			o.Printf("restored %s from %s (%d buckets)\n", args[1], args[0], len(buckets))
			return nil
		},
	}
}
