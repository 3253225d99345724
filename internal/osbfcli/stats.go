package osbfcli

import (
	"context"
	"errors"
	"fmt"

	"github.com/osbfgo/osbf/pkg/classstore"
	"github.com/osbfgo/osbf/pkg/osbfengine"

	flag "github.com/spf13/pflag"
)

var errStatsArgRequired = errors.New("usage: stats <class-file>")

// StatsCmd returns the "stats" subcommand: report header counters and
// bucket-table metrics for a class file.
func StatsCmd(engine *osbfengine.Engine) *Command {
	flags := flag.NewFlagSet("stats", flag.ContinueOnError)

	return &Command{
		Flags: flags,
		Usage: "stats <class-file>",
		Short: "Report header counters and bucket-table metrics",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) < 1 {
				return errStatsArgRequired
			}

			c, err := engine.Open(args[0], classstore.ReadOnly, 0, classstore.Options{})
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}

			s, err := osbfengine.Statistics(c)
			if err != nil {
				return fmt.Errorf("computing stats for %s: %w", args[0], err)
			}

			printStats(o, args[0], s)
			return nil
		},
	}
}

func printStats(o *IO, path string, s osbfengine.Stats) {
	o.Printf("%s\n", path)
	o.Printf("  buckets:           %d\n", s.NumBuckets)
	o.Printf("  learnings:         %d\n", s.Learnings)
	o.Printf("  extra_learnings:   %d\n", s.ExtraLearnings)
	o.Printf("  false_negatives:   %d\n", s.FalseNegatives)
	o.Printf("  false_positives:   %d\n", s.FalsePositives)
	o.Printf("  classifications:  %d\n", s.Classifications)
	o.Printf("  used_buckets:      %d\n", s.UsedBuckets)
	o.Printf("  num_chains:        %d\n", s.NumChains)
	o.Printf("  max_chain:         %d\n", s.MaxChain)
	o.Printf("  avg_chain:         %.2f\n", s.AvgChain)
	o.Printf("  max_displacement:  %d\n", s.MaxDisplacement)
	o.Printf("  unreachable:       %d\n", s.Unreachable)
}
