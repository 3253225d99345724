package osbfcli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/osbfgo/osbf/pkg/classstore"
	"github.com/osbfgo/osbf/pkg/osbfconfig"
	"github.com/osbfgo/osbf/pkg/osbfengine"
	"github.com/osbfgo/osbf/pkg/osbftoken"

	flag "github.com/spf13/pflag"
)

var errTrainArgsRequired = errors.New("usage: train <class-file> <text-file>")

// defaultDelims mirrors the reference tokenizer's default delimiter set:
// whitespace plus a few punctuation marks that commonly separate tokens but
// are themselves graphic characters (§4.2).
var defaultDelims = []byte(" \t\r\n.,;:!?\"'()[]{}<>")

// TrainCmd returns the "train" subcommand: learn or unlearn text against a
// class file.
func TrainCmd(cfg osbfconfig.Config, engine *osbfengine.Engine) *Command {
	flags := flag.NewFlagSet("train", flag.ContinueOnError)
	sense := flags.Int32P("sense", "s", 1, "+1 to learn, -1 to unlearn")
	extra := flags.Bool("extra-learning", false, "record against extra_learnings instead of learnings")
	falseNeg := flags.Bool("false-negative", false, "mark this as a correction of a prior missed classification")

	return &Command{
		Flags: flags,
		Usage: "train [flags] <class-file> <text-file>",
		Short: "Train a class on a text file (+1 learn / -1 unlearn)",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) < 2 {
				return errTrainArgsRequired
			}

			text, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[1], err)
			}

			c, err := engine.Open(args[0], classstore.WriteAll, 0, classstore.Options{
				MaxChain:  cfg.MaxChain,
				StopAfter: cfg.StopAfter,
			})
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}

			var trainFlags osbfengine.TrainFlags
			if *extra {
				trainFlags |= osbfengine.ExtraLearning
			}
			if *falseNeg {
				trainFlags |= osbfengine.FalseNegative
			}

			tokOpts := osbftoken.Options{
				LimitTokenSize: cfg.LimitTokenSize,
				MaxTokenSize:   int(cfg.MaxTokenSize),
				MaxLongTokens:  int(cfg.MaxLongTokens),
			}

			if err := osbfengine.Train(c, text, defaultDelims, tokOpts, *sense, trainFlags); err != nil {
				return fmt.Errorf("training %s: %w", args[0], err)
			}

			o.Printf("trained %s: learnings=%d extra_learnings=%d\n", args[0], c.Header.Learnings, c.Header.ExtraLearnings)
			return nil
		},
	}
}
