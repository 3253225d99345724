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

var errClassifyArgsRequired = errors.New("usage: classify [flags] <text-file> <class-file>...")

// minPmaxPminRatioDefault matches the reference implementation's
// OSBF_MIN_PMAX_PMIN_RATIO, the per-call feature-skip threshold (§4.8 step
// 4). It is not a persisted configuration option.
const minPmaxPminRatioDefault = 1

// ClassifyCmd returns the "classify" subcommand: score a text file against
// one or more class files.
func ClassifyCmd(cfg osbfconfig.Config, engine *osbfengine.Engine) *Command {
	flags := flag.NewFlagSet("classify", flag.ContinueOnError)

	return &Command{
		Flags: flags,
		Usage: "classify <text-file> <class-file>...",
		Short: "Classify a text file against one or more classes",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) < 2 {
				return errClassifyArgsRequired
			}

			text, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			classPaths := args[1:]
			if len(classPaths) > classstore.MaxClasses {
				return fmt.Errorf("%w: %d classes (max %d)", classstore.ErrInvalidInput, len(classPaths), classstore.MaxClasses)
			}

			classes := make([]*classstore.Class, len(classPaths))
			for i, path := range classPaths {
				c, err := engine.Open(path, classstore.ReadOnly, 0, classstore.Options{
					MaxChain:  cfg.MaxChain,
					StopAfter: cfg.StopAfter,
				})
				if err != nil {
					return fmt.Errorf("opening %s: %w", path, err)
				}
				classes[i] = c
			}

			tokOpts := osbftoken.Options{
				LimitTokenSize: cfg.LimitTokenSize,
				MaxTokenSize:   int(cfg.MaxTokenSize),
				MaxLongTokens:  int(cfg.MaxLongTokens),
			}

			result, err := osbfengine.Classify(classes, text, defaultDelims, tokOpts, cfg, minPmaxPminRatioDefault)
			if err != nil {
				return fmt.Errorf("classifying: %w", err)
			}

			for i, path := range classPaths {
				o.Printf("%-30s ptc=%.6f learnings=%d\n", path, result.Ptc[i], result.Ptt[i])
			}
			return nil
		},
	}
}
