package osbfcli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/osbfgo/osbf/pkg/classstore"
	"github.com/osbfgo/osbf/pkg/osbfconfig"
	"github.com/osbfgo/osbf/pkg/osbfengine"
	"github.com/osbfgo/osbf/pkg/osbftoken"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"
)

// ReplCmd returns the "repl" subcommand: an interactive loop for training
// and classifying against a fixed set of class files, grounded on
// cmd/sloty/main.go's liner-based REPL.
func ReplCmd(cfg osbfconfig.Config, engine *osbfengine.Engine) *Command {
	flags := flag.NewFlagSet("repl", flag.ContinueOnError)

	return &Command{
		Flags: flags,
		Usage: "repl <class-file>...",
		Short: "Interactively train and classify against a set of classes",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) < 1 {
				return fmt.Errorf("usage: repl <class-file>...")
			}

			r := &repl{cfg: cfg, engine: engine, o: o, paths: args}
			return r.run()
		},
	}
}

type repl struct {
	cfg    osbfconfig.Config
	engine *osbfengine.Engine
	o      *IO
	paths  []string
	liner  *liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".osbfctl_history")
}

func (r *repl) run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	r.o.Printf("osbfctl repl - classes: %s\n", strings.Join(r.paths, ", "))
	r.o.Println("Type 'help' for available commands.")
	r.o.Println()

	for {
		line, err := r.liner.Prompt("osbf> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				r.o.Println("\nBye!")
				break
			}
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			r.o.Println("Bye!")
			r.saveHistory()
			return nil
		case "help", "?":
			r.printHelp()
		case "train":
			r.cmdTrain(args)
		case "unlearn":
			r.cmdUnlearn(args)
		case "classify":
			r.cmdClassify(args)
		case "stats":
			r.cmdStats(args)
		default:
			r.o.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()
	return nil
}

func (r *repl) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

func (r *repl) completer(line string) []string {
	commands := []string{"train", "unlearn", "classify", "stats", "help", "exit", "quit", "q"}
	var completions []string
	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}
	return completions
}

func (r *repl) printHelp() {
	r.o.Println("Commands:")
	r.o.Println("  train <class> <text-file>     Learn text into class (sense +1)")
	r.o.Println("  unlearn <class> <text-file>   Unlearn text from class (sense -1)")
	r.o.Println("  classify <text-file>          Classify text against all open classes")
	r.o.Println("  stats <class>                 Show bucket-table metrics for class")
	r.o.Println("  help                          Show this help")
	r.o.Println("  exit / quit / q               Exit")
}

func (r *repl) tokOpts() osbftoken.Options {
	return osbftoken.Options{
		LimitTokenSize: r.cfg.LimitTokenSize,
		MaxTokenSize:   int(r.cfg.MaxTokenSize),
		MaxLongTokens:  int(r.cfg.MaxLongTokens),
	}
}

func (r *repl) open(path string, usage classstore.Usage) (*classstore.Class, error) {
	return r.engine.Open(path, usage, 0, classstore.Options{MaxChain: r.cfg.MaxChain, StopAfter: r.cfg.StopAfter})
}

func (r *repl) cmdTrain(args []string) { r.train(args, 1) }

func (r *repl) cmdUnlearn(args []string) { r.train(args, -1) }

func (r *repl) train(args []string, sense int32) {
	if len(args) < 2 {
		r.o.Println("Usage: train <class> <text-file>")
		return
	}

	text, err := os.ReadFile(args[1])
	if err != nil {
		r.o.Printf("Error reading %s: %v\n", args[1], err)
		return
	}

	c, err := r.open(args[0], classstore.WriteAll)
	if err != nil {
		r.o.Printf("Error opening %s: %v\n", args[0], err)
		return
	}

	if err := osbfengine.Train(c, text, defaultDelims, r.tokOpts(), sense, 0); err != nil {
		r.o.Printf("Error training: %v\n", err)
		return
	}

	r.o.Printf("OK: learnings=%d\n", c.Header.Learnings)
}

func (r *repl) cmdClassify(args []string) {
	if len(args) < 1 {
		r.o.Println("Usage: classify <text-file>")
		return
	}

	text, err := os.ReadFile(args[0])
	if err != nil {
		r.o.Printf("Error reading %s: %v\n", args[0], err)
		return
	}

	classes := make([]*classstore.Class, len(r.paths))
	for i, path := range r.paths {
		c, err := r.open(path, classstore.ReadOnly)
		if err != nil {
			r.o.Printf("Error opening %s: %v\n", path, err)
			return
		}
		classes[i] = c
	}

	result, err := osbfengine.Classify(classes, text, defaultDelims, r.tokOpts(), r.cfg, minPmaxPminRatioDefault)
	if err != nil {
		r.o.Printf("Error classifying: %v\n", err)
		return
	}

	for i, path := range r.paths {
		r.o.Printf("%-30s ptc=%.6f learnings=%d\n", path, result.Ptc[i], result.Ptt[i])
	}
}

func (r *repl) cmdStats(args []string) {
	if len(args) < 1 {
		r.o.Println("Usage: stats <class>")
		return
	}

	c, err := r.open(args[0], classstore.ReadOnly)
	if err != nil {
		r.o.Printf("Error opening %s: %v\n", args[0], err)
		return
	}

	s, err := osbfengine.Statistics(c)
	if err != nil {
		r.o.Printf("Error: %v\n", err)
		return
	}

	printStats(r.o, args[0], s)
}
