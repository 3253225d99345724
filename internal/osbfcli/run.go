// Package osbfcli implements the osbfctl command-line tool: one-shot
// subcommands for creating, training, classifying, importing, dumping, and
// inspecting class files, plus an interactive REPL. Structure and flag
// handling are grounded on the teacher's internal/cli package (Command/IO,
// pflag-based global+per-command flags); the REPL is grounded on
// cmd/sloty/main.go's liner-based loop.
package osbfcli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/osbfgo/osbf/pkg/osbfconfig"
	"github.com/osbfgo/osbf/pkg/osbfengine"

	flag "github.com/spf13/pflag"
)

// Run is the main entry point. Returns an exit code.
func Run(_ io.Reader, out, errOut io.Writer, args []string, env map[string]string) int {
	globalFlags := flag.NewFlagSet("osbfctl", flag.ContinueOnError)
	globalFlags.SetInterspersed(false)
	globalFlags.Usage = func() {}
	globalFlags.SetOutput(&strings.Builder{})
	flagHelp := globalFlags.BoolP("help", "h", false, "Show help")
	flagCwd := globalFlags.StringP("cwd", "C", "", "Run as if started in `dir`")
	flagConfig := globalFlags.StringP("config", "c", "", "Use specified config `file`")

	if err := globalFlags.Parse(args[1:]); err != nil {
		fprintln(errOut, "error:", err)
		printGlobalOptions(errOut)
		return 1
	}

	cfg, err := osbfconfig.Load(osbfconfig.LoadInput{
		WorkDirOverride: *flagCwd,
		ConfigPath:      *flagConfig,
		Env:             env,
	})
	if err != nil {
		fprintln(errOut, "error:", err)
		printGlobalOptions(errOut)
		return 1
	}

	engine := osbfengine.New()
	defer engine.Close()

	commands := allCommands(cfg, engine)

	commandMap := make(map[string]*Command, len(commands))
	for _, cmd := range commands {
		commandMap[cmd.Name()] = cmd
	}

	commandAndArgs := globalFlags.Args()

	if *flagHelp || (len(commandAndArgs) == 0 && globalFlags.NFlag() == 0) {
		printUsage(out, commands)
		return 0
	}

	if len(commandAndArgs) == 0 {
		fprintln(errOut, "error: no command provided")
		printUsage(errOut, commands)
		return 1
	}

	cmdName := commandAndArgs[0]
	cmd, ok := commandMap[cmdName]
	if !ok {
		fprintln(errOut, "error: unknown command:", cmdName)
		printUsage(errOut, commands)
		return 1
	}

	cmdIO := NewIO(out, errOut)
	return cmd.Run(context.Background(), cmdIO, commandAndArgs[1:])
}

func allCommands(cfg osbfconfig.Config, engine *osbfengine.Engine) []*Command {
	return []*Command{
		CreateCmd(cfg, engine),
		TrainCmd(cfg, engine),
		ClassifyCmd(cfg, engine),
		ImportCmd(engine),
		StatsCmd(engine),
		DumpCmd(engine),
		RestoreCmd(engine),
		ReplCmd(cfg, engine),
	}
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

const globalOptionsHelp = `  -h, --help             Show help
  -C, --cwd <dir>        Run as if started in <dir>
  -c, --config <file>    Use specified config file`

func printGlobalOptions(w io.Writer) {
	fprintln(w, "Usage: osbfctl [flags] <command> [args]")
	fprintln(w)
	fprintln(w, "Global flags:")
	fprintln(w, globalOptionsHelp)
	fprintln(w)
	fprintln(w, "Run 'osbfctl --help' for a list of commands.")
}

func printUsage(w io.Writer, commands []*Command) {
	fprintln(w, "osbfctl - orthogonal sparse bigram classifier CLI")
	fprintln(w)
	fprintln(w, "Usage: osbfctl [flags] <command> [args]")
	fprintln(w)
	fprintln(w, "Flags:")
	fprintln(w, globalOptionsHelp)
	fprintln(w)
	fprintln(w, "Commands:")

	for _, cmd := range commands {
		fprintln(w, cmd.HelpLine())
	}
}
