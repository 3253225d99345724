// Command osbfctl is a CLI for creating, training, classifying, and
// inspecting OSBF class files.
package main

import (
	"os"
	"strings"

	"github.com/osbfgo/osbf/internal/osbfcli"
)

func main() {
	environ := os.Environ()
	env := make(map[string]string, len(environ))
	for _, e := range environ {
		if k, v, ok := strings.Cut(e, "="); ok {
			env[k] = v
		}
	}

	exitCode := osbfcli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, env)
	os.Exit(exitCode)
}
