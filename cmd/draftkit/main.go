package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/macropower/draftkit/internal/cli"
)

const (
	cmdName = "draftkit"

	shortDesc = "Drafting automation for CAD drawing sets."
	longDesc  = `Drafting automation for CAD drawing sets.

draftkit drives a running drafting application over its automation
interface. It fills catalog sheets, inserts borders, updates title blocks
and plots layouts from an Excel drawing list, and applies layer freeze and
lineweight rules across many drawings.

Every remote call is retried with a fixed delay, so a busy application does
not abort a long batch.
`
)

func main() {
	cmd := cli.NewRootCmd(cmdName, shortDesc, longDesc)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, strings.TrimLeft(err.Error(), "\n"))
		os.Exit(1)
	}
}
