// Command tis100sim loads a save file, resolves its puzzle, and drives
// the grid to a verdict. Grounded on original_source/src/main.rs and
// the teacher's samples/*/main.go wiring shape (load, build, run, exit),
// using github.com/tebeka/atexit for process-exit cleanup hooks exactly
// as every teacher sample does.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/tis100sim/cli"
	"github.com/sarchlab/tis100sim/puzzle"
)

func main() {
	opts, err := cli.ParseArgs("tis100sim", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(cli.ExitUsage)
	}

	catalog := puzzle.NewInMemoryCatalog()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	code := cli.Run(opts, os.ReadFile, catalog, rng, os.Stdout)
	atexit.Exit(code)
}
