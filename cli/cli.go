// Package cli implements the command-line collaborator described in
// spec §6: argument parsing, puzzle-id derivation from the save file's
// name stem, the cycle-by-cycle drive loop, and the terminal report.
//
// Grounded on original_source/src/main.rs (the Rust original's argument
// handling and drive loop) and the teacher's samples/*/main.go wiring
// shape (program load, device/driver construction, run, exit). The
// teacher has no flag-parsing library anywhere in its tree — every
// sample takes its configuration as Go literals — so stdlib flag is the
// grounded choice for an actual argument surface, matching SPEC_FULL's
// ambient-stack decision.
package cli

import (
	"flag"
	"fmt"
	"io"
	"math/rand"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sarchlab/tis100sim/asm"
	"github.com/sarchlab/tis100sim/grid"
	"github.com/sarchlab/tis100sim/puzzle"
)

// Exit codes, per spec §6.
const (
	ExitSuccess   = 0
	ExitUsage     = 1
	ExitIOFailure = 2
)

// MaxCycles bounds the drive loop so a malformed program that never
// terminates doesn't hang the CLI forever. Spec §5 leaves the real
// timeout to an external test harness; this is just a generous default
// safety net for the interactive CLI, overridable via Options.
const MaxCycles = 1_000_000

// DefaultInputSize is how many values a generated (non-debug) puzzle
// produces when the CLI doesn't otherwise know a length to ask for.
const DefaultInputSize = 8

// Options holds the parsed command line, mirroring spec §6's "CLI
// surface": a positional save-file path, an optional puzzle-id
// override, and a verbosity counter.
type Options struct {
	SavePath  string
	PuzzleID  string
	Verbosity int
	MaxCycles int
	InputSize int
}

// ParseArgs parses a command line into Options using a fresh FlagSet
// (never the global flag.CommandLine), so repeated calls in tests don't
// collide. It never calls os.Exit itself — the entrypoint maps a usage
// error to ExitUsage.
func ParseArgs(name string, args []string) (*Options, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	opts := &Options{MaxCycles: MaxCycles, InputSize: DefaultInputSize}

	fs.StringVar(&opts.PuzzleID, "p", "", "puzzle id override")
	fs.StringVar(&opts.PuzzleID, "puzzle", "", "puzzle id override")
	var verbose, debug bool
	fs.BoolVar(&verbose, "v", false, "increase log verbosity")
	fs.BoolVar(&debug, "d", false, "shorthand for max verbosity")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	rest := fs.Args()
	if len(rest) != 1 {
		return nil, fmt.Errorf("usage: %s [-p puzzle] [-v] [-d] <save-file>", name)
	}
	opts.SavePath = rest[0]

	switch {
	case debug:
		opts.Verbosity = 2
	case verbose:
		opts.Verbosity = 1
	}

	if opts.PuzzleID == "" {
		stem := filepath.Base(opts.SavePath)
		stem = strings.TrimSuffix(stem, filepath.Ext(stem))
		opts.PuzzleID = stem
	}

	return opts, nil
}

// FileReader abstracts reading the save file, so tests can supply an
// in-memory source without touching the filesystem.
type FileReader func(path string) ([]byte, error)

// Result is the outcome of one drive-loop run, reported by Run.
type Result struct {
	Cycles  int
	Done    bool
	Correct bool
}

// Run executes the full CLI flow against already-parsed Options: read
// the save file, parse it, resolve the puzzle, build the grid, load
// programs, and step until termination or the cycle cap. It writes a
// human-readable report to out and returns the process exit code.
func Run(opts *Options, readFile FileReader, catalog puzzle.Catalog, rng *rand.Rand, out io.Writer) int {
	data, err := readFile(opts.SavePath)
	if err != nil {
		fmt.Fprintf(out, "error: reading %s: %v\n", opts.SavePath, err)
		return ExitIOFailure
	}

	sections, err := asm.ParseSaveFile(data)
	if err != nil {
		if perr, ok := err.(*asm.ParseError); ok {
			line, col := lineCol(data, perr.Offset)
			fmt.Fprintf(out, "parse error: %s:%d:%d: unexpected input\n", opts.SavePath, line, col)
		} else {
			fmt.Fprintf(out, "parse error: %v\n", err)
		}
		return ExitUsage
	}

	p, ok := catalog.Get(opts.PuzzleID, opts.InputSize, rng)
	if !ok {
		fmt.Fprintf(out, "error: unknown puzzle %q\n", opts.PuzzleID)
		return ExitUsage
	}

	g := grid.FromPuzzle(p)
	if err := g.ProgramNodes(sections); err != nil {
		fmt.Fprintf(out, "error: loading program: %v\n", err)
		return ExitUsage
	}

	titleCaser := cases.Title(language.English)
	fmt.Fprintf(out, "running puzzle %q\n", titleCaser.String(p.Name))

	res := drive(g, opts.MaxCycles)

	code := ExitSuccess
	switch {
	case res.Done && res.Correct:
		fmt.Fprintf(out, "verified correct after %d cycles\n", res.Cycles)
	case res.Done:
		fmt.Fprintf(out, "verification failed after %d cycles\n", res.Cycles)
	default:
		fmt.Fprintf(out, "did not terminate within %d cycles\n", opts.MaxCycles)
		code = ExitUsage
	}

	if opts.Verbosity > 0 {
		fmt.Fprintln(out, g.Dump())
	}

	return code
}

// drive steps the grid until it reports termination or the cycle cap
// is reached.
func drive(g *grid.Grid, maxCycles int) Result {
	for cycles := 1; cycles <= maxCycles; cycles++ {
		done, correct := g.Step()
		if done {
			return Result{Cycles: cycles, Done: true, Correct: correct}
		}
	}
	return Result{Cycles: maxCycles, Done: false}
}

// lineCol converts a byte offset into 1-based line and column numbers,
// for parse-error messages (spec §6: "the CLI ... translates offset
// into line:column").
func lineCol(data []byte, offset int) (line, col int) {
	line, col = 1, 1
	for i := 0; i < offset && i < len(data); i++ {
		if data[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
