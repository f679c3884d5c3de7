// Package puzzle defines the descriptor contract the grid is built
// from (spec §6's "Puzzle descriptor"), an in-memory catalog seeded
// from the teacher's puzzle set (original_source/src/puzzles.rs), and
// a YAML loader for puzzle descriptors kept on disk.
package puzzle

import (
	"fmt"
	"math/rand"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/tis100sim/instr"
)

// Width and Height are the fixed compute-grid dimensions every puzzle
// is laid out against (spec §3: "Fixed 4×3 compute grid").
const (
	Width  = 4
	Height = 3
	// VisualWidth and VisualHeight match the shipped puzzles' visual
	// nodes (spec §6: "width=30, height=18 for the shipped puzzles").
	VisualWidth  = 30
	VisualHeight = 18
)

// StreamKey addresses one external value stream: a grid node index and
// the side it attaches to.
type StreamKey struct {
	Node int
	Port instr.Port
}

// Puzzle is the full external-collaborator contract spec §6 describes:
// everything grid construction needs and nothing it computes itself.
type Puzzle struct {
	Name       string
	BadNodes   []int
	StackNodes []int
	Inputs     map[StreamKey][]int32
	Outputs    map[StreamKey][]int32
	Visual     map[StreamKey][]int32
}

// Catalog resolves a puzzle id to a descriptor, parameterized by the
// size of randomly generated input streams (the teacher's puzzles are
// seeded this way; DBG01/DBG02 ignore the size and return a fixed
// stream).
type Catalog interface {
	Get(id string, inputSize int, rng *rand.Rand) (*Puzzle, bool)
}

// InMemoryCatalog serves the built-in puzzle set.
type InMemoryCatalog struct{}

// NewInMemoryCatalog returns a catalog backed by the built-in puzzles.
func NewInMemoryCatalog() *InMemoryCatalog { return &InMemoryCatalog{} }

func randVec(rng *rand.Rand, n int, min, max int32) []int32 {
	out := make([]int32, n)
	span := int64(max) - int64(min) + 1
	for i := range out {
		out[i] = min + int32(rng.Int63n(span))
	}
	return out
}

// Get builds one of the built-in puzzles. id "DBG01" and "DBG02" are
// the two fixed debug puzzles spec §8 names directly; everything else
// is generated from rng, scaled by inputSize.
func (InMemoryCatalog) Get(id string, inputSize int, rng *rand.Rand) (*Puzzle, bool) {
	switch id {
	case "DBG01":
		return &Puzzle{
			Name: "[simulator debug] Connectivity Check",
			Inputs: map[StreamKey][]int32{
				{Node: 0, Port: instr.UP}: {1, 2, 3, 4},
			},
			Outputs: map[StreamKey][]int32{
				{Node: 11, Port: instr.DOWN}: {1, 2, 3, 4},
			},
		}, true

	case "DBG02":
		return &Puzzle{
			Name:       "[simulator debug] Stack Node Check",
			StackNodes: []int{1},
			Inputs: map[StreamKey][]int32{
				{Node: 0, Port: instr.UP}: {1, 2, 3, 4},
			},
			Outputs: map[StreamKey][]int32{
				{Node: 8, Port: instr.DOWN}: {4, 3, 2, 1},
			},
		}, true

	case "00150":
		r1 := randVec(rng, inputSize, 10, 100)
		r2 := randVec(rng, inputSize, 10, 100)
		return &Puzzle{
			Name:     "Self-Test Diagnostic",
			BadNodes: []int{1, 5, 7, 9},
			Inputs: map[StreamKey][]int32{
				{Node: 0, Port: instr.UP}: r1,
				{Node: 3, Port: instr.UP}: r2,
			},
			Outputs: map[StreamKey][]int32{
				{Node: 8, Port: instr.DOWN}:  r1,
				{Node: 11, Port: instr.DOWN}: r2,
			},
		}, true

	case "10981":
		in := randVec(rng, inputSize, 10, 100)
		out := make([]int32, len(in))
		for i, v := range in {
			out[i] = v * 2
		}
		return &Puzzle{
			Name:     "Signal Amplifier",
			BadNodes: []int{3, 8},
			Inputs: map[StreamKey][]int32{
				{Node: 1, Port: instr.UP}: in,
			},
			Outputs: map[StreamKey][]int32{
				{Node: 10, Port: instr.DOWN}: out,
			},
		}, true

	case "20176":
		in1 := randVec(rng, inputSize, 10, 100)
		in2 := randVec(rng, inputSize, 10, 100)
		out1 := make([]int32, len(in1))
		out2 := make([]int32, len(in1))
		for i := range in1 {
			out1[i] = in1[i] - in2[i]
			out2[i] = in2[i] - in1[i]
		}
		return &Puzzle{
			Name:     "Differential Converter",
			BadNodes: []int{7},
			Inputs: map[StreamKey][]int32{
				{Node: 1, Port: instr.UP}: in1,
				{Node: 2, Port: instr.UP}: in2,
			},
			Outputs: map[StreamKey][]int32{
				{Node: 9, Port: instr.DOWN}:  out1,
				{Node: 10, Port: instr.DOWN}: out2,
			},
		}, true

	case "21340":
		b := func(cond bool) int32 {
			if cond {
				return 1
			}
			return 0
		}
		in := randVec(rng, inputSize, -2, 2)
		out1 := make([]int32, len(in))
		out2 := make([]int32, len(in))
		out3 := make([]int32, len(in))
		for i, n := range in {
			out1[i] = b(n > 0)
			out2[i] = b(n == 0)
			out3[i] = b(n < 0)
		}
		return &Puzzle{
			Name:     "Signal Comparator",
			BadNodes: []int{5, 6, 7},
			Inputs: map[StreamKey][]int32{
				{Node: 0, Port: instr.UP}: in,
			},
			Outputs: map[StreamKey][]int32{
				{Node: 9, Port: instr.DOWN}:  out1,
				{Node: 10, Port: instr.DOWN}: out2,
				{Node: 11, Port: instr.DOWN}: out3,
			},
		}, true

	case "22280":
		in1 := randVec(rng, inputSize, -30, 0)
		in2 := randVec(rng, inputSize, -1, 1)
		in3 := randVec(rng, inputSize, 0, 30)
		out := make([]int32, len(in1))
		for i := range in1 {
			switch in2[i] {
			case -1:
				out[i] = in1[i]
			case 0:
				out[i] = in1[i] + in3[i]
			case 1:
				out[i] = in3[i]
			}
		}
		return &Puzzle{
			Name:     "Signal Multiplexer",
			BadNodes: []int{8},
			Inputs: map[StreamKey][]int32{
				{Node: 1, Port: instr.UP}: in1,
				{Node: 2, Port: instr.UP}: in2,
				{Node: 3, Port: instr.UP}: in3,
			},
			Outputs: map[StreamKey][]int32{
				{Node: 10, Port: instr.DOWN}: out,
			},
		}, true

	default:
		return nil, false
	}
}

// yamlPuzzle is the on-disk shape a puzzle descriptor is declared in,
// for puzzles supplied alongside a save file instead of compiled in.
type yamlPuzzle struct {
	Name       string       `yaml:"name"`
	BadNodes   []int        `yaml:"bad_nodes"`
	StackNodes []int        `yaml:"stack_nodes"`
	Inputs     []yamlStream `yaml:"inputs"`
	Outputs    []yamlStream `yaml:"outputs"`
	Visual     []yamlStream `yaml:"visual"`
}

type yamlStream struct {
	Node   int     `yaml:"node"`
	Port   string  `yaml:"port"`
	Values []int32 `yaml:"values"`
}

// LoadYAML parses a puzzle descriptor from its on-disk YAML form.
func LoadYAML(data []byte) (*Puzzle, error) {
	var yp yamlPuzzle
	if err := yaml.Unmarshal(data, &yp); err != nil {
		return nil, fmt.Errorf("parsing puzzle descriptor: %w", err)
	}

	p := &Puzzle{
		Name:       yp.Name,
		BadNodes:   yp.BadNodes,
		StackNodes: yp.StackNodes,
		Inputs:     make(map[StreamKey][]int32, len(yp.Inputs)),
		Outputs:    make(map[StreamKey][]int32, len(yp.Outputs)),
		Visual:     make(map[StreamKey][]int32, len(yp.Visual)),
	}

	for _, s := range yp.Inputs {
		port, err := parsePortName(s.Port)
		if err != nil {
			return nil, err
		}
		p.Inputs[StreamKey{Node: s.Node, Port: port}] = s.Values
	}
	for _, s := range yp.Outputs {
		port, err := parsePortName(s.Port)
		if err != nil {
			return nil, err
		}
		p.Outputs[StreamKey{Node: s.Node, Port: port}] = s.Values
	}
	for _, s := range yp.Visual {
		port, err := parsePortName(s.Port)
		if err != nil {
			return nil, err
		}
		p.Visual[StreamKey{Node: s.Node, Port: port}] = s.Values
	}

	return p, nil
}

func parsePortName(s string) (instr.Port, error) {
	switch s {
	case "UP":
		return instr.UP, nil
	case "DOWN":
		return instr.DOWN, nil
	case "LEFT":
		return instr.LEFT, nil
	case "RIGHT":
		return instr.RIGHT, nil
	case "ANY":
		return instr.ANY, nil
	case "LAST":
		return instr.LAST, nil
	default:
		return 0, fmt.Errorf("unknown port name %q in puzzle descriptor", s)
	}
}
