package puzzle_test

import (
	"math/rand"
	"testing"

	"github.com/sarchlab/tis100sim/instr"
	"github.com/sarchlab/tis100sim/puzzle"
)

func TestDBG01Fixed(t *testing.T) {
	cat := puzzle.NewInMemoryCatalog()
	p, ok := cat.Get("DBG01", 4, rand.New(rand.NewSource(1)))
	if !ok {
		t.Fatalf("expected DBG01 to exist")
	}
	in := p.Inputs[puzzle.StreamKey{Node: 0, Port: instr.UP}]
	if len(in) != 4 || in[0] != 1 || in[3] != 4 {
		t.Fatalf("unexpected DBG01 input: %v", in)
	}
	out := p.Outputs[puzzle.StreamKey{Node: 11, Port: instr.DOWN}]
	if len(out) != 4 || out[0] != 1 || out[3] != 4 {
		t.Fatalf("unexpected DBG01 output: %v", out)
	}
}

func TestDBG02HasStackNode(t *testing.T) {
	cat := puzzle.NewInMemoryCatalog()
	p, ok := cat.Get("DBG02", 4, rand.New(rand.NewSource(1)))
	if !ok {
		t.Fatalf("expected DBG02 to exist")
	}
	if len(p.StackNodes) != 1 || p.StackNodes[0] != 1 {
		t.Fatalf("expected stack node at index 1, got %v", p.StackNodes)
	}
}

func TestUnknownPuzzleNotFound(t *testing.T) {
	cat := puzzle.NewInMemoryCatalog()
	if _, ok := cat.Get("NOPE", 4, rand.New(rand.NewSource(1))); ok {
		t.Fatalf("expected NOPE to be absent from the catalog")
	}
}

func TestSignalAmplifierDoublesInput(t *testing.T) {
	cat := puzzle.NewInMemoryCatalog()
	p, ok := cat.Get("10981", 6, rand.New(rand.NewSource(42)))
	if !ok {
		t.Fatalf("expected 10981 to exist")
	}
	in := p.Inputs[puzzle.StreamKey{Node: 1, Port: instr.UP}]
	out := p.Outputs[puzzle.StreamKey{Node: 10, Port: instr.DOWN}]
	if len(in) != 6 || len(out) != 6 {
		t.Fatalf("expected 6 values each, got in=%d out=%d", len(in), len(out))
	}
	for i := range in {
		if out[i] != in[i]*2 {
			t.Fatalf("expected output[%d] == 2*input[%d], got %d vs %d", i, i, out[i], in[i])
		}
	}
}

func TestLoadYAML(t *testing.T) {
	data := []byte(`
name: Custom Test
bad_nodes: [2]
stack_nodes: [5]
inputs:
  - node: 0
    port: UP
    values: [7, 8, 9]
outputs:
  - node: 11
    port: DOWN
    values: [7, 8, 9]
`)
	p, err := puzzle.LoadYAML(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "Custom Test" {
		t.Fatalf("unexpected name: %q", p.Name)
	}
	in := p.Inputs[puzzle.StreamKey{Node: 0, Port: instr.UP}]
	if len(in) != 3 || in[0] != 7 {
		t.Fatalf("unexpected parsed input: %v", in)
	}
}
