// Package grid implements the compute grid: the fixed node array plus
// external side-map, skip-broken program loading, the four-phase cycle
// sweep, and termination detection, grounded on
// original_source/src/grid.rs.
package grid

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sarchlab/tis100sim/asm"
	"github.com/sarchlab/tis100sim/compute"
	"github.com/sarchlab/tis100sim/extio"
	"github.com/sarchlab/tis100sim/instr"
	"github.com/sarchlab/tis100sim/node"
	"github.com/sarchlab/tis100sim/puzzle"
	"github.com/sarchlab/tis100sim/stack"
	"github.com/sarchlab/tis100sim/visual"
)

// Grid is the fixed puzzle.Width×puzzle.Height array of envelope-wrapped
// nodes, plus the side-map of external I/O nodes attached to them.
type Grid struct {
	nodes    []*node.Envelope
	external map[puzzle.StreamKey]*node.Envelope
	// externalKeys holds the same keys as external, sorted ascending by
	// (node, port) — spec §5 requires a fixed visitation order ("the
	// external map in key order") for determinism.
	externalKeys []puzzle.StreamKey
	width        int
	height       int
}

// FromPuzzle constructs a grid from a puzzle descriptor: one envelope
// per grid index (Broken, Stack, or Compute, per the descriptor's
// bad/stack node sets) and one envelope per external stream.
func FromPuzzle(p *puzzle.Puzzle) *Grid {
	width, height := puzzle.Width, puzzle.Height
	nodes := make([]*node.Envelope, width*height)

	bad := toSet(p.BadNodes)
	stacks := toSet(p.StackNodes)
	for idx := range nodes {
		switch {
		case bad[idx]:
			nodes[idx] = node.NewEnvelope(node.BrokenNode{})
		case stacks[idx]:
			nodes[idx] = node.NewEnvelope(stack.New())
		default:
			nodes[idx] = node.NewEnvelope(compute.New())
		}
	}

	external := make(map[puzzle.StreamKey]*node.Envelope, len(p.Inputs)+len(p.Outputs)+len(p.Visual))
	for k, values := range p.Inputs {
		external[k] = node.NewEnvelope(extio.NewInput(values))
	}
	for k, values := range p.Outputs {
		external[k] = node.NewEnvelope(extio.NewOutput(values))
	}
	for k, values := range p.Visual {
		colors := make([]visual.Color, len(values))
		for i, v := range values {
			colors[i] = visual.Color(v)
		}
		external[k] = node.NewEnvelope(visual.New(colors, puzzle.VisualWidth, puzzle.VisualHeight))
	}

	keys := make([]puzzle.StreamKey, 0, len(external))
	for k := range external {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Node != keys[j].Node {
			return keys[i].Node < keys[j].Node
		}
		return keys[i].Port < keys[j].Port
	})

	return &Grid{
		nodes:        nodes,
		external:     external,
		externalKeys: keys,
		width:        width,
		height:       height,
	}
}

// NodeAt returns the envelope at the given grid index, for introspection
// by tests.
func (g *Grid) NodeAt(idx int) *node.Envelope { return g.nodes[idx] }

func toSet(xs []int) map[int]bool {
	s := make(map[int]bool, len(xs))
	for _, x := range xs {
		s[x] = true
	}
	return s
}

// ProgramNodes assigns save-file sections to grid indices, skipping
// broken nodes (spec §4.2). Keys are walked in ascending order; a
// running offset accumulates across keys as broken nodes are skipped.
func (g *Grid) ProgramNodes(sections map[asm.NodeID][]instr.ProgramItem) error {
	ids := make([]int, 0, len(sections))
	for k := range sections {
		ids = append(ids, int(k))
	}
	sort.Ints(ids)

	offset := 0
	for _, k := range ids {
		idx := k + offset
		for idx < len(g.nodes) {
			if _, broken := g.nodes[idx].Inner.(node.BrokenNode); !broken {
				break
			}
			offset++
			idx = k + offset
		}
		if idx >= len(g.nodes) {
			return fmt.Errorf("no grid index available to place save-file section %d", k)
		}

		comp, ok := g.nodes[idx].Inner.(*compute.ComputeNode)
		if !ok {
			return fmt.Errorf("grid index %d (from save-file section %d) is not a compute node", idx, k)
		}
		if err := comp.LoadAssembly(sections[asm.NodeID(k)]); err != nil {
			return fmt.Errorf("save-file section %d: %w", k, err)
		}
	}
	return nil
}

// neighbor resolves the grid-internal envelope adjacent to idx in
// direction port, in (row, col) space so a column boundary never wraps
// into the adjacent row.
func (g *Grid) neighbor(idx int, port instr.Port) (*node.Envelope, bool) {
	row, col := idx/g.width, idx%g.width

	switch port {
	case instr.UP:
		if row == 0 {
			return nil, false
		}
		return g.nodes[idx-g.width], true
	case instr.DOWN:
		if row == g.height-1 {
			return nil, false
		}
		return g.nodes[idx+g.width], true
	case instr.LEFT:
		if col == 0 {
			return nil, false
		}
		return g.nodes[idx-1], true
	case instr.RIGHT:
		if col == g.width-1 {
			return nil, false
		}
		return g.nodes[idx+1], true
	default:
		panic(fmt.Sprintf("neighbor lookup is only defined for cardinal directions, got %s", port))
	}
}

// attached resolves whichever envelope sits in direction port from idx:
// the external node mapped to that side, if any, else the geographic
// grid neighbor (spec §4.7: "unless an external node is mapped for that
// side, in which case the external node takes precedence").
func (g *Grid) attached(idx int, port instr.Port) (*node.Envelope, bool) {
	if ext, ok := g.external[puzzle.StreamKey{Node: idx, Port: port}]; ok {
		return ext, true
	}
	return g.neighbor(idx, port)
}

// cardinalOrder is the fixed tie-break order spec §4.7/§8 specifies:
// "LEFT, RIGHT, UP, DOWN".
var cardinalOrder = [4]instr.Port{instr.LEFT, instr.RIGHT, instr.UP, instr.DOWN}

// Step advances the grid by one cycle: the four phase sweeps, then
// termination detection. done reports whether the simulation should
// stop; correct is only meaningful when done is true.
func (g *Grid) Step() (done bool, correct bool) {
	g.readSweep()
	g.computeSweep()
	g.writeSweep()
	g.advanceSweep()
	return g.checkTermination()
}

func (g *Grid) readSweep() {
	for idx := range g.nodes {
		var avail []node.ReadSlot
		for _, d := range cardinalOrder {
			nb, ok := g.attached(idx, d)
			if !ok || nb.PendingOutput == nil {
				continue
			}
			p := nb.PendingOutput.Port
			if p == d.Opposite() || p == instr.ANY {
				avail = append(avail, node.ReadSlot{Port: d, Value: nb.PendingOutput.Value})
			}
		}

		g.nodes[idx].ReadPhase(avail)

		for i := range avail {
			if !avail[i].Taken {
				continue
			}
			d := avail[i].Port
			nb, ok := g.attached(idx, d)
			if !ok {
				continue
			}
			// nb is the writer; its own frame's direction toward this
			// reader is the opposite of d (d is this reader's frame).
			nb.CompleteWrite(d.Opposite())
		}
	}

	for _, key := range g.externalKeys {
		ext := g.external[key]
		src := g.nodes[key.Node]

		var avail []node.ReadSlot
		if src.PendingOutput != nil {
			p := src.PendingOutput.Port
			if p == instr.ANY || p == key.Port {
				avail = append(avail, node.ReadSlot{Port: key.Port.Opposite(), Value: src.PendingOutput.Value})
			}
		}

		ext.ReadPhase(avail)

		if len(avail) > 0 && avail[0].Taken {
			src.CompleteWrite(key.Port)
		}
	}
}

func (g *Grid) computeSweep() {
	for _, n := range g.nodes {
		n.ComputePhase()
	}
	for _, key := range g.externalKeys {
		g.external[key].ComputePhase()
	}
}

func (g *Grid) writeSweep() {
	for _, n := range g.nodes {
		n.WritePhase()
	}
	for _, key := range g.externalKeys {
		g.external[key].WritePhase()
	}
}

func (g *Grid) advanceSweep() {
	for _, n := range g.nodes {
		n.AdvancePhase()
	}
	for _, key := range g.externalKeys {
		g.external[key].AdvancePhase()
	}
}

// verifier is implemented by every external node kind that tracks a
// pass/fail verdict (OutputNode, VisualizationNode).
type verifier interface {
	Verified() extio.VerifyState
}

// checkTermination inspects every verifying external node (spec
// §4.7: "Termination detection").
func (g *Grid) checkTermination() (done bool, correct bool) {
	sawVerifier := false
	allFinished := true

	for _, key := range g.externalKeys {
		v, ok := g.external[key].Inner.(verifier)
		if !ok {
			continue
		}
		sawVerifier = true

		switch v.Verified() {
		case extio.Failed:
			return true, false
		case extio.Finished:
			// already satisfied
		default:
			allFinished = false
		}
	}

	if sawVerifier && allFinished {
		return true, true
	}
	return false, false
}

// Dump renders a human-readable snapshot of every compute node's
// registers, phase, and pending output, in the spirit of the original
// simulator's terminal print() but using a table renderer instead of
// hand-aligned column widths.
func (g *Grid) Dump() string {
	titleCaser := cases.Title(language.English)

	t := table.NewWriter()
	header := table.Row{"metric"}
	for idx := range g.nodes {
		header = append(header, "node "+strconv.Itoa(idx))
	}
	t.AppendHeader(header)

	kindRow := table.Row{"kind"}
	accRow := table.Row{"acc"}
	bakRow := table.Row{"bak"}
	lastRow := table.Row{"last"}
	modeRow := table.Row{"mode"}
	pendPortRow := table.Row{"pending port"}
	pendValRow := table.Row{"pending value"}

	for _, env := range g.nodes {
		kindRow = append(kindRow, titleCaser.String(env.Inner.Kind()))

		comp, isCompute := env.Inner.(*compute.ComputeNode)
		if isCompute {
			accRow = append(accRow, comp.Acc)
			bakRow = append(bakRow, comp.Bak)
			lastRow = append(lastRow, comp.Last.String())
			modeRow = append(modeRow, env.Step.String())
		} else {
			accRow = append(accRow, "")
			bakRow = append(bakRow, "")
			lastRow = append(lastRow, "")
			modeRow = append(modeRow, "")
		}

		if env.PendingOutput != nil {
			pendPortRow = append(pendPortRow, env.PendingOutput.Port.String())
			pendValRow = append(pendValRow, env.PendingOutput.Value)
		} else {
			pendPortRow = append(pendPortRow, "")
			pendValRow = append(pendValRow, "")
		}
	}

	t.AppendRows([]table.Row{kindRow, accRow, bakRow, lastRow, modeRow, pendPortRow, pendValRow})
	return t.Render()
}
