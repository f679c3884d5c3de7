// Package stack implements the stack node: a LIFO memory cell with no
// program of its own, grounded on original_source/src/stack.rs.
package stack

import (
	"context"
	"log/slog"

	"github.com/sarchlab/tis100sim/instr"
	"github.com/sarchlab/tis100sim/node"
)

// StackNode holds an unbounded stack of int32 values. It accepts a push
// from whichever neighbor offers first and continuously offers its top
// value to every neighbor via the ANY port until that value is consumed.
type StackNode struct {
	values []int32
}

// New returns an empty stack node.
func New() *StackNode {
	return &StackNode{}
}

// isStackNode marks this type for node.NewEnvelope's stack-detection
// type assertion, so the envelope applies the stack-specific Write/Advance
// transition rules (spec §4.4) instead of the normal phase gate.
func (*StackNode) isStackNode() {}

// Read accepts the first value offered by any neighbor, pushing it. A
// stack never blocks waiting for input: with nothing offered this cycle
// it simply reports NotProgrammed and tries again next cycle.
func (s *StackNode) Read(avail []node.ReadSlot) node.ReadResult {
	for i := range avail {
		if avail[i].Taken {
			continue
		}
		avail[i].Taken = true
		s.values = append(s.values, avail[i].Value)
		slog.Log(context.Background(), node.LevelTrace, "stack read", "value", avail[i].Value, "from", avail[i].Port)
		return node.ReadResult{Outcome: node.Done}
	}
	return node.ReadResult{Outcome: node.NotProgrammed}
}

// Compute is a no-op: a stack has nothing to compute.
func (s *StackNode) Compute() {}

// Write offers the top of the stack on ANY, or nothing if empty.
func (s *StackNode) Write() node.WriteResult {
	if len(s.values) == 0 {
		return node.WriteResult{Outcome: node.NotProgrammed}
	}
	top := s.values[len(s.values)-1]
	return node.WriteResult{Outcome: node.Done, Port: instr.ANY, Value: top, Wrote: true}
}

// Advance pops the top value. It is only ever invoked (via CompleteWrite)
// when that value was actually consumed by a reader, or is a safe no-op
// when the stack was empty.
func (s *StackNode) Advance() {
	if len(s.values) == 0 {
		return
	}
	s.values = s.values[:len(s.values)-1]
}

// CompleteWrite has nothing extra to latch; the pop itself happens via
// Advance, invoked directly by the envelope's stack special case.
func (s *StackNode) CompleteWrite(_ instr.Port) {}

// Kind names this node type for diagnostics and dumps.
func (s *StackNode) Kind() string { return "stack" }

// Depth reports the current number of values on the stack, for dumps.
func (s *StackNode) Depth() int { return len(s.values) }
