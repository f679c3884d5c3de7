// Package compute implements the compute node: the small accumulator
// machine that executes loaded instructions across the four cycle
// phases, grounded on original_source/src/compute.rs.
package compute

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sarchlab/tis100sim/instr"
	"github.com/sarchlab/tis100sim/node"
)

// ComputeNode is a single programmable grid cell: an accumulator (ACC),
// a backup register (BAK), a program counter, the LAST-direction
// sentinel, and a staging slot for the value resolved during Read.
type ComputeNode struct {
	Instructions []instr.Instruction
	Labels       map[string]int

	Acc int32
	Bak int32
	PC  int

	// Last is the direction most recently satisfying an ANY read or
	// write. It starts at the invalid sentinel LAST; reading or writing
	// LAST before it is ever set is a program bug and panics.
	Last instr.Port

	readResult    int32
	hasReadResult bool
}

// New returns an unprogrammed compute node, registers zeroed.
func New() *ComputeNode {
	return &ComputeNode{
		Labels: make(map[string]int),
		Last:   instr.LAST,
	}
}

// UnresolvedLabelError reports a jump target with no matching label
// declaration, discovered once at load time after the whole program has
// been scanned.
type UnresolvedLabelError struct {
	Label string
}

func (e *UnresolvedLabelError) Error() string {
	return fmt.Sprintf("instruction references undefined label %q", e.Label)
}

// LoadAssembly absorbs a parsed program: instructions are appended in
// order, label declarations record the index of the instruction that
// immediately follows them, and breakpoints are accepted silently (spec
// §4.2 — breakpoints are parsed but never honored, per the Non-goals).
// After the whole sequence is absorbed, every branch target is checked;
// an unresolved label is rejected rather than discovered mid-run.
func (c *ComputeNode) LoadAssembly(items []instr.ProgramItem) error {
	for _, item := range items {
		switch item.Kind {
		case instr.ItemInstruction:
			c.Instructions = append(c.Instructions, item.Instruction)
		case instr.ItemLabel:
			c.Labels[item.Label] = len(c.Instructions)
		case instr.ItemBreakpoint:
			// Breakpoints are parsed but not honored (Non-goal).
		}
	}

	for _, in := range c.Instructions {
		if in.IsJumpLabel() {
			if _, ok := c.Labels[in.Label]; !ok {
				return &UnresolvedLabelError{Label: in.Label}
			}
		}
	}
	return nil
}

// current returns the instruction at PC, or false if the node has run
// off the end of its program (including having none at all).
func (c *ComputeNode) current() (instr.Instruction, bool) {
	if c.PC >= len(c.Instructions) {
		return instr.Instruction{}, false
	}
	return c.Instructions[c.PC], true
}

// Read resolves the current instruction's source operand, if it has
// one, against the neighbor values the grid is offering this cycle.
func (c *ComputeNode) Read(avail []node.ReadSlot) node.ReadResult {
	in, ok := c.current()
	if !ok {
		return node.ReadResult{Outcome: node.NotProgrammed}
	}
	slog.Log(context.Background(), node.LevelTrace, "compute read", "instr", in.String())

	if !in.HasSrc() {
		return node.ReadResult{Outcome: node.Done}
	}

	switch in.Src.Kind {
	case instr.SrcRegister:
		if in.Src.Register == instr.ACC {
			c.readResult = c.Acc
		} else {
			c.readResult = 0
		}
		c.hasReadResult = true
		return node.ReadResult{Outcome: node.Done}

	case instr.SrcImmediate:
		c.readResult = int32(in.Src.Immediate)
		c.hasReadResult = true
		return node.ReadResult{Outcome: node.Done}

	case instr.SrcPort:
		p := in.Src.Port
		actual := c.resolvePort(p)

		for i := range avail {
			if avail[i].Taken {
				continue
			}
			if actual != instr.ANY && avail[i].Port != actual {
				continue
			}
			avail[i].Taken = true
			if actual == instr.ANY {
				c.Last = avail[i].Port
			}
			c.readResult = avail[i].Value
			c.hasReadResult = true
			return node.ReadResult{Outcome: node.Done}
		}

		return node.ReadResult{Outcome: node.Blocked, WaitingOn: p}

	default:
		return node.ReadResult{Outcome: node.Done}
	}
}

// resolvePort turns LAST into the stored last-satisfied direction,
// panicking if it was never set; any other port passes through as-is.
func (c *ComputeNode) resolvePort(p instr.Port) instr.Port {
	if p != instr.LAST {
		return p
	}
	if c.Last == instr.LAST {
		panic("attempted to use LAST port before it has ever been set")
	}
	return c.Last
}

// Compute applies every in-place effect that doesn't touch a port.
func (c *ComputeNode) Compute() {
	in, ok := c.current()
	if !ok {
		return
	}

	switch in.Op {
	case instr.OpNOP, instr.OpMOV:
	case instr.OpSWP:
		c.Acc, c.Bak = c.Bak, c.Acc
	case instr.OpSAV:
		c.Bak = c.Acc
	case instr.OpADD:
		c.Acc += c.readResult
	case instr.OpSUB:
		c.Acc -= c.readResult
	case instr.OpNEG:
		c.Acc = -c.Acc
	case instr.OpJMP, instr.OpJEZ, instr.OpJNZ, instr.OpJGZ, instr.OpJLZ, instr.OpJRO:
	case instr.OpHCF:
		panic("HCF executed: machine halted")
	}
}

// Write publishes a MOV's destination value, if the destination is a
// port; register destinations are settled here too but produce no
// outward value.
func (c *ComputeNode) Write() node.WriteResult {
	in, ok := c.current()
	if !ok {
		return node.WriteResult{Outcome: node.NotProgrammed}
	}

	if in.Op != instr.OpMOV {
		return node.WriteResult{Outcome: node.Done}
	}

	val := c.readResult
	switch in.Dst.Kind {
	case instr.DstRegister:
		if in.Dst.Register == instr.ACC {
			c.Acc = val
		}
		return node.WriteResult{Outcome: node.Done}
	case instr.DstPort:
		actual := c.resolvePort(in.Dst.Port)
		return node.WriteResult{Outcome: node.Done, Port: actual, Value: val, Wrote: true}
	default:
		return node.WriteResult{Outcome: node.Done}
	}
}

// Advance computes the next PC, honoring jump labels and JRO's
// relative-offset wrap/clamp rule, then clears the Read staging slot.
func (c *ComputeNode) Advance() {
	in, ok := c.current()
	if !ok {
		return
	}

	if in.Op != instr.OpJRO {
		c.PC++
	}

	switch in.Op {
	case instr.OpJMP:
		c.PC = c.Labels[in.Label]
	case instr.OpJEZ:
		if c.Acc == 0 {
			c.PC = c.Labels[in.Label]
		}
	case instr.OpJNZ:
		if c.Acc != 0 {
			c.PC = c.Labels[in.Label]
		}
	case instr.OpJGZ:
		if c.Acc > 0 {
			c.PC = c.Labels[in.Label]
		}
	case instr.OpJLZ:
		if c.Acc < 0 {
			c.PC = c.Labels[in.Label]
		}
	case instr.OpJRO:
		off := int(c.readResult)
		if off < 0 {
			if -off > c.PC {
				c.PC = 0
			} else {
				c.PC -= -off
			}
		} else {
			c.PC += off
		}
		// Exception to the normal wrap-around: an out-of-bounds JRO
		// clamps to the last instruction instead of wrapping to 0.
		if c.PC >= len(c.Instructions) {
			c.PC = len(c.Instructions) - 1
		}
	}

	if c.PC >= len(c.Instructions) {
		c.PC = 0
	}

	c.hasReadResult = false
	c.readResult = 0
}

// CompleteWrite latches LAST when the instruction just retired was a
// MOV targeting ANY. consumedBy is already expressed in this node's own
// frame — the direction, from here, that the consuming reader was
// attached through (the grid is responsible for converting from
// whichever frame it tracked the rendezvous in before calling this).
func (c *ComputeNode) CompleteWrite(consumedBy instr.Port) {
	in, ok := c.current()
	if !ok {
		return
	}
	if in.Op == instr.OpMOV && in.Dst.Kind == instr.DstPort && in.Dst.Port == instr.ANY {
		c.Last = consumedBy
	}
}

// Kind names this node type for diagnostics and dumps.
func (c *ComputeNode) Kind() string { return "compute" }
