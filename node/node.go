// Package node defines the per-cycle phase machine shared by every kind of
// grid node (compute, stack, input, output, visualization, broken) and the
// envelope that gates each phase hook by the node's current step.
//
// This is the Go expression of the teacher's tagged-node dispatch
// (sarchlab/zeonica core/emu.go's per-PE state machine, and the closed
// NodeType sum in the Rust original's node.rs): one interface with
// default-ish "nothing to do" behavior, one concrete struct per node kind,
// and a single envelope type that every grid cell is wrapped in.
package node

import (
	"log/slog"

	"github.com/sarchlab/tis100sim/instr"
)

// LevelTrace is a custom slog level just above Info for high-volume
// per-phase and per-instruction tracing. Because it is above Info, a
// logger at the default Info threshold emits these records; nothing in
// this module switches them off.
const LevelTrace slog.Level = slog.LevelInfo + 1

// CycleStep is one of the four phases a node passes through each cycle.
type CycleStep int

const (
	Read CycleStep = iota
	Compute
	Write
	Advance
)

func (s CycleStep) String() string {
	switch s {
	case Read:
		return "READ"
	case Compute:
		return "COMP"
	case Write:
		return "WRTE"
	case Advance:
		return "ADVN"
	default:
		return "????"
	}
}

// Outcome is the discriminated result every phase hook returns. Phases
// never panic to signal an expected outcome (spec §7): NotProgrammed means
// the node has no program to run; Blocked means the node is waiting on a
// port and produced no side effect this cycle; Done means the phase ran to
// completion.
type Outcome int

const (
	Done Outcome = iota
	NotProgrammed
	Blocked
)

// ReadSlot is one candidate value available to a Read phase, keyed by the
// direction it would be read from (relative to the reading node).
type ReadSlot struct {
	Port  instr.Port
	Value int32
	Taken bool
}

// ReadResult is what a node's Read hook reports.
type ReadResult struct {
	Outcome Outcome
	// WaitingOn is set when Outcome == Blocked: the port the node is stuck
	// waiting to read from.
	WaitingOn instr.Port
}

// WriteResult is what a node's Write hook reports.
type WriteResult struct {
	Outcome Outcome
	// Port and Value are set when Outcome == Done and the node actually
	// published something this cycle.
	Port  instr.Port
	Value int32
	Wrote bool
}

// Ops is implemented by every concrete node kind. All methods have a
// "nothing to do" zero-cost meaning by construction of BrokenNode; kinds
// that don't use a phase simply don't override it in any meaningful way.
type Ops interface {
	// Read inspects avail (the values offered by neighbors this cycle) and
	// may consume one by setting its Taken flag. Consuming a slot signals
	// to the grid that the writing neighbor's pending output should be
	// cleared via CompleteWrite.
	Read(avail []ReadSlot) ReadResult
	Compute()
	Write() WriteResult
	Advance()

	// CompleteWrite is invoked on the *writer* when a reader consumes its
	// pending output. Most kinds only use this to know their output was
	// taken; ComputeNode additionally needs it to latch LAST.
	CompleteWrite(consumedBy instr.Port)

	// Kind names the concrete node type, for diagnostics and dumps.
	Kind() string
}

// Envelope wraps one concrete node and tracks its current cycle phase and
// any value it is currently offering.
type Envelope struct {
	Inner Ops

	Step CycleStep

	// PendingOutput is the value this node is currently offering, with the
	// port expressed relative to this node. Nil when nothing is offered.
	PendingOutput *PendingValue
	isStack       bool
}

// PendingValue is a value a node is offering on a given port.
type PendingValue struct {
	Port  instr.Port
	Value int32
}

// NewEnvelope wraps a node, ready to run starting from the Read phase.
func NewEnvelope(inner Ops) *Envelope {
	_, isStack := inner.(interface{ isStackNode() })
	return &Envelope{Inner: inner, Step: Read, isStack: isStack}
}

// ReadPhase runs the Read hook if this envelope is currently gated to Read.
func (e *Envelope) ReadPhase(avail []ReadSlot) ReadResult {
	if e.Step != Read {
		return ReadResult{Outcome: Blocked}
	}

	res := e.Inner.Read(avail)
	if res.Outcome == Done || res.Outcome == NotProgrammed {
		e.Step = Compute
	}
	return res
}

// ComputePhase runs the Compute hook if this envelope is gated to Compute.
func (e *Envelope) ComputePhase() {
	if e.Step != Compute {
		return
	}
	e.Inner.Compute()
	e.Step = Write
}

// WritePhase runs the Write hook if this envelope is gated to Write.
func (e *Envelope) WritePhase() WriteResult {
	if e.Step != Write {
		return WriteResult{Outcome: Blocked}
	}

	res := e.Inner.Write()
	if res.Wrote {
		e.PendingOutput = &PendingValue{Port: res.Port, Value: res.Value}
	}

	if e.isStack {
		// A stack's published top is available to readers starting at the
		// very next Read sweep, same as everyone else; but once read (or
		// once there was nothing to publish), it must return to Read
		// immediately rather than sit blocked through Advance (spec §4.4).
		e.Step = Read
		return res
	}

	// A node that actually published a value (Wrote) stays parked in
	// Write until a reader consumes it via CompleteWrite (spec §4.3: "the
	// node remains in Write until the envelope receives a complete_write
	// notification"). Only a cycle with nothing to publish (Done with no
	// output, or NotProgrammed) advances immediately.
	if !res.Wrote {
		e.Step = Advance
	}
	return res
}

// AdvancePhase runs the Advance hook if this envelope is gated to Advance.
func (e *Envelope) AdvancePhase() {
	if e.Step != Advance {
		return
	}
	e.Inner.Advance()
	e.Step = Read
}

// CompleteWrite is called by the grid when a reader has consumed this
// envelope's pending output. It clears the offer and unblocks the node:
// normally by moving it to Advance, but for a stack node by popping
// straight back to Read (spec §4.4, §9 "stack special-case transitions").
func (e *Envelope) CompleteWrite(consumedBy instr.Port) {
	if !e.isStack && e.Step != Write {
		panic("CompleteWrite called on a non-stack node that isn't in the Write phase")
	}

	e.PendingOutput = nil
	e.Inner.CompleteWrite(consumedBy)

	if e.isStack {
		e.Inner.Advance()
		e.Step = Read
		return
	}

	e.Step = Advance
}

// BrokenNode is installed at every grid index the puzzle marks bad. Every
// phase is a no-op and it never produces output.
type BrokenNode struct{}

func (BrokenNode) Read(_ []ReadSlot) ReadResult { return ReadResult{Outcome: NotProgrammed} }
func (BrokenNode) Compute()                     {}
func (BrokenNode) Write() WriteResult           { return WriteResult{Outcome: NotProgrammed} }
func (BrokenNode) Advance()                     {}
func (BrokenNode) CompleteWrite(_ instr.Port)   {}
func (BrokenNode) Kind() string                 { return "broken" }
