// Package extio implements the two external value-stream node kinds:
// InputNode (a producer) and OutputNode (a verifying consumer), grounded
// on original_source/src/io.rs.
package extio

import (
	"context"
	"log/slog"

	"github.com/sarchlab/tis100sim/instr"
	"github.com/sarchlab/tis100sim/node"
)

// InputNode replays a fixed sequence of values onto ANY, one per cycle
// once each is consumed.
type InputNode struct {
	Values []int32
	pos    int
}

// NewInput returns an input node that will produce values in order.
func NewInput(values []int32) *InputNode {
	return &InputNode{Values: values}
}

func (in *InputNode) Read(_ []node.ReadSlot) node.ReadResult { return node.ReadResult{Outcome: node.NotProgrammed} }
func (in *InputNode) Compute()                               {}

func (in *InputNode) Write() node.WriteResult {
	if in.pos >= len(in.Values) {
		return node.WriteResult{Outcome: node.NotProgrammed}
	}
	v := in.Values[in.pos]
	slog.Log(context.Background(), node.LevelTrace, "input write", "value", v)
	return node.WriteResult{Outcome: node.Done, Port: instr.ANY, Value: v, Wrote: true}
}

// Advance moves the cursor forward once the published value has been
// consumed and this hook actually runs (only reachable through a
// CompleteWrite-triggered Advance transition, or naturally when the
// node has nothing left to offer).
func (in *InputNode) Advance() {
	if in.pos < len(in.Values) {
		in.pos++
	}
}

func (in *InputNode) CompleteWrite(_ instr.Port) {}
func (in *InputNode) Kind() string               { return "input" }

// Pos reports the cursor position, for dumps.
func (in *InputNode) Pos() int { return in.pos }

// VerifyState is an output node's current verification status.
type VerifyState int

const (
	Okay VerifyState = iota
	Blocked
	Finished
	Failed
)

func (v VerifyState) String() string {
	switch v {
	case Okay:
		return "Okay"
	case Blocked:
		return "Blocked"
	case Finished:
		return "Finished"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// OutputNode consumes a single value per cycle and compares it against
// an expected sequence, tracking pass/fail/completion state.
type OutputNode struct {
	Values   []int32
	pos      int
	verified VerifyState
}

// NewOutput returns an output node expecting the given sequence, in
// the initial Blocked state (spec §3: "current VerifyState").
func NewOutput(values []int32) *OutputNode {
	return &OutputNode{Values: values, verified: Blocked}
}

// Verified reports the current verification state.
func (o *OutputNode) Verified() VerifyState { return o.verified }

// Pos reports the cursor position, for dumps.
func (o *OutputNode) Pos() int { return o.pos }

// Read inspects the single slot the grid offers (spec §4.6: "the grid
// offers at most one") and advances verification state accordingly.
func (o *OutputNode) Read(avail []node.ReadSlot) node.ReadResult {
	if o.pos >= len(o.Values) {
		o.verified = Finished
		return node.ReadResult{Outcome: node.NotProgrammed}
	}

	for i := range avail {
		if avail[i].Taken {
			continue
		}
		avail[i].Taken = true
		received := avail[i].Value
		slog.Log(context.Background(), node.LevelTrace, "output check", "received", received, "from", avail[i].Port)

		if received != o.Values[o.pos] {
			o.verified = Failed
			return node.ReadResult{Outcome: node.NotProgrammed}
		}

		o.pos++
		if o.pos == len(o.Values) {
			o.verified = Finished
		} else {
			o.verified = Okay
		}
		return node.ReadResult{Outcome: node.NotProgrammed}
	}

	o.verified = Blocked
	return node.ReadResult{Outcome: node.Blocked, WaitingOn: instr.ANY}
}

func (o *OutputNode) Compute()                   {}
func (o *OutputNode) Write() node.WriteResult    { return node.WriteResult{Outcome: node.NotProgrammed} }
func (o *OutputNode) Advance()                   {}
func (o *OutputNode) CompleteWrite(_ instr.Port) {}
func (o *OutputNode) Kind() string               { return "output" }
