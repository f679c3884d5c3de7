// Package visual implements the visualization node: a tiny pixel-setting
// protocol driven over a single input stream, grounded on
// original_source/src/visualization.rs.
package visual

import (
	"context"
	"log/slog"

	"github.com/sarchlab/tis100sim/extio"
	"github.com/sarchlab/tis100sim/instr"
	"github.com/sarchlab/tis100sim/node"
)

// Color is one of the five values a visualization node's protocol can
// paint a pixel with.
type Color int

const (
	Black Color = iota
	DarkGray
	LightGray
	White
	Red
)

func (c Color) String() string {
	switch c {
	case Black:
		return "Black"
	case DarkGray:
		return "DarkGray"
	case LightGray:
		return "LightGray"
	case White:
		return "White"
	case Red:
		return "Red"
	default:
		return "Invalid"
	}
}

// colorFromInt maps the protocol's 0..=4 color codes; any other value
// is not a valid color.
func colorFromInt(v int32) (Color, bool) {
	if v < int32(Black) || v > int32(Red) {
		return 0, false
	}
	return Color(v), true
}

func inBounds(v int32, size int) bool {
	return v >= 0 && int(v) < size
}

// cursorState is the three-state cursor: nothing set, X set, or both X
// and Y set (spec §3: "None | SetX(x) | SetXY(x,y)").
type cursorState int

const (
	cursorNone cursorState = iota
	cursorX
	cursorXY
)

// VisualizationNode paints a width×height grid of Color pixels from a
// stream of integers and compares it against an expected image.
type VisualizationNode struct {
	expected []Color
	values   []Color
	width    int
	height   int

	cursor cursorState
	x, y   int

	verified extio.VerifyState
}

// New returns a visualization node expecting the given image, which
// must contain exactly width*height colors.
func New(expected []Color, width, height int) *VisualizationNode {
	if len(expected) != width*height {
		panic("visualization expected image size does not match width*height")
	}
	values := make([]Color, width*height)
	return &VisualizationNode{
		expected: expected,
		values:   values,
		width:    width,
		height:   height,
		verified: extio.Blocked,
	}
}

// Verified reports the current verification state.
func (v *VisualizationNode) Verified() extio.VerifyState { return v.verified }

// Values returns the current (possibly partial) painted image.
func (v *VisualizationNode) Values() []Color { return v.values }

func (v *VisualizationNode) imagesEqual() bool {
	for i := range v.expected {
		if v.values[i] != v.expected[i] {
			return false
		}
	}
	return true
}

// handleValue runs one value through the cursor protocol (spec §4.8).
func (v *VisualizationNode) handleValue(value int32) extio.VerifyState {
	if value == -1 {
		v.cursor = cursorNone
		return extio.Okay
	}

	switch v.cursor {
	case cursorNone:
		if !inBounds(value, v.width) {
			return extio.Failed
		}
		v.x = int(value)
		v.cursor = cursorX

	case cursorX:
		if !inBounds(value, v.height) {
			return extio.Failed
		}
		v.y = int(value)
		v.cursor = cursorXY

	case cursorXY:
		color, ok := colorFromInt(value)
		if !ok {
			return extio.Failed
		}
		idx := v.y*v.width + v.x
		if v.expected[idx] != color {
			// NOTE: the correct color could still be set later; this
			// simulator chooses to abort on the first mismatch rather
			// than let the cursor keep moving (documented divergence,
			// spec §9).
			return extio.Failed
		}
		v.values[idx] = color
		if v.x+1 < v.width {
			v.x++
		}
	}

	if v.imagesEqual() {
		return extio.Finished
	}
	return extio.Okay
}

// Read consumes the single value the grid offers, if any, and advances
// the cursor protocol; otherwise it reports Blocked waiting on ANY.
func (v *VisualizationNode) Read(avail []node.ReadSlot) node.ReadResult {
	for i := range avail {
		if avail[i].Taken {
			continue
		}
		avail[i].Taken = true
		value := avail[i].Value
		slog.Log(context.Background(), node.LevelTrace, "visualization handle", "value", value, "from", avail[i].Port)

		state := v.handleValue(value)
		v.verified = state
		return node.ReadResult{Outcome: node.NotProgrammed}
	}

	v.verified = extio.Blocked
	return node.ReadResult{Outcome: node.Blocked, WaitingOn: instr.ANY}
}

func (v *VisualizationNode) Compute()                   {}
func (v *VisualizationNode) Write() node.WriteResult    { return node.WriteResult{Outcome: node.NotProgrammed} }
func (v *VisualizationNode) Advance()                   {}
func (v *VisualizationNode) CompleteWrite(_ instr.Port) {}
func (v *VisualizationNode) Kind() string               { return "visualization" }
