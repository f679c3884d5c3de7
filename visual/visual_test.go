package visual_test

import (
	"testing"

	"github.com/sarchlab/tis100sim/extio"
	"github.com/sarchlab/tis100sim/instr"
	"github.com/sarchlab/tis100sim/node"
	"github.com/sarchlab/tis100sim/visual"
)

func feed(v *visual.VisualizationNode, value int32) node.ReadResult {
	avail := []node.ReadSlot{{Port: instr.DOWN, Value: value}}
	return v.Read(avail)
}

func TestPaintsASinglePixel(t *testing.T) {
	expected := make([]visual.Color, 2*2)
	expected[0*2+0] = visual.Red
	expected[1*2+1] = visual.White // a second target pixel keeps the image incomplete
	v := visual.New(expected, 2, 2)

	feed(v, 0) // X
	feed(v, 0) // Y
	feed(v, int32(visual.Red))

	if v.Verified() != extio.Okay {
		t.Fatalf("expected Okay (image not complete), got %v", v.Verified())
	}
	if v.Values()[0] != visual.Red {
		t.Fatalf("expected pixel (0,0) to be Red, got %v", v.Values()[0])
	}
}

func TestOutOfBoundsXFails(t *testing.T) {
	expected := make([]visual.Color, 1)
	v := visual.New(expected, 1, 1)
	feed(v, 5)
	if v.Verified() != extio.Failed {
		t.Fatalf("expected Failed for out-of-bounds X, got %v", v.Verified())
	}
}

func TestWrongColorFails(t *testing.T) {
	expected := make([]visual.Color, 1)
	expected[0] = visual.White
	v := visual.New(expected, 1, 1)
	feed(v, 0)
	feed(v, 0)
	feed(v, int32(visual.Red))
	if v.Verified() != extio.Failed {
		t.Fatalf("expected Failed on wrong color, got %v", v.Verified())
	}
}

func TestResetCursor(t *testing.T) {
	expected := make([]visual.Color, 2*2)
	expected[3] = visual.Red
	v := visual.New(expected, 2, 2)
	feed(v, 0)
	feed(v, -1) // reset before Y was ever set
	feed(v, 1)  // now this is X again
	feed(v, 1)  // Y
	res := feed(v, int32(visual.Red))
	if res.Outcome != node.NotProgrammed {
		t.Fatalf("unexpected outcome %+v", res)
	}
	if v.Verified() != extio.Finished {
		t.Fatalf("expected Finished once the whole image matches, got %v", v.Verified())
	}
}

func TestBlocksWithNothingOffered(t *testing.T) {
	expected := make([]visual.Color, 1)
	v := visual.New(expected, 1, 1)
	res := v.Read(nil)
	if res.Outcome != node.Blocked || res.WaitingOn != instr.ANY {
		t.Fatalf("expected Blocked waiting on ANY, got %+v", res)
	}
}
