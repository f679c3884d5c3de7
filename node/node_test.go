package node_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tis100sim/instr"
	"github.com/sarchlab/tis100sim/node"
	"github.com/sarchlab/tis100sim/stack"
)

// fakeOps is a minimal node.Ops double used to drive the envelope's
// phase gate without pulling in a concrete node kind.
type fakeOps struct {
	readResult   node.ReadResult
	writeResult  node.WriteResult
	completeWith instr.Port
	completed    bool
}

func (f *fakeOps) Read(_ []node.ReadSlot) node.ReadResult { return f.readResult }
func (f *fakeOps) Compute()                               {}
func (f *fakeOps) Write() node.WriteResult                { return f.writeResult }
func (f *fakeOps) Advance()                               {}
func (f *fakeOps) CompleteWrite(p instr.Port) {
	f.completed = true
	f.completeWith = p
}
func (f *fakeOps) Kind() string { return "fake" }

var _ = Describe("Envelope", func() {
	var ops *fakeOps

	BeforeEach(func() {
		ops = &fakeOps{
			readResult:  node.ReadResult{Outcome: node.Done},
			writeResult: node.WriteResult{Outcome: node.Done},
		}
	})

	It("starts in the Read phase", func() {
		env := node.NewEnvelope(ops)
		Expect(env.Step).To(Equal(node.Read))
	})

	It("transitions Read -> Compute -> Write -> Advance -> Read when nothing is published", func() {
		env := node.NewEnvelope(ops)

		env.ReadPhase(nil)
		Expect(env.Step).To(Equal(node.Compute))

		env.ComputePhase()
		Expect(env.Step).To(Equal(node.Write))

		env.WritePhase()
		Expect(env.Step).To(Equal(node.Advance))

		env.AdvancePhase()
		Expect(env.Step).To(Equal(node.Read))
	})

	It("gates phase hooks so a node out of step does nothing", func() {
		env := node.NewEnvelope(ops)
		// Still in Read; Compute/Write/Advance must be no-ops.
		env.ComputePhase()
		Expect(env.Step).To(Equal(node.Read))
	})

	It("stays parked in Write until CompleteWrite is called when a value was published", func() {
		ops.writeResult = node.WriteResult{Outcome: node.Done, Port: instr.DOWN, Value: 7, Wrote: true}
		env := node.NewEnvelope(ops)

		env.ReadPhase(nil)
		env.ComputePhase()
		env.WritePhase()
		Expect(env.Step).To(Equal(node.Write))
		Expect(env.PendingOutput).NotTo(BeNil())
		Expect(env.PendingOutput.Value).To(Equal(int32(7)))

		// Advance must be a no-op while parked.
		env.AdvancePhase()
		Expect(env.Step).To(Equal(node.Write))

		env.CompleteWrite(instr.UP)
		Expect(env.Step).To(Equal(node.Advance))
		Expect(env.PendingOutput).To(BeNil())
		Expect(ops.completed).To(BeTrue())
		Expect(ops.completeWith).To(Equal(instr.UP))
	})

	It("panics if CompleteWrite is called on a non-stack node outside the Write phase", func() {
		env := node.NewEnvelope(ops)
		Expect(func() { env.CompleteWrite(instr.UP) }).To(Panic())
	})
})

var _ = Describe("stack special-case transitions", func() {
	It("returns straight to Read from Write instead of parking through Advance", func() {
		s := stack.New()
		s.Read([]node.ReadSlot{{Port: instr.LEFT, Value: 9}})
		env := node.NewEnvelope(s)

		env.ReadPhase(nil) // NotProgrammed: nothing offered this cycle
		Expect(env.Step).To(Equal(node.Compute))
		env.ComputePhase()
		Expect(env.Step).To(Equal(node.Write))

		env.WritePhase()
		// Stack always returns to Read after Write, never parks.
		Expect(env.Step).To(Equal(node.Read))
	})

	It("does not panic when CompleteWrite is called on a stack outside Write", func() {
		s := stack.New()
		env := node.NewEnvelope(s)
		Expect(func() { env.CompleteWrite(instr.UP) }).NotTo(Panic())
		Expect(env.Step).To(Equal(node.Read))
	})
})
