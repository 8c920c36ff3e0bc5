package fu_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/apex/apexsim/core/fu"
	"github.com/apex/apexsim/core/iq"
	"github.com/apex/apexsim/isa"
)

func TestFU(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "FU Suite")
}

var _ = Describe("ComputeInt", func() {
	It("computes ADD", func() {
		v, zero, positive, negative := fu.ComputeInt(isa.OpADD, 3, 4, 0)
		Expect(v).To(Equal(int32(7)))
		Expect(zero).To(BeFalse())
		Expect(positive).To(BeTrue())
		Expect(negative).To(BeFalse())
	})

	It("computes CMP as a subtraction without a destination write", func() {
		v, zero, _, negative := fu.ComputeInt(isa.OpCMP, 5, 5, 0)
		Expect(v).To(Equal(int32(0)))
		Expect(zero).To(BeTrue())
		Expect(negative).To(BeFalse())
	})

	It("computes ADDL against the immediate", func() {
		v, _, _, _ := fu.ComputeInt(isa.OpADDL, 10, 0, 5)
		Expect(v).To(Equal(int32(15)))
	})

	It("computes MOVC as the immediate", func() {
		v, _, _, _ := fu.ComputeInt(isa.OpMOVC, 0, 0, 42)
		Expect(v).To(Equal(int32(42)))
	})

	It("sets negative for a negative result", func() {
		_, zero, positive, negative := fu.ComputeInt(isa.OpSUB, 1, 5, 0)
		Expect(zero).To(BeFalse())
		Expect(positive).To(BeFalse())
		Expect(negative).To(BeTrue())
	})
})

var _ = Describe("Unit", func() {
	It("occupies the unit for its full latency before producing a result (MUL)", func() {
		u := fu.NewMulUnit(3)
		Expect(u.Issue(iq.Entry{Op: isa.OpMUL}, 6, 7)).To(BeTrue())
		Expect(u.Issue(iq.Entry{}, 1, 1)).To(BeFalse())

		_, done := u.Tick()
		Expect(done).To(BeFalse())
		_, done = u.Tick()
		Expect(done).To(BeFalse())
		result, done := u.Tick()
		Expect(done).To(BeTrue())
		Expect(result.Value).To(Equal(int32(42)))
		Expect(u.Busy()).To(BeFalse())
	})

	It("frees the unit for a new Issue once a result completes", func() {
		u := fu.NewIntUnit(1)
		u.Issue(iq.Entry{Op: isa.OpADD}, 1, 2)
		_, done := u.Tick()
		Expect(done).To(BeTrue())
		Expect(u.Issue(iq.Entry{Op: isa.OpADD}, 3, 4)).To(BeTrue())
	})

	It("produces flags for CMP/CML through the INT unit", func() {
		u := fu.NewIntUnit(1)
		u.Issue(iq.Entry{Op: isa.OpCMP}, 3, 3)
		result, _ := u.Tick()
		Expect(result.HasFlags).To(BeTrue())
		Expect(result.Zero).To(BeTrue())
	})

	It("computes an effective address and post-increment value for AGEN", func() {
		u := fu.NewAgenUnit(1)
		u.Issue(iq.Entry{Imm: 8, HasExtraDest: true}, 100, 0)
		result, done := u.Tick()
		Expect(done).To(BeTrue())
		Expect(result.Addr).To(Equal(int32(108)))
		Expect(result.HasExtraValue).To(BeTrue())
		Expect(result.ExtraValue).To(Equal(int32(104)))
	})
})
