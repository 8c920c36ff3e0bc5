package iq_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/apex/apexsim/core/iq"
	"github.com/apex/apexsim/core/prf"
)

func TestIQ(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "IQ Suite")
}

var _ = Describe("IQ", func() {
	var q *iq.IQ

	BeforeEach(func() {
		q = iq.New(2)
	})

	It("reports a free slot until full", func() {
		Expect(q.HasFreeSlot()).To(BeTrue())
		Expect(q.Dispatch(iq.Entry{FU: iq.FUInt})).To(BeTrue())
		Expect(q.HasFreeSlot()).To(BeTrue())
		Expect(q.Dispatch(iq.Entry{FU: iq.FUInt})).To(BeTrue())
		Expect(q.HasFreeSlot()).To(BeFalse())
		Expect(q.Dispatch(iq.Entry{FU: iq.FUInt})).To(BeFalse())
	})

	It("does not select an entry until both sources are ready", func() {
		q.Dispatch(iq.Entry{FU: iq.FUInt, Src1Tag: prf.ID(5), Src2Tag: prf.ID(6)})
		_, ok := q.Select(iq.FUInt)
		Expect(ok).To(BeFalse())

		q.WakeUp(prf.ID(5))
		_, ok = q.Select(iq.FUInt)
		Expect(ok).To(BeFalse())

		q.WakeUp(prf.ID(6))
		picked, ok := q.Select(iq.FUInt)
		Expect(ok).To(BeTrue())
		Expect(picked.Src1Tag).To(Equal(prf.ID(5)))
	})

	It("treats prf.None source tags as already ready", func() {
		q.Dispatch(iq.Entry{FU: iq.FUInt, Src1Tag: prf.None, Src1Ready: true, Src2Tag: prf.None, Src2Ready: true})
		_, ok := q.Select(iq.FUInt)
		Expect(ok).To(BeTrue())
	})

	It("selects the oldest ready entry first, tie-broken by slot index", func() {
		q.Dispatch(iq.Entry{FU: iq.FUInt, Src1Ready: true, Src2Ready: true, DispatchCycle: 5, Dest: 1})
		q.Dispatch(iq.Entry{FU: iq.FUInt, Src1Ready: true, Src2Ready: true, DispatchCycle: 2, Dest: 2})

		picked, ok := q.Select(iq.FUInt)
		Expect(ok).To(BeTrue())
		Expect(picked.Dest).To(Equal(2))

		// The freed slot 1 now ties slot 0 on DispatchCycle; slot 0 wins.
		q.Dispatch(iq.Entry{FU: iq.FUInt, Src1Ready: true, Src2Ready: true, DispatchCycle: 5, Dest: 3})
		picked, ok = q.Select(iq.FUInt)
		Expect(ok).To(BeTrue())
		Expect(picked.Dest).To(Equal(1))
	})

	It("never selects more than one entry of a kind per call", func() {
		q.Dispatch(iq.Entry{FU: iq.FUInt, Src1Ready: true, Src2Ready: true})
		q.Dispatch(iq.Entry{FU: iq.FUInt, Src1Ready: true, Src2Ready: true})

		_, ok := q.Select(iq.FUInt)
		Expect(ok).To(BeTrue())

		entries := q.Entries()
		validCount := 0
		for _, e := range entries {
			if e.Valid {
				validCount++
			}
		}
		Expect(validCount).To(Equal(1))
	})

	It("invalidates a slot immediately on selection, freeing it for dispatch", func() {
		q.Dispatch(iq.Entry{FU: iq.FUInt, Src1Ready: true, Src2Ready: true})
		q.Dispatch(iq.Entry{FU: iq.FUInt, Src1Ready: true, Src2Ready: true})
		Expect(q.HasFreeSlot()).To(BeFalse())

		_, ok := q.Select(iq.FUInt)
		Expect(ok).To(BeTrue())
		Expect(q.HasFreeSlot()).To(BeTrue())
	})

	It("only wakes entries matching the broadcast tag (FU-scoped select still applies)", func() {
		q.Dispatch(iq.Entry{FU: iq.FUMul, Src1Tag: prf.ID(1), Src2Tag: prf.None, Src2Ready: true})
		q.Dispatch(iq.Entry{FU: iq.FUMul, Src1Tag: prf.ID(2), Src2Tag: prf.None, Src2Ready: true})
		q.WakeUp(prf.ID(1))
		_, ok := q.Select(iq.FUInt)
		Expect(ok).To(BeFalse())
		picked, ok := q.Select(iq.FUMul)
		Expect(ok).To(BeTrue())
		Expect(picked.FU).To(Equal(iq.FUMul))
		Expect(picked.Src1Tag).To(Equal(prf.ID(1)))
		_, ok = q.Select(iq.FUMul)
		Expect(ok).To(BeFalse())
	})
})
