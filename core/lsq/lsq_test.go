package lsq_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/apex/apexsim/core/lsq"
	"github.com/apex/apexsim/core/prf"
)

func TestLSQ(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "LSQ Suite")
}

var _ = Describe("LSQ", func() {
	var q *lsq.LSQ

	BeforeEach(func() {
		q = lsq.New(2)
	})

	It("preserves program order: entries drain head-first in dispatch order (P5, I3)", func() {
		idx0, ok := q.Dispatch(lsq.Entry{IsLoad: true})
		Expect(ok).To(BeTrue())
		idx1, ok := q.Dispatch(lsq.Entry{IsLoad: false})
		Expect(ok).To(BeTrue())
		Expect(idx0).To(Equal(q.HeadIndex()))

		q.AdvanceHead()
		Expect(q.HeadIndex()).To(Equal(idx1))
	})

	It("reports StructuralStall by refusing dispatch when full", func() {
		_, ok := q.Dispatch(lsq.Entry{})
		Expect(ok).To(BeTrue())
		_, ok = q.Dispatch(lsq.Entry{})
		Expect(ok).To(BeTrue())
		_, ok = q.Dispatch(lsq.Entry{})
		Expect(ok).To(BeFalse())
	})

	It("marks the address ready only for the matching tag", func() {
		idx, _ := q.Dispatch(lsq.Entry{IsLoad: true})
		q.Dispatch(lsq.Entry{IsLoad: true})
		q.SetAddr(idx, 100)
		Expect(q.Head().AddrReady).To(BeTrue())
		Expect(q.Head().Addr).To(Equal(int32(100)))
		Expect(q.Entries()[1].AddrReady).To(BeFalse())
	})

	It("wakes store data only for stores matching the tag", func() {
		idx, _ := q.Dispatch(lsq.Entry{IsLoad: false, DataTag: prf.ID(7)})
		q.WakeData(prf.ID(9))
		Expect(q.Entries()[0].DataReady).To(BeFalse())
		q.WakeData(prf.ID(7))
		Expect(q.Entries()[0].DataReady).To(BeTrue())
		_ = idx
	})

	It("recycles ring slots after the head drains", func() {
		q.Dispatch(lsq.Entry{})
		q.Dispatch(lsq.Entry{})
		q.AdvanceHead()
		Expect(q.Full()).To(BeFalse())
		_, ok := q.Dispatch(lsq.Entry{})
		Expect(ok).To(BeTrue())
	})
})
