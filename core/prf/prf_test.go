package prf_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/apex/apexsim/core/prf"
)

func TestPRF(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "PRF Suite")
}

var _ = Describe("PRF", func() {
	var p *prf.PRF

	BeforeEach(func() {
		p = prf.New(4)
	})

	It("starts with every id free and ready with sentinel value -1", func() {
		Expect(p.FreeCount()).To(Equal(4))
		ready, value := p.Read(prf.ID(0))
		Expect(ready).To(BeTrue())
		Expect(value).To(Equal(int32(-1)))
	})

	It("allocates ids in ascending order and marks them not ready", func() {
		id0, ok := p.Allocate()
		Expect(ok).To(BeTrue())
		Expect(id0).To(Equal(prf.ID(0)))
		Expect(p.Ready(id0)).To(BeFalse())

		id1, ok := p.Allocate()
		Expect(ok).To(BeTrue())
		Expect(id1).To(Equal(prf.ID(1)))
	})

	It("reports FreeListEmpty once exhausted", func() {
		for i := 0; i < 4; i++ {
			_, ok := p.Allocate()
			Expect(ok).To(BeTrue())
		}
		_, ok := p.Allocate()
		Expect(ok).To(BeFalse())
	})

	It("becomes ready with the written value after Write", func() {
		id, _ := p.Allocate()
		p.Write(id, 42)
		ready, value := p.Read(id)
		Expect(ready).To(BeTrue())
		Expect(value).To(Equal(int32(42)))
	})

	It("returns freed ids to the tail of the free list for reuse", func() {
		id0, _ := p.Allocate()
		id1, _ := p.Allocate()
		p.Free(id0)
		Expect(p.FreeCount()).To(Equal(3))

		// The next two allocations should be id2, id3, then the recycled id0.
		id2, _ := p.Allocate()
		id3, _ := p.Allocate()
		Expect(id2).To(Equal(prf.ID(2)))
		Expect(id3).To(Equal(prf.ID(3)))

		recycled, ok := p.Allocate()
		Expect(ok).To(BeTrue())
		Expect(recycled).To(Equal(id0))

		_ = id1
	})

	It("conserves the total register count across allocate/free (P1)", func() {
		var live []prf.ID
		for i := 0; i < 3; i++ {
			id, ok := p.Allocate()
			Expect(ok).To(BeTrue())
			live = append(live, id)
		}
		Expect(p.FreeCount() + len(live)).To(Equal(p.Size()))

		p.Free(live[0])
		live = live[1:]
		Expect(p.FreeCount() + len(live)).To(Equal(p.Size()))
	})
})
