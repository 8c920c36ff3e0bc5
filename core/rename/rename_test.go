package rename_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/apex/apexsim/core/prf"
	"github.com/apex/apexsim/core/rename"
)

func TestRename(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Rename Suite")
}

var _ = Describe("Table", func() {
	var (
		regs *prf.PRF
		tbl  *rename.Table
	)

	BeforeEach(func() {
		regs = prf.New(8)
		tbl = rename.New(regs, 4)
	})

	It("seeds an unmapped source register with a freshly allocated PR", func() {
		Expect(tbl.Current(0)).To(Equal(prf.None))
		pr, ok := tbl.LookupSrc(0)
		Expect(ok).To(BeTrue())
		Expect(pr.Valid()).To(BeTrue())
		Expect(tbl.Current(0)).To(Equal(pr))
	})

	It("seeds an unmapped source register as immediately ready (UndefinedRead)", func() {
		pr, _ := tbl.LookupSrc(0)
		ready, value := regs.Read(pr)
		Expect(ready).To(BeTrue())
		Expect(value).To(Equal(int32(-1)))
	})

	It("returns the same PR on repeated lookups without re-allocating", func() {
		pr1, _ := tbl.LookupSrc(1)
		pr2, _ := tbl.LookupSrc(1)
		Expect(pr1).To(Equal(pr2))
	})

	It("renames a destination to a fresh PR and reports the prior producer", func() {
		first, overwritten, ok := tbl.RenameDst(2)
		Expect(ok).To(BeTrue())
		Expect(overwritten).To(Equal(prf.None))

		second, overwrittenAgain, ok := tbl.RenameDst(2)
		Expect(ok).To(BeTrue())
		Expect(overwrittenAgain).To(Equal(first))
		Expect(second).NotTo(Equal(first))
		Expect(tbl.Current(2)).To(Equal(second))
	})

	It("produces three distinct PRs for three successive renames of the same AR (S5)", func() {
		a, _, _ := tbl.RenameDst(3)
		b, _, _ := tbl.RenameDst(3)
		c, _, _ := tbl.RenameDst(3)
		Expect(a).NotTo(Equal(b))
		Expect(b).NotTo(Equal(c))
		Expect(a).NotTo(Equal(c))
	})

	It("signals FreeListEmpty by returning ok=false without mutating the map", func() {
		tiny := prf.New(1)
		t := rename.New(tiny, 2)
		_, _, ok := t.RenameDst(0)
		Expect(ok).To(BeTrue())
		before := t.Current(1)
		_, _, ok = t.RenameDst(1)
		Expect(ok).To(BeFalse())
		Expect(t.Current(1)).To(Equal(before))
	})
})
