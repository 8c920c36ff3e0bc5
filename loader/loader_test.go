package loader_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/apex/apexsim/isa"
	"github.com/apex/apexsim/loader"
)

func TestLoader(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Loader Suite")
}

var _ = Describe("Load", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "apex-loader-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	writeProgram := func(text string) string {
		path := filepath.Join(tempDir, "prog.asm")
		Expect(os.WriteFile(path, []byte(text), 0o644)).To(Succeed())
		return path
	}

	It("loads a valid program", func() {
		path := writeProgram("MOVC R1,#5\nMOVC R2,#7\nADD R3,R1,R2\nHALT\n")
		prog, err := loader.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(prog.Instructions).To(HaveLen(4))
	})

	It("maps program order to code memory starting at CodeBase", func() {
		path := writeProgram("MOVC R1,#5\nHALT\n")
		prog, err := loader.Load(path)
		Expect(err).NotTo(HaveOccurred())

		inst, ok := prog.InstructionAt(loader.CodeBase)
		Expect(ok).To(BeTrue())
		Expect(inst.Op).To(Equal(isa.OpMOVC))

		inst, ok = prog.InstructionAt(loader.CodeBase + loader.InstructionSize)
		Expect(ok).To(BeTrue())
		Expect(inst.Op).To(Equal(isa.OpHALT))
	})

	It("reports out-of-range PCs", func() {
		path := writeProgram("HALT\n")
		prog, err := loader.Load(path)
		Expect(err).NotTo(HaveOccurred())

		_, ok := prog.InstructionAt(loader.CodeBase + loader.InstructionSize)
		Expect(ok).To(BeFalse())
	})

	It("fails on a missing file", func() {
		_, err := loader.Load(filepath.Join(tempDir, "nope.asm"))
		Expect(err).To(HaveOccurred())
	})

	It("fails on an unparseable line", func() {
		path := writeProgram("FROBNICATE R1,R2,R3\n")
		_, err := loader.Load(path)
		Expect(err).To(HaveOccurred())
	})
})
