// Package shell implements the interactive command loop described in
// spec.md §6: initialize, single-step to completion, display pipeline
// state, inspect a data memory word, and quit. It is the Go realization
// of original_source/main.c's i/s/d/m/q switch, translated from a
// blocking getchar/scanf loop into a buffered-reader one.
package shell

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/apex/apexsim/core/cpu"
	"github.com/apex/apexsim/loader"
)

// Shell owns the CLI's interactive loop and the one CPU it drives.
type Shell struct {
	programPath string
	inputFile   string // accepted per the CLI's positional contract, never read
	unused      string
	cyclesLimit int

	cpu *cpu.CPU

	in  *bufio.Reader
	out io.Writer
	err io.Writer
}

// Option configures a Shell at construction.
type Option func(*Shell)

// WithIO overrides the shell's input and output streams; tests drive the
// loop against an in-memory reader/writer instead of a real terminal.
func WithIO(in io.Reader, out, errOut io.Writer) Option {
	return func(s *Shell) {
		s.in = bufio.NewReader(in)
		s.out = out
		s.err = errOut
	}
}

// New creates a Shell bound to the CLI's four positional arguments
// (spec.md §6). cyclesLimit is the default cycle budget `i` installs.
func New(programPath, inputFile, unused string, cyclesLimit int, opts ...Option) *Shell {
	s := &Shell{
		programPath: programPath,
		inputFile:   inputFile,
		unused:      unused,
		cyclesLimit: cyclesLimit,
		in:          bufio.NewReader(os.Stdin),
		out:         os.Stdout,
		err:         os.Stderr,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run drives the i/s/d/m/q loop until the user quits or the input stream
// ends, and always returns nil. A failed initialization, or a command
// that needs a CPU before one has been initialized, is reported to s.err,
// matching the original's stderr complaints, and the loop continues.
func (s *Shell) Run() error {
	for {
		fmt.Fprintln(s.out, "\nPress <i> to Initialize, <s> to Single Step, <d> to Display stage values, <m> to Show memory, <q> to Quit simulator")

		cmd, ok := s.readCommand()
		if !ok {
			return nil
		}

		switch cmd {
		case 'i':
			if err := s.initialize(); err != nil {
				fmt.Fprintf(s.err, "apex: %v\n", err)
			}
		case 's':
			s.step()
		case 'd':
			s.display()
		case 'm':
			s.memory()
		case 'q':
			return nil
		}
	}
}

func (s *Shell) readCommand() (byte, bool) {
	line, err := s.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		if err != nil {
			return 0, false
		}
		return 0, true
	}
	return strings.ToLower(line)[0], true
}

// initialize loads the program and installs the cycle limit, mirroring
// the original's `case 'i'` (APEX_cpu_init + cycles_limit assignment).
func (s *Shell) initialize() error {
	prog, err := loader.Load(s.programPath)
	if err != nil {
		return err
	}
	s.cpu = cpu.New(prog)
	fmt.Fprintf(s.out, "\n%d\n", s.cyclesLimit)
	return nil
}

func (s *Shell) requireCPU() bool {
	if s.cpu == nil {
		fmt.Fprintln(s.err, "apex: did not initialize CPU")
		return false
	}
	return true
}

// step runs until HALT or the installed cycle limit, whichever comes
// first (CycleLimitReached, spec.md §7).
func (s *Shell) step() {
	if !s.requireCPU() {
		return
	}
	fmt.Fprintln(s.out, "\nAbout to run sim")
	running := s.cpu.RunCycles(uint64(s.cyclesLimit))
	if running {
		fmt.Fprintf(s.out, "cycle limit (%d) reached before HALT\n", s.cyclesLimit)
	}
	stats := s.cpu.Stats()
	fmt.Fprintf(s.out, "cycles=%d retired=%d dispatched=%d structural_stalls=%d free_list_stalls=%d\n",
		stats.Cycles, stats.Retired, stats.Dispatched, stats.StructuralStalls, stats.FreeListStalls)
}

// display prints the architectural register file, condition flags, and
// every pipeline latch (IQ/LSQ/ROB), the Go analogue of the original's
// display_function.
func (s *Shell) display() {
	if !s.requireCPU() {
		return
	}
	arf := s.cpu.RegFile()
	fmt.Fprintln(s.out, "\n==== Architectural Register File ====")
	for i, v := range arf {
		fmt.Fprintf(s.out, "R%-3d | Value=%-6d\n", i, v)
	}

	flags := s.cpu.ConditionFlags()
	fmt.Fprintf(s.out, "\nFlags: Z=%t P=%t N=%t\n", flags.Zero, flags.Positive, flags.Negative)
	fmt.Fprintf(s.out, "Free physical registers: %d\n", s.cpu.FreeRegisters())

	fmt.Fprintln(s.out, "\n==== Issue Queue ====")
	for i, e := range s.cpu.IQEntries() {
		if !e.Valid {
			continue
		}
		fmt.Fprintf(s.out, "IQ[%d]: %s\n", i, e.Op)
	}

	fmt.Fprintln(s.out, "\n==== Load/Store Queue ====")
	for i, e := range s.cpu.LSQEntries() {
		if !e.Valid {
			continue
		}
		fmt.Fprintf(s.out, "LSQ[%d]: load=%t stage=%d addr=%d\n", i, e.IsLoad, e.Stage, e.Addr)
	}

	fmt.Fprintln(s.out, "\n==== Reorder Buffer ====")
	for i, e := range s.cpu.ROBEntries() {
		fmt.Fprintf(s.out, "ROB[%d]: pc=%d kind=%d\n", i, e.PC, e.Kind)
	}
}

// memory prompts for an address and prints that data memory word,
// mirroring the original's `case 'm'` (scanf("%d", &add)).
func (s *Shell) memory() {
	if !s.requireCPU() {
		return
	}
	fmt.Fprint(s.out, "Enter the memory address: ")
	line, err := s.in.ReadString('\n')
	if err != nil && line == "" {
		return
	}
	addr, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		fmt.Fprintf(s.err, "apex: bad address %q\n", strings.TrimSpace(line))
		return
	}
	fmt.Fprintf(s.out, "\nMEM[%d] = %d\n", addr, s.cpu.DataWord(int32(addr)))
}
