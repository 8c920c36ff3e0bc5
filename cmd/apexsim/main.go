// Command apexsim is the entry point for the APEX pipeline simulator.
//
// Usage:
//
//	apexsim <program> <input_file> <unused> <cycles_limit>
//
// The four positional arguments match the original C tool's fixed
// contract (spec.md §6): <program> names the assembly listing to load
// on `i`, <input_file> and <unused> are accepted and never read, and
// <cycles_limit> is the cycle budget `i` installs for subsequent `s`
// commands.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/apex/apexsim/shell"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s <program> <input_file> <unused> <cycles_limit>\n", os.Args[0])
	}
	flag.Parse()

	if flag.NArg() != 4 {
		flag.Usage()
		os.Exit(1)
	}

	programPath := flag.Arg(0)
	inputFile := flag.Arg(1)
	unused := flag.Arg(2)
	cyclesLimit, err := strconv.Atoi(flag.Arg(3))
	if err != nil {
		fmt.Fprintf(os.Stderr, "apex: bad cycles_limit %q: %v\n", flag.Arg(3), err)
		os.Exit(1)
	}

	s := shell.New(programPath, inputFile, unused, cyclesLimit)
	if err := s.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "apex: %v\n", err)
		os.Exit(1)
	}
}
