// Package main provides a pointer to the real entry point.
// APEX is a cycle-accurate out-of-order superscalar pipeline simulator.
//
// For the full CLI, use: go run ./cmd/apexsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("APEX - out-of-order pipeline simulator")
	fmt.Println("")
	fmt.Println("Usage: apexsim <program> <input_file> <unused> <cycles_limit>")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/apexsim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/apexsim' instead.")
	}
}
