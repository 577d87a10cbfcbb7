// ABOUTME: Entry point for the standupbot CLI.
// ABOUTME: Wires the cobra command tree and maps errors to exit code 1.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
