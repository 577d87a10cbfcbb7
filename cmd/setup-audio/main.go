package main

import (
	"fmt"
	"os"

	"github.com/777genius/standupbot/internal/coreaudio"
	"github.com/777genius/standupbot/internal/multiout"
)

// One-shot provisioning of the Multi-Output Device. No flags, no config:
// run it, read the lines, done. Exit 0 when the device exists afterwards
// (created now or already there), 1 otherwise.
func main() {
	runner := multiout.NewRunner(coreaudio.New(), os.Stdout)
	if _, err := runner.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
