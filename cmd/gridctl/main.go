// Command gridctl is the command-line client for the GridHive task service.
//
// The binary is a thin shell around the dispatcher: all parsing, command
// resolution, failure translation, and session logging live in
// internal/dispatch so they stay testable without spawning a process.
package main

import (
	"os"

	"github.com/gridhive-dev/gridctl/internal/dispatch"
)

func main() {
	os.Exit(dispatch.Run(os.Args[1:]))
}
