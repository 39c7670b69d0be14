package config

import (
	"fmt"
	"os"
)

// Exit codes for command entry points. Startup configuration problems exit
// distinctly from run-loop failures so wrappers can tell them apart.
const (
	ExitRunError    = 1
	ExitConfigError = 2
)

// Exitf prints a formatted message to stderr and terminates the process with
// code. Commands use it around the run loop, where the service-prefixed
// logger may not be configured yet.
func Exitf(code int, format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(code)
}
