// Command lasolve solves sparse linear systems described in YAML files
// with the LU direct solver, on the host or on an accelerator backend.
//
//	lasolve solve --backend mock system.yaml
//	lasolve info --backend mock
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
