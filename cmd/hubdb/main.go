package main

import (
	"fmt"
	"os"
)

// main runs the hubdb command line tool.
// go run ./cmd/hubdb --path /tmp/hub put greeting hello
func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
