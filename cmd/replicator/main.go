// Command replicator runs supervisor steps for a paper reproduction workflow
// from the command line: load a state snapshot, resolve one decision, print
// the merged state or the raw delta.
package main

import (
	"os"

	"replicator/internal/cli"
)

func main() {
	if err := cli.NewRoot().Execute(); err != nil {
		os.Exit(1)
	}
}
