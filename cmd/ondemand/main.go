// Command ondemand inspects on-demand activation configuration and produces
// statically rendered wrappers.
package main

import (
	"fmt"
	"os"

	"github.com/go-drift/ondemand/cmd/ondemand/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
